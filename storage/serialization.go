// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"fmt"
	"slices"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/copilot/core"
)

// Document wire layout, in order:
//
//	id          varint uint64
//	content     ord string
//	metadata    varint count, then (ord string key, ord string value) sorted by key
//	vector      varint count, then raw float32 values
//	inserted_at varint int64 unix micros, 0 for the zero time

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	keys := sortedKeys(doc.Metadata)
	inserted := unixMicro(doc.InsertedAt)

	size := varint.Uint64.Size(uint64(doc.Id)) +
		ord.String.Size(doc.Content) +
		varint.Uint64.Size(uint64(len(keys)))
	for _, k := range keys {
		size += ord.String.Size(k) + ord.String.Size(doc.Metadata[k])
	}
	size += varint.Uint64.Size(uint64(len(doc.Vector)))
	for _, v := range doc.Vector {
		size += raw.Float32.Size(v)
	}
	size += varint.Int64.Size(inserted)

	buf := make([]byte, size)
	n := varint.Uint64.Marshal(uint64(doc.Id), buf)
	n += ord.String.Marshal(doc.Content, buf[n:])
	n += varint.Uint64.Marshal(uint64(len(keys)), buf[n:])
	for _, k := range keys {
		n += ord.String.Marshal(k, buf[n:])
		n += ord.String.Marshal(doc.Metadata[k], buf[n:])
	}
	n += varint.Uint64.Marshal(uint64(len(doc.Vector)), buf[n:])
	for _, v := range doc.Vector {
		n += raw.Float32.Marshal(v, buf[n:])
	}
	varint.Int64.Marshal(inserted, buf[n:])
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, ErrTruncatedData)
	}

	var (
		doc core.Document
		off int
	)
	fail := func(field string, err error) (*core.Document, error) {
		return nil, fmt.Errorf("%w: %s: %w", ErrSerializationFailed, field, err)
	}

	id, n, err := varint.Uint64.Unmarshal(data[off:])
	if err != nil {
		return fail("id", err)
	}
	off += n
	doc.Id = core.ID(id)

	doc.Content, n, err = ord.String.Unmarshal(data[off:])
	if err != nil {
		return fail("content", err)
	}
	off += n

	count, n, err := varint.Uint64.Unmarshal(data[off:])
	if err != nil {
		return fail("metadata", err)
	}
	off += n
	if count > uint64(len(data)-off) {
		return fail("metadata", ErrTruncatedData)
	}
	if count > 0 {
		doc.Metadata = make(map[string]string, count)
		for i := uint64(0); i < count; i++ {
			k, n, err := ord.String.Unmarshal(data[off:])
			if err != nil {
				return fail("metadata key", err)
			}
			off += n
			v, n, err := ord.String.Unmarshal(data[off:])
			if err != nil {
				return fail("metadata value", err)
			}
			off += n
			doc.Metadata[k] = v
		}
	}

	count, n, err = varint.Uint64.Unmarshal(data[off:])
	if err != nil {
		return fail("vector", err)
	}
	off += n
	if count > uint64(len(data)-off)/4 {
		return fail("vector", ErrTruncatedData)
	}
	if count > 0 {
		doc.Vector = make([]float32, count)
		for i := range doc.Vector {
			doc.Vector[i], n, err = raw.Float32.Unmarshal(data[off:])
			if err != nil {
				return fail("vector", err)
			}
			off += n
		}
	}

	micros, _, err := varint.Int64.Unmarshal(data[off:])
	if err != nil {
		return fail("inserted_at", err)
	}
	if micros != 0 {
		doc.InsertedAt = time.UnixMicro(micros).UTC()
	}

	return &doc, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func unixMicro(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

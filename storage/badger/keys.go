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

package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/copilot/core"
)

// Key prefixes for different data types
const (
	documentPrefix = "docrec:"
	termPrefix     = "doctrm:"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s%d", documentPrefix, id))
}

// makePartialTermKey generates the prefix shared by every posting of a term.
// Format: prefix:termLength:term
// The length keeps "ab" from matching postings of "abc".
func makePartialTermKey(term string) []byte {
	prefixBytes := []byte(termPrefix)
	buf := make([]byte, len(prefixBytes)+2+len(term))
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint16(buf[offset:], uint16(len(term)))
	offset += 2
	copy(buf[offset:], term)
	return buf
}

// makeTermKey generates a posting key for the term index.
// Format: prefix:termLength:term:documentID
func makeTermKey(term string, id core.ID) []byte {
	partial := makePartialTermKey(term)
	buf := make([]byte, len(partial)+8)
	offset := copy(buf, partial)
	// Write in BigEndian order so postings of a term sort by ID
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// idFromTermKey extracts the document ID from a posting key.
func idFromTermKey(key []byte) (core.ID, bool) {
	if len(key) < 8 {
		return 0, false
	}
	return core.ID(binary.BigEndian.Uint64(key[len(key)-8:])), true
}

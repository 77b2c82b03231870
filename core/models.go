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

package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Documents use content-based hashing so identical text maps to the same ID.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Document is a unit of grounding material held by the document store.
// It is treated as immutable once retrieved.
type Document struct {
	Id         ID
	Content    string
	Metadata   map[string]string // Optional metadata (e.g., "source", "title")
	Vector     []float32         // Embedding attached at ingestion time
	InsertedAt time.Time         // When the document was written to the store
}

// HasVector reports whether the document carries a cached embedding.
func (d *Document) HasVector() bool {
	return len(d.Vector) > 0
}

// ScoredCandidate pairs a retrieved document with its similarity to the query.
// It lives only for the duration of one query.
type ScoredCandidate struct {
	Document   *Document
	Similarity float32
}

// Context is the packed grounding text handed to the prompt.
// TotalLength is the sum of the part lengths; separators are not counted.
type Context struct {
	Parts       []string
	TotalLength int
}

// ChatTurn is one question/answer exchange in a session.
type ChatTurn struct {
	User     string
	Response string
}

// SearchResult represents a search result with the full document and relevance score.
type SearchResult struct {
	Document *Document
	Score    float32
}

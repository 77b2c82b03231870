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

package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/poiesic/copilot/ai"
	"github.com/poiesic/copilot/core"
	"github.com/poiesic/copilot/storage"
)

// Retriever returns up to k candidate documents for a query, most relevant first.
// It may return fewer than k documents; an empty slice is a valid result.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]*core.Document, error)
}

// Mode selects a retrieval strategy.
type Mode string

const (
	// ModeHybrid combines vector similarity with term matching.
	ModeHybrid Mode = "hybrid"

	// ModeVector ranks by vector similarity only.
	ModeVector Mode = "vector"
)

// ParseMode converts a mode name to a Mode. Matching is case-insensitive
// and an empty name selects ModeHybrid.
func ParseMode(name string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(name))) {
	case "", ModeHybrid:
		return ModeHybrid, nil
	case ModeVector:
		return ModeVector, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
}

// DefaultResultCount is the number of candidates requested per query in each mode.
func DefaultResultCount(mode Mode) int {
	if mode == ModeVector {
		return 5
	}
	return 10
}

// New creates the Retriever for mode.
func New(mode Mode, repo storage.DocumentRepository, embedder ai.Embedder, opts ...Option) (Retriever, error) {
	switch mode {
	case ModeHybrid, "":
		return NewHybridSearcher(repo, embedder, opts...)
	case ModeVector:
		return NewVectorSearcher(repo, embedder, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, string(mode))
	}
}

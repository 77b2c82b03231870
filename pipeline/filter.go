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

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/copilot/ai"
	"github.com/poiesic/copilot/core"
)

// SimilarityThreshold is the minimum cosine similarity between the query and
// a candidate for the candidate to reach the context.
const SimilarityThreshold float32 = 0.7

// SimilarityFilter drops retrieved candidates that are not close enough to the query.
type SimilarityFilter struct {
	embedder ai.Embedder
	logger   *slog.Logger
}

// NewSimilarityFilter creates a filter scoring with embedder.
func NewSimilarityFilter(embedder ai.Embedder) (*SimilarityFilter, error) {
	return newSimilarityFilter(embedder, slog.Default())
}

func newSimilarityFilter(embedder ai.Embedder, logger *slog.Logger) (*SimilarityFilter, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	return &SimilarityFilter{
		embedder: embedder,
		logger:   logger.With("component", "similarity-filter"),
	}, nil
}

// Score computes the query similarity of every candidate with non-blank content.
// Candidates keep their input order. The query is embedded once; candidates
// use their cached vector and are embedded only when they have none.
func (f *SimilarityFilter) Score(ctx context.Context, query string, candidates []*core.Document) ([]core.ScoredCandidate, error) {
	if len(candidates) == 0 {
		return []core.ScoredCandidate{}, nil
	}

	queryVector, err := f.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", ErrEmbedding, err)
	}

	scored := make([]core.ScoredCandidate, 0, len(candidates))
	for i, doc := range candidates {
		if doc == nil || strings.TrimSpace(doc.Content) == "" {
			f.logger.Debug("skipping blank candidate", "position", i)
			continue
		}

		vector := doc.Vector
		if !doc.HasVector() {
			f.logger.Debug("candidate has no cached vector", "id", doc.Id)
			vector, err = f.embedder.EmbedText(ctx, strings.TrimSpace(doc.Content))
			if err != nil {
				return nil, fmt.Errorf("%w: document %d: %w", ErrEmbedding, doc.Id, err)
			}
		} else if len(vector) != len(queryVector) {
			f.logger.Debug("cached vector dimension mismatch", "id", doc.Id, "cached", len(vector), "query", len(queryVector))
		}

		scored = append(scored, core.ScoredCandidate{
			Document:   doc,
			Similarity: core.CosineSimilarity(queryVector, vector),
		})
	}
	return scored, nil
}

// Keep returns the documents whose similarity reaches SimilarityThreshold, in input order.
func Keep(scored []core.ScoredCandidate) []*core.Document {
	kept := make([]*core.Document, 0, len(scored))
	for _, sc := range scored {
		if sc.Similarity < SimilarityThreshold {
			continue
		}
		kept = append(kept, sc.Document)
	}
	return kept
}

// Filter returns the candidates similar enough to the query, preserving retrieval order.
func (f *SimilarityFilter) Filter(ctx context.Context, query string, candidates []*core.Document) ([]*core.Document, error) {
	scored, err := f.Score(ctx, query, candidates)
	if err != nil {
		return nil, err
	}
	kept := Keep(scored)
	f.logger.Debug("filtered candidates", "candidates", len(candidates), "kept", len(kept))
	return kept, nil
}

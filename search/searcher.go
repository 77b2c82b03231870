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
	"log/slog"
	"sort"

	"github.com/poiesic/copilot/ai"
	"github.com/poiesic/copilot/core"
	"github.com/poiesic/copilot/storage"
)

const (
	// termWeight scales term coverage (0..1) before it is added to vector similarity.
	termWeight = 0.5

	// verbatimBoost is added when every query term appears in the document.
	verbatimBoost = 0.3

	// candidatePoolFactor widens each sub-search so that merging still yields k results.
	candidatePoolFactor = 3

	// vectorFloor is the minimum similarity for the hybrid vector sub-search.
	vectorFloor = 0.0

	// anySimilarity accepts every stored vector (cosine is never below -1).
	anySimilarity = -1.0
)

type searcherOptions struct {
	logger *slog.Logger
}

// Option configures a searcher.
type Option func(*searcherOptions) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *searcherOptions) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

func applyOptions(component string, opts []Option) (*searcherOptions, error) {
	o := &searcherOptions{logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	o.logger = o.logger.With("component", component)
	return o, nil
}

// HybridSearcher ranks documents by vector similarity plus term matching.
type HybridSearcher struct {
	repository storage.DocumentRepository
	embedder   ai.Embedder
	logger     *slog.Logger
}

var _ Retriever = (*HybridSearcher)(nil)

// NewHybridSearcher creates a new hybrid searcher.
func NewHybridSearcher(repository storage.DocumentRepository, embedder ai.Embedder, opts ...Option) (*HybridSearcher, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	o, err := applyOptions("hybrid-searcher", opts)
	if err != nil {
		return nil, err
	}

	return &HybridSearcher{
		repository: repository,
		embedder:   embedder,
		logger:     o.logger,
	}, nil
}

// Search returns up to k documents for the query, most relevant first.
func (s *HybridSearcher) Search(ctx context.Context, query string, k int) ([]*core.Document, error) {
	results, err := s.Rank(ctx, query, k)
	if err != nil {
		return nil, err
	}
	return documents(results), nil
}

// Rank is Search with the scores attached.
func (s *HybridSearcher) Rank(ctx context.Context, query string, k int) ([]*core.SearchResult, error) {
	return s.RankWithMonitor(ctx, query, k, nil)
}

// RankWithMonitor ranks documents for the query, reporting each stage to monitor.
// Returns up to k results, ranked by score.
func (s *HybridSearcher) RankWithMonitor(ctx context.Context, query string, k int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(query)

	if k <= 0 {
		monitor.Finish(nil)
		return []*core.SearchResult{}, nil
	}
	pool := k * candidatePoolFactor

	// 1. Semantic search over cached vectors
	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	vectorMatches, err := s.repository.FindSimilar(ctx, embedding, vectorFloor, pool)
	if err != nil {
		s.logger.Error("error querying for similar documents", "err", err)
		return nil, err
	}
	monitor.AfterVectorSearch(vectorMatches)

	// 2. Lexical search through the term index
	terms := core.Terms(query)
	var termMatches []*core.SearchResult
	if len(terms) > 0 {
		termMatches, err = s.repository.FindByTerms(ctx, terms, pool)
		if err != nil {
			s.logger.Error("error querying term index", "terms", terms, "err", err)
			return nil, err
		}
	}
	monitor.AfterTermSearch(terms, termMatches)

	// 3. Combine and score
	type hit struct {
		doc      *core.Document
		vector   float32
		coverage float32
		inVector bool
		inTerms  bool
	}
	hits := make(map[core.ID]*hit, len(vectorMatches)+len(termMatches))
	for _, m := range vectorMatches {
		hits[m.Document.Id] = &hit{doc: m.Document, vector: m.Score, inVector: true}
	}
	for _, m := range termMatches {
		h, ok := hits[m.Document.Id]
		if !ok {
			h = &hit{doc: m.Document}
			hits[m.Document.Id] = h
		}
		h.coverage = m.Score
		h.inTerms = true
	}

	results := make([]*core.SearchResult, 0, len(hits))
	for _, h := range hits {
		switch {
		case h.inVector && h.inTerms:
			monitor.VectorAndTermHit(h.doc)
		case h.inTerms:
			monitor.TermHit(h.doc)
		default:
			monitor.VectorHit(h.doc)
		}

		score := h.vector + termWeight*h.coverage
		if containsAllTerms(h.doc.Content, terms) {
			score += verbatimBoost
			monitor.VerbatimHit(h.doc)
		}

		results = append(results, &core.SearchResult{Document: h.doc, Score: score})
	}

	sortResults(results)
	if len(results) > k {
		results = results[:k]
	}
	monitor.Finish(results)

	s.logger.Debug("hybrid search complete", "query", query, "vector_hits", len(vectorMatches), "term_hits", len(termMatches), "results", len(results))
	return results, nil
}

// VectorSearcher ranks documents purely by similarity to the query embedding.
type VectorSearcher struct {
	repository storage.Repository
	embedder   ai.Embedder
	logger     *slog.Logger
}

var _ Retriever = (*VectorSearcher)(nil)

// NewVectorSearcher creates a new vector-only searcher.
func NewVectorSearcher(repository storage.Repository, embedder ai.Embedder, opts ...Option) (*VectorSearcher, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	o, err := applyOptions("vector-searcher", opts)
	if err != nil {
		return nil, err
	}

	return &VectorSearcher{
		repository: repository,
		embedder:   embedder,
		logger:     o.logger,
	}, nil
}

// Search returns the k nearest documents to the query.
func (s *VectorSearcher) Search(ctx context.Context, query string, k int) ([]*core.Document, error) {
	results, err := s.Rank(ctx, query, k)
	if err != nil {
		return nil, err
	}
	return documents(results), nil
}

// Rank is Search with the similarity scores attached.
func (s *VectorSearcher) Rank(ctx context.Context, query string, k int) ([]*core.SearchResult, error) {
	if k <= 0 {
		return []*core.SearchResult{}, nil
	}

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	results, err := s.repository.FindSimilar(ctx, embedding, anySimilarity, k)
	if err != nil {
		s.logger.Error("error querying for similar documents", "err", err)
		return nil, err
	}

	s.logger.Debug("vector search complete", "query", query, "results", len(results))
	return results, nil
}

// sortResults orders by score descending, breaking ties by ID for stable output.
func sortResults(results []*core.SearchResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Document.Id < results[j].Document.Id
	})
}

func documents(results []*core.SearchResult) []*core.Document {
	docs := make([]*core.Document, 0, len(results))
	for _, r := range results {
		docs = append(docs, r.Document)
	}
	return docs
}

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
	"github.com/poiesic/copilot/search"
)

// DefaultResultCount is the number of candidates requested from the retriever.
const DefaultResultCount = 10

// Input is the single free-text field a caller hands to Execute.
type Input struct {
	Query string
}

// Pipeline answers questions from retrieved documents.
type Pipeline struct {
	retriever        search.Retriever
	completer        ai.Completer
	filter           *SimilarityFilter
	resultCount      int
	maxContextLength int
	monitor          Monitor
	logger           *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithResultCount sets how many candidates are requested per query.
// Default is DefaultResultCount.
func WithResultCount(k int) Option {
	return func(p *Pipeline) error {
		if k <= 0 {
			return ErrInvalidResultCount
		}
		p.resultCount = k
		return nil
	}
}

// WithMaxContextLength sets the context budget in characters.
// Default is DefaultMaxContextLength.
func WithMaxContextLength(n int) Option {
	return func(p *Pipeline) error {
		if n <= 0 {
			return ErrInvalidMaxContextLength
		}
		p.maxContextLength = n
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithMonitor installs a monitor notified at each stage of every query.
func WithMonitor(monitor Monitor) Option {
	return func(p *Pipeline) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		p.monitor = monitor
		return nil
	}
}

// New creates a pipeline.
func New(retriever search.Retriever, embedder ai.Embedder, completer ai.Completer, opts ...Option) (*Pipeline, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if completer == nil {
		return nil, ErrCompleterRequired
	}

	p := &Pipeline{
		retriever:        retriever,
		completer:        completer,
		resultCount:      DefaultResultCount,
		maxContextLength: DefaultMaxContextLength,
		monitor:          &noopMonitor{},
		logger:           slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	filter, err := newSimilarityFilter(embedder, p.logger)
	if err != nil {
		return nil, err
	}
	p.filter = filter
	p.logger = p.logger.With("component", "pipeline")

	return p, nil
}

// Execute answers in.Query. It returns the sanitized completion, or an error
// wrapping ErrEmbedding or ErrCompletion when a provider fails.
func (p *Pipeline) Execute(ctx context.Context, in Input) (string, error) {
	query := strings.TrimSpace(in.Query)
	p.monitor.Start(query)

	prompt, err := p.buildPrompt(ctx, query)
	if err != nil {
		p.monitor.Finish("", err)
		return "", err
	}

	raw, err := p.completer.Complete(ctx, prompt)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrCompletion, err)
		p.logger.Error("completion failed", "err", err)
		p.monitor.Finish("", err)
		return "", err
	}
	p.monitor.AfterCompletion(raw)

	answer := Sanitize(raw)
	p.logger.Debug("query answered", "raw_length", len(raw), "answer_length", len(answer))
	p.monitor.Finish(answer, nil)
	return answer, nil
}

// BuildPrompt runs every stage up to prompt assembly and returns the prompt
// that Execute would send to the completion model.
func (p *Pipeline) BuildPrompt(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	p.monitor.Start(query)
	return p.buildPrompt(ctx, query)
}

// RetrieveContext returns the packed context for query.
func (p *Pipeline) RetrieveContext(ctx context.Context, query string) (string, error) {
	return p.retrieveContext(ctx, strings.TrimSpace(query))
}

func (p *Pipeline) buildPrompt(ctx context.Context, query string) (string, error) {
	packed, err := p.retrieveContext(ctx, query)
	if err != nil {
		return "", err
	}
	return Assemble(query, packed), nil
}

func (p *Pipeline) retrieveContext(ctx context.Context, query string) (string, error) {
	candidates, err := p.retriever.Search(ctx, query, p.resultCount)
	p.monitor.AfterRetrieval(candidates, err)
	if err != nil {
		p.logger.Warn("retrieval failed, continuing without documents", "err", err)
		return NoDocumentsFound, nil
	}
	if len(candidates) == 0 {
		p.logger.Debug("retrieval returned no candidates")
		return NoDocumentsFound, nil
	}

	scored, err := p.filter.Score(ctx, query, candidates)
	if err != nil {
		p.logger.Error("similarity scoring failed", "err", err)
		return "", err
	}
	kept := Keep(scored)
	p.monitor.AfterFilter(scored, kept)

	packed := PackContext(kept, p.maxContextLength)
	p.monitor.AfterPack(packed)
	p.logger.Debug("context packed", "candidates", len(candidates), "kept", len(kept), "packed", len(packed.Parts), "length", packed.TotalLength)

	return Render(packed), nil
}

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

// Package copilot assembles the document store, model provider, retriever
// and answering pipeline described by a config.Config.
package copilot

import (
	"errors"
	"log/slog"

	"github.com/poiesic/copilot/ai"
	"github.com/poiesic/copilot/ai/openai"
	"github.com/poiesic/copilot/config"
	"github.com/poiesic/copilot/ingestion"
	"github.com/poiesic/copilot/pipeline"
	"github.com/poiesic/copilot/search"
	"github.com/poiesic/copilot/storage"
	"github.com/poiesic/copilot/storage/badger"
)

// ErrConfigRequired is returned by Open when cfg is nil.
var ErrConfigRequired = errors.New("config required")

// Copilot owns the open store and provider for one process.
type Copilot struct {
	cfg       *config.Config
	repo      storage.DocumentRepository
	provider  ai.AIProvider
	retriever search.Retriever
	base      *slog.Logger
	logger    *slog.Logger
}

// Option configures Open.
type Option func(*options)

type options struct {
	provider ai.AIProvider
	inMemory bool
	logger   *slog.Logger
}

// WithProvider uses provider instead of building one from the AI config.
// Open takes ownership and closes it on Close.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

// WithInMemoryStorage ignores the storage path and keeps documents in memory.
func WithInMemoryStorage() Option {
	return func(o *options) {
		o.inMemory = true
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Open validates cfg and opens everything it describes.
func Open(cfg *config.Config, opts ...Option) (*Copilot, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, err := cfg.Retrieval.SearchMode()
	if err != nil {
		return nil, err
	}

	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger.With("component", "copilot")

	backend, err := badger.OpenBackend(cfg.Storage.Path, o.inMemory)
	if err != nil {
		return nil, err
	}
	repo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider := o.provider
	if provider == nil {
		provider, err = openai.NewProvider(cfg.AI.Provider())
		if err != nil {
			repo.Close()
			return nil, err
		}
	}

	retriever, err := search.New(mode, repo, provider.Embedder(), search.WithLogger(o.logger))
	if err != nil {
		provider.Close()
		repo.Close()
		return nil, err
	}

	logger.Debug("opened", "storage", cfg.Storage.Path, "in_memory", o.inMemory, "mode", mode)

	return &Copilot{
		cfg:       cfg,
		repo:      repo,
		provider:  provider,
		retriever: retriever,
		base:      o.logger,
		logger:    logger,
	}, nil
}

// Close releases the provider and the store.
func (c *Copilot) Close() error {
	if err := c.provider.Close(); err != nil {
		c.logger.Error("error closing AI provider", "err", err)
	}
	if err := c.repo.Close(); err != nil {
		c.logger.Error("error closing document repository", "err", err)
		return err
	}
	return nil
}

// Config returns the configuration c was opened with.
func (c *Copilot) Config() *config.Config {
	return c.cfg
}

// Repository returns the document store.
func (c *Copilot) Repository() storage.DocumentRepository {
	return c.repo
}

// Provider returns the model provider.
func (c *Copilot) Provider() ai.AIProvider {
	return c.provider
}

// Retriever returns the candidate search for the configured mode.
func (c *Copilot) Retriever() search.Retriever {
	return c.retriever
}

// NewPipeline builds an answering pipeline from the config. opts are applied
// after the configured result count and context length.
func (c *Copilot) NewPipeline(opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	base := []pipeline.Option{
		pipeline.WithResultCount(c.cfg.Retrieval.Count()),
		pipeline.WithMaxContextLength(c.cfg.Context.MaxLength),
		pipeline.WithLogger(c.base),
	}
	return pipeline.New(c.retriever, c.provider.Embedder(), c.provider.Completer(), append(base, opts...)...)
}

// NewIndexer builds an indexer over the store. The caller must Release it.
func (c *Copilot) NewIndexer(opts ...ingestion.Option) (*ingestion.Indexer, error) {
	base := []ingestion.Option{
		ingestion.WithBatchSize(c.cfg.Indexing.BatchSize),
		ingestion.WithLogger(c.base),
	}
	if c.cfg.Indexing.Workers > 0 {
		base = append(base, ingestion.WithPoolSize(c.cfg.Indexing.Workers))
	}
	return ingestion.NewIndexer(c.repo, c.provider.Embedder(), append(base, opts...)...)
}

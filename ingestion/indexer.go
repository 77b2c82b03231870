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

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/copilot/ai"
	"github.com/poiesic/copilot/core"
	"github.com/poiesic/copilot/storage"
)

// DefaultBatchSize is the number of documents embedded per request.
const DefaultBatchSize = 32

// Indexer embeds documents and writes them, with their vectors, to the store.
type Indexer struct {
	repository storage.DocumentRepository
	embedder   ai.Embedder
	pool       *ants.Pool
	batchSize  int
	retry      RetryPolicy
	progress   io.Writer
	logger     *slog.Logger
}

// Option configures an Indexer.
type Option func(*Indexer) error

// WithPoolSize sets the number of batches embedded concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(ix *Indexer) error {
		if size < 1 {
			size = 1
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if ix.pool != nil {
			ix.pool.Release()
		}
		ix.pool = pool
		return nil
	}
}

// WithBatchSize sets the number of documents per embedding request.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(ix *Indexer) error {
		if size < 1 {
			size = 1
		}
		ix.batchSize = size
		return nil
	}
}

// WithRetryPolicy sets how embedding failures are retried.
// Default is DefaultRetryPolicy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(ix *Indexer) error {
		if policy.MaxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		ix.retry = policy
		return nil
	}
}

// WithProgress reports progress to w. Default is no progress output.
func WithProgress(w io.Writer) Option {
	return func(ix *Indexer) error {
		ix.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Indexer) error {
		if logger == nil {
			logger = slog.Default()
		}
		ix.logger = logger
		return nil
	}
}

// NewIndexer creates an indexer. Call Release when done.
func NewIndexer(repository storage.DocumentRepository, embedder ai.Embedder, opts ...Option) (*Indexer, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	ix := &Indexer{
		repository: repository,
		embedder:   embedder,
		pool:       pool,
		batchSize:  DefaultBatchSize,
		retry:      DefaultRetryPolicy,
		progress:   io.Discard,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(ix); err != nil {
			ix.Release()
			return nil, err
		}
	}
	ix.logger = ix.logger.With("component", "indexer")

	return ix, nil
}

// Index embeds docs and upserts them. It returns the number of documents
// stored. Blank documents and repeats of an earlier document are skipped.
// Batches run concurrently; on failure the batches already written stay
// written and the errors are joined.
func (ix *Indexer) Index(ctx context.Context, docs []*core.Document) (int, error) {
	pending := make([]*core.Document, 0, len(docs))
	seen := make(map[core.ID]bool, len(docs))
	for _, doc := range docs {
		if doc == nil || strings.TrimSpace(doc.Content) == "" {
			continue
		}
		id := doc.Id
		if id == 0 {
			id = core.IDFromContent(doc.Content)
		}
		if seen[id] {
			ix.logger.Debug("skipping duplicate document", "id", id)
			continue
		}
		seen[id] = true
		pending = append(pending, doc)
	}

	return ix.run(ctx, "Indexing", len(pending), func(yield func([]*core.Document) bool) error {
		for start := 0; start < len(pending); start += ix.batchSize {
			end := min(start+ix.batchSize, len(pending))
			if !yield(pending[start:end]) {
				break
			}
		}
		return nil
	})
}

// Reembed recomputes the vector of every stored document, for use after the
// embedding model changes.
func (ix *Indexer) Reembed(ctx context.Context) (int, error) {
	ids, err := ix.repository.ListDocumentIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list documents: %w", err)
	}

	return ix.run(ctx, "Reembedding", len(ids), func(yield func([]*core.Document) bool) error {
		for start := 0; start < len(ids); start += ix.batchSize {
			end := min(start+ix.batchSize, len(ids))
			batch, err := ix.repository.GetDocuments(ctx, ids[start:end]...)
			if err != nil {
				return fmt.Errorf("failed to load documents: %w", err)
			}
			if !yield(batch) {
				break
			}
		}
		return nil
	})
}

// Release stops the worker pool. The indexer must not be used afterwards.
func (ix *Indexer) Release() {
	if ix.pool != nil {
		ix.pool.Release()
	}
}

// run feeds batches from produce to the pool and waits for them all.
func (ix *Indexer) run(ctx context.Context, verb string, total int, produce func(yield func([]*core.Document) bool) error) (int, error) {
	if total == 0 {
		fmt.Fprintf(ix.progress, "No documents to process\n")
		return 0, nil
	}
	fmt.Fprintf(ix.progress, "%s %d documents (batch size: %d)\n", verb, total, ix.batchSize)

	tracker := NewProgressTracker(ix.progress, "documents", total, ix.batchSize)
	tracker.Start()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	fail := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	produceErr := produce(func(batch []*core.Document) bool {
		if err := ctx.Err(); err != nil {
			fail(err)
			return false
		}

		wg.Add(1)
		submitErr := ix.pool.Submit(func() {
			defer wg.Done()
			if err := ix.processBatch(ctx, batch); err != nil {
				ix.logger.Error("batch failed", "size", len(batch), "err", err)
				fail(err)
				return
			}
			tracker.Add(len(batch))
		})
		if submitErr != nil {
			wg.Done()
			fail(submitErr)
			return false
		}
		return true
	})
	if produceErr != nil {
		fail(produceErr)
	}

	wg.Wait()
	tracker.Finish()

	done := tracker.Done()
	elapsed := tracker.Elapsed()
	ix.logger.Info("batch job finished", "verb", verb, "documents", done, "total", total, "elapsed", elapsed.Round(time.Millisecond))

	return done, errors.Join(errs...)
}

// processBatch embeds a batch with retry and stores it.
func (ix *Indexer) processBatch(ctx context.Context, batch []*core.Document) error {
	if len(batch) == 0 {
		return nil
	}

	texts := make([]string, len(batch))
	for i, doc := range batch {
		texts[i] = strings.TrimSpace(doc.Content)
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, ix.retry, func(ctx context.Context) error {
		var err error
		vectors, err = ix.embedder.EmbedTexts(ctx, texts)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", ix.retry.MaxAttempts, err)
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCountMismatch, len(batch), len(vectors))
	}

	for i, doc := range batch {
		doc.Vector = core.NormalizeVector(vectors[i])
	}

	if _, err := ix.repository.AddDocuments(ctx, batch...); err != nil {
		return fmt.Errorf("failed to store documents: %w", err)
	}
	return nil
}

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
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/copilot/ai/mock"
	"github.com/poiesic/copilot/core"
	"github.com/poiesic/copilot/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) *badger.DocumentRepository {
	t.Helper()
	repo, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newIndexer(t *testing.T, repo *badger.DocumentRepository, embedder *mock.MockEmbedder, opts ...Option) *Indexer {
	t.Helper()
	opts = append([]Option{WithRetryPolicy(fastPolicy(3))}, opts...)
	ix, err := NewIndexer(repo, embedder, opts...)
	require.NoError(t, err)
	t.Cleanup(ix.Release)
	return ix
}

func numbered(n int) []*core.Document {
	docs := make([]*core.Document, n)
	for i := range docs {
		docs[i] = &core.Document{Content: fmt.Sprintf("document number %d", i)}
	}
	return docs
}

func TestNewIndexer(t *testing.T) {
	repo := newRepo(t)
	embedder := mock.NewMockEmbedder()

	t.Run("valid configuration", func(t *testing.T) {
		ix, err := NewIndexer(repo, embedder, WithPoolSize(2), WithBatchSize(8), WithLogger(nil))
		require.NoError(t, err)
		defer ix.Release()
		assert.Equal(t, 8, ix.batchSize)
		assert.Equal(t, 2, ix.pool.Cap())
	})

	t.Run("invalid retry policy", func(t *testing.T) {
		_, err := NewIndexer(repo, embedder, WithRetryPolicy(RetryPolicy{}))
		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
	})

	t.Run("nil repository", func(t *testing.T) {
		_, err := NewIndexer(nil, embedder)
		assert.Equal(t, ErrRepositoryRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewIndexer(repo, nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})
}

func TestIndex(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	embedder := mock.NewMockEmbedder()

	var mu sync.Mutex
	var sizes []int
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		mu.Lock()
		sizes = append(sizes, len(texts))
		mu.Unlock()
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{3, 4}
		}
		return vectors, nil
	}

	var progress bytes.Buffer
	ix := newIndexer(t, repo, embedder, WithBatchSize(4), WithPoolSize(3), WithProgress(&progress))

	docs := append(numbered(10), &core.Document{Content: "  "}, nil)
	n, err := ix.Index(ctx, docs)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	sort.Ints(sizes)
	assert.Equal(t, []int{2, 4, 4}, sizes)

	count, err := repo.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, count)

	stored, err := repo.GetDocument(ctx, core.IDFromContent("document number 3"))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.6, 0.8}, stored.Vector, 1e-6)

	assert.Contains(t, progress.String(), "Indexing 10 documents (batch size: 4)")
	assert.Contains(t, progress.String(), "10/10 documents")
}

func TestIndex_EmbedsTrimmedContent(t *testing.T) {
	repo := newRepo(t)
	embedder := mock.NewMockEmbedder()
	ix := newIndexer(t, repo, embedder)

	_, err := ix.Index(context.Background(), []*core.Document{{Content: "  padded  "}})
	require.NoError(t, err)
	assert.Equal(t, []string{"padded"}, embedder.EmbeddedTexts())
}

func TestIndex_SkipsDuplicates(t *testing.T) {
	repo := newRepo(t)
	embedder := mock.NewMockEmbedder()
	ix := newIndexer(t, repo, embedder, WithBatchSize(1))

	n, err := ix.Index(context.Background(), []*core.Document{{Content: "same"}, {Content: "same"}, {Content: "other"}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, embedder.CallCount())
}

func TestIndex_Empty(t *testing.T) {
	var progress bytes.Buffer
	ix := newIndexer(t, newRepo(t), mock.NewMockEmbedder(), WithProgress(&progress))

	n, err := ix.Index(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Contains(t, progress.String(), "No documents to process")
}

func TestIndex_RetriesEmbedding(t *testing.T) {
	repo := newRepo(t)
	embedder := mock.NewMockEmbedder()
	calls := 0
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("rate limited")
		}
		return [][]float32{{1, 0}}, nil
	}
	ix := newIndexer(t, repo, embedder, WithPoolSize(1))

	n, err := ix.Index(context.Background(), numbered(1))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 3, calls)
}

func TestIndex_EmbeddingFailure(t *testing.T) {
	repo := newRepo(t)
	embedder := mock.NewMockEmbedder()
	boom := errors.New("embedding service down")
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, boom
	}
	ix := newIndexer(t, repo, embedder, WithRetryPolicy(fastPolicy(2)))

	n, err := ix.Index(context.Background(), numbered(3))
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, n)

	count, err := repo.CountDocuments(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestIndex_CountMismatch(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1}}, nil
	}
	ix := newIndexer(t, newRepo(t), embedder)

	_, err := ix.Index(context.Background(), numbered(2))
	assert.ErrorIs(t, err, ErrEmbeddingCountMismatch)
}

func TestIndex_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ix := newIndexer(t, newRepo(t), mock.NewMockEmbedder())
	_, err := ix.Index(ctx, numbered(2))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReembed(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	_, err := repo.AddDocuments(ctx,
		&core.Document{Content: "legacy without vector"},
		&core.Document{Content: "old model vector", Vector: []float32{1, 0, 0}},
	)
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	var progress bytes.Buffer
	ix := newIndexer(t, repo, embedder, WithProgress(&progress))

	n, err := ix.Reembed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, content := range []string{"legacy without vector", "old model vector"} {
		doc, err := repo.GetDocument(ctx, core.IDFromContent(content))
		require.NoError(t, err)
		require.Len(t, doc.Vector, mock.DefaultDimension)
		assert.InDelta(t, 1.0, core.CosineSimilarity(doc.Vector, mock.Vector(content)), 1e-5)
	}
	assert.Contains(t, progress.String(), "Reembedding 2 documents")
}

func TestReembed_EmptyStore(t *testing.T) {
	ix := newIndexer(t, newRepo(t), mock.NewMockEmbedder())

	n, err := ix.Reembed(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIndex_SlowBatchesStillComplete(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		time.Sleep(5 * time.Millisecond)
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			vectors[i] = mock.Vector(text)
		}
		return vectors, nil
	}
	ix := newIndexer(t, newRepo(t), embedder, WithBatchSize(2), WithPoolSize(2))

	n, err := ix.Index(context.Background(), numbered(9))
	require.NoError(t, err)
	assert.Equal(t, 9, n)
}

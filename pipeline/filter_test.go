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
	"errors"
	"testing"

	"github.com/poiesic/copilot/ai/mock"
	"github.com/poiesic/copilot/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contents(docs []*core.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Content
	}
	return out
}

func TestNewSimilarityFilter(t *testing.T) {
	f, err := NewSimilarityFilter(mock.NewMockEmbedder())
	require.NoError(t, err)
	assert.NotNil(t, f)

	_, err = NewSimilarityFilter(nil)
	assert.Equal(t, ErrEmbedderRequired, err)
}

func TestFilter_KeepsRetrievalOrder(t *testing.T) {
	f, err := NewSimilarityFilter(queryEmbedder(nil))
	require.NoError(t, err)

	candidates := []*core.Document{doc("A", 0.9), doc("B", 0.5), doc("C", 0.8)}
	kept, err := f.Filter(context.Background(), "q", candidates)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, contents(kept))
}

func TestFilter_DoesNotReorderBySimilarity(t *testing.T) {
	f, err := NewSimilarityFilter(queryEmbedder(nil))
	require.NoError(t, err)

	candidates := []*core.Document{doc("lower", 0.75), doc("higher", 0.99), doc("middle", 0.85)}
	kept, err := f.Filter(context.Background(), "q", candidates)
	require.NoError(t, err)
	assert.Equal(t, []string{"lower", "higher", "middle"}, contents(kept))
}

func TestFilter_Threshold(t *testing.T) {
	f, err := NewSimilarityFilter(queryEmbedder(nil))
	require.NoError(t, err)

	candidates := []*core.Document{doc("below", 0.69), doc("above", 0.71), doc("opposite", -0.9)}
	scored, err := f.Score(context.Background(), "q", candidates)
	require.NoError(t, err)
	require.Len(t, scored, 3)
	for _, sc := range scored {
		kept := sc.Similarity >= SimilarityThreshold
		assert.Equal(t, sc.Document.Content == "above", kept, sc.Document.Content)
	}

	assert.Equal(t, []string{"above"}, contents(Keep(scored)))
}

func TestFilter_SkipsBlankCandidates(t *testing.T) {
	embedder := queryEmbedder(nil)
	f, err := NewSimilarityFilter(embedder)
	require.NoError(t, err)

	candidates := []*core.Document{
		nil,
		{Content: "   \n\t"},
		{Content: ""},
		doc("real", 0.95),
	}
	scored, err := f.Score(context.Background(), "q", candidates)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, "real", scored[0].Document.Content)

	// only the query was embedded
	assert.Equal(t, []string{"q"}, embedder.EmbeddedTexts())
}

func TestFilter_UsesCachedVectors(t *testing.T) {
	embedder := queryEmbedder(nil)
	f, err := NewSimilarityFilter(embedder)
	require.NoError(t, err)

	_, err = f.Filter(context.Background(), "q", []*core.Document{doc("A", 0.9), doc("B", 0.8)})
	require.NoError(t, err)
	assert.Equal(t, 1, embedder.CallCount())
}

func TestFilter_EmbedsLegacyDocuments(t *testing.T) {
	embedder := queryEmbedder(map[string][]float32{
		"legacy close": atSimilarity(0.9),
		"legacy far":   atSimilarity(0.1),
	})
	f, err := NewSimilarityFilter(embedder)
	require.NoError(t, err)

	candidates := []*core.Document{
		{Content: "  legacy close  "},
		{Content: "legacy far"},
		doc("cached", 0.8),
	}
	kept, err := f.Filter(context.Background(), "q", candidates)
	require.NoError(t, err)
	assert.Equal(t, []string{"  legacy close  ", "cached"}, contents(kept))
	assert.Equal(t, []string{"q", "legacy close", "legacy far"}, embedder.EmbeddedTexts())
}

func TestFilter_NoCandidatesSkipsEmbedding(t *testing.T) {
	embedder := queryEmbedder(nil)
	f, err := NewSimilarityFilter(embedder)
	require.NoError(t, err)

	kept, err := f.Filter(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Empty(t, kept)
	assert.Zero(t, embedder.CallCount())
}

func TestFilter_EmbeddingErrorsPropagate(t *testing.T) {
	boom := errors.New("embedding service down")

	t.Run("query", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, boom
		}
		f, err := NewSimilarityFilter(embedder)
		require.NoError(t, err)

		_, err = f.Filter(context.Background(), "q", []*core.Document{doc("A", 0.9)})
		assert.ErrorIs(t, err, ErrEmbedding)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("legacy document", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			if text == "q" {
				return queryVector, nil
			}
			return nil, boom
		}
		f, err := NewSimilarityFilter(embedder)
		require.NoError(t, err)

		_, err = f.Filter(context.Background(), "q", []*core.Document{{Content: "no vector"}})
		assert.ErrorIs(t, err, ErrEmbedding)
		assert.ErrorIs(t, err, boom)
	})
}

func TestFilter_DimensionMismatchIsDropped(t *testing.T) {
	f, err := NewSimilarityFilter(queryEmbedder(nil))
	require.NoError(t, err)

	stale := &core.Document{Content: "stale", Vector: []float32{1, 0, 0}}
	kept, err := f.Filter(context.Background(), "q", []*core.Document{stale})
	require.NoError(t, err)
	assert.Empty(t, kept)
}

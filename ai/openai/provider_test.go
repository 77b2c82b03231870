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

package openai

import (
	"context"
	"testing"

	"github.com/poiesic/copilot/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_InvalidConfig(t *testing.T) {
	cfg := ai.NewConfig(ai.WithCompletionModel(""))

	provider, err := NewProvider(cfg)
	require.Error(t, err)
	assert.Nil(t, provider)
	assert.Contains(t, err.Error(), "CompletionModel")
}

func TestNewProvider(t *testing.T) {
	cfg := ai.NewConfig(ai.WithHost("http://localhost:11434"), ai.WithTemperature(0.5))

	provider, err := NewProvider(cfg)
	require.NoError(t, err)
	defer provider.Close()

	assert.NotNil(t, provider.Embedder())
	completer, ok := provider.Completer().(*Completer)
	require.True(t, ok)
	assert.InDelta(t, 0.5, completer.temperature, 1e-9)
	assert.Equal(t, "http://localhost:11434/v1", cfg.CompletionHost)
}

func TestNewProvider_NilConfigUsesDefaults(t *testing.T) {
	provider, err := NewProvider(nil)
	require.NoError(t, err)

	embedder, ok := provider.Embedder().(*Embedder)
	require.True(t, ok)
	assert.Equal(t, ai.DefaultConfig().EmbeddingModel, embedder.model)
}

func TestEmbedTexts_EmptyBatchMakesNoRequest(t *testing.T) {
	// Nothing listens on this port; any request would fail.
	embedder, err := newEmbedder(ai.NewConfig(ai.WithEmbeddingHost("http://127.0.0.1:1")))
	require.NoError(t, err)

	vectors, err := embedder.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

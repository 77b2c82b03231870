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

package badger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/copilot/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "store")
	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackend_NotADirectory(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0644))

	backend, err := OpenBackend(tmpFile, false)
	assert.Error(t, err)
	assert.Nil(t, backend)
}

func TestOpenBackend_EmptyPath(t *testing.T) {
	backend, err := OpenBackend("", false)
	assert.Error(t, err)
	assert.Nil(t, backend)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	assert.False(t, backend.IsClosed())
	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())
}

func TestFindSimilar_NoDocuments(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	results, err := backend.FindSimilar(context.Background(), []float32{0.1, 0.2, 0.3}, 0.5, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilar_WithDocuments(t *testing.T) {
	repo, err := NewMemoryRepository()
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	_, err = repo.AddDocuments(ctx,
		&core.Document{Content: "Atlas project staffing", Vector: []float32{1, 0, 0}},
		&core.Document{Content: "Atlas project budget", Vector: []float32{0.8, 0.6, 0}},
		&core.Document{Content: "Cafeteria menu", Vector: []float32{0, 0, 1}},
		&core.Document{Content: "Legacy document without vector"},
	)
	require.NoError(t, err)

	t.Run("threshold excludes dissimilar documents", func(t *testing.T) {
		results, err := repo.FindSimilar(ctx, []float32{1, 0, 0}, 0.5, 10)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "Atlas project staffing", results[0].Document.Content)
		assert.Equal(t, "Atlas project budget", results[1].Document.Content)
		assert.InDelta(t, 1.0, results[0].Score, 1e-6)
		assert.InDelta(t, 0.8, results[1].Score, 1e-6)
	})

	t.Run("limit truncates", func(t *testing.T) {
		results, err := repo.FindSimilar(ctx, []float32{1, 0, 0}, 0.0, 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "Atlas project staffing", results[0].Document.Content)
	})

	t.Run("non-positive limit returns all vector matches", func(t *testing.T) {
		results, err := repo.FindSimilar(ctx, []float32{1, 0, 0}, -1.0, 0)
		require.NoError(t, err)
		assert.Len(t, results, 3)
	})
}

func TestFindSimilar_CanceledContext(t *testing.T) {
	repo, err := NewMemoryRepository()
	require.NoError(t, err)
	defer repo.Close()

	_, err = repo.AddDocuments(context.Background(), &core.Document{Content: "x", Vector: []float32{1}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = repo.FindSimilar(ctx, []float32{1}, 0, 10)
	assert.ErrorIs(t, err, context.Canceled)
}

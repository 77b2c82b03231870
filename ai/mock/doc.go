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

// Package mock provides test doubles for ai.Embedder, ai.Completer
// and ai.AIProvider. The mocks let tests run without external model services.
//
// # Usage in Tests
//
//	provider := mock.NewMockProvider()
//	provider.GetMockCompleter().Response = "Marie manages Atlas."
//
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{1, 0, 0}, nil
//	}
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors derived from a text hash (see Vector)
//   - MockCompleter: Returns the canned Response and records every prompt
//   - MockProvider: Aggregates a mock embedder and completer
package mock

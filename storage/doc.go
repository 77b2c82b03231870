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

// Package storage provides the storage abstraction layer for the copilot
// document store.
//
// This package defines repository interfaces that decouple the retrieval code
// from the storage implementation. The only production backend is BadgerDB
// (storage/badger); an in-memory Badger instance is used in tests.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return the concrete repository type
// with a compile-time assertion that it satisfies the interface:
//
//	var _ storage.DocumentRepository = (*DocumentRepository)(nil)
//
// Consumers (search, ingestion) accept storage.DocumentRepository so tests can
// substitute any implementation.
//
// # Cached Vectors
//
// Documents carry the embedding computed when they were indexed. FindSimilar
// scores those cached vectors; nothing in this package calls an embedder.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context. Pass context.Background()
// for operations without specific timeout requirements.
package storage

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

// Package search retrieves candidate documents for a query.
//
// A Retriever returns at most k documents ranked by relevance. Two
// implementations are provided:
//   - HybridSearcher combines semantic search over cached document vectors
//     with lexical matching through the term index, plus a verbatim boost
//     when every query term appears in a document
//   - VectorSearcher ranks purely by vector similarity
//
// Both may return fewer than k documents. An empty result is not an error.
package search

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

// Package pipeline turns a free-text question into a grounded answer.
//
// A query flows through a fixed sequence of stages:
//
//	Retriever.Search -> SimilarityFilter -> Pack -> Assemble -> Completer.Complete -> Sanitize
//
// Retrieval failures and empty results degrade to the NoDocumentsFound
// context and the query still reaches the completion model. Embedding and
// completion failures are returned to the caller wrapped in ErrEmbedding and
// ErrCompletion.
//
// The filter gates candidates on cosine similarity to the query (see
// SimilarityThreshold) but never reorders them: the retriever's ranking is
// kept. Documents are scored against their cached vectors; only documents
// stored without one are embedded at query time.
//
// # Usage
//
//	p, err := pipeline.New(retriever, provider.Embedder(), provider.Completer(),
//	    pipeline.WithResultCount(10),
//	    pipeline.WithMaxContextLength(4096),
//	)
//	answer, err := p.Execute(ctx, pipeline.Input{Query: "Who manages Atlas?"})
package pipeline

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

// Package ingestion seeds the document store.
//
// LoadDocuments reads .jsonl, .txt and .md files into documents. An Indexer
// then embeds them in batches on a worker pool, retrying failed embedding
// calls with exponential backoff, and upserts them together with their
// normalized vectors. Reembed refreshes the vectors of everything already
// stored, for use after switching embedding models.
//
//	docs, err := ingestion.LoadDocuments("resources.jsonl")
//	ix, err := ingestion.NewIndexer(repo, provider.Embedder(), ingestion.WithProgress(os.Stderr))
//	defer ix.Release()
//	n, err := ix.Index(ctx, docs)
package ingestion

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
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/copilot/core"
	"github.com/poiesic/copilot/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
// It owns the backend and closes it on Close.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository on top of backend.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &DocumentRepository{backend: backend}, nil
}

// Close closes the underlying backend.
func (r *DocumentRepository) Close() error {
	return r.backend.Close()
}

// FindSimilar delegates to the backend.
func (r *DocumentRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	return r.backend.FindSimilar(ctx, vector, minSimilarity, limit)
}

// AddDocuments upserts one or more documents and their term postings.
func (r *DocumentRepository) AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	for _, doc := range docs {
		if err := core.ValidateDocument(doc); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, doc := range docs {
			if doc.Id == 0 {
				doc.Id = core.IDFromContent(doc.Content)
			}
			key := makeDocumentKey(doc.Id)

			// Drop postings of the version being replaced
			old, err := r.readDocument(tx, key)
			if err != nil {
				return err
			}
			if old != nil {
				if err := r.deleteTermIndex(tx, old); err != nil {
					return err
				}
			}

			doc.InsertedAt = time.Now().UTC()
			if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
				return err
			}

			if err := r.updateTermIndex(tx, doc); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	return docs, nil
}

// DeleteDocuments removes documents by their IDs.
func (r *DocumentRepository) DeleteDocuments(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeDocumentKey(id)

			doc, err := r.readDocument(tx, key)
			if err != nil {
				return err
			}
			if doc == nil {
				return storage.ErrNotFound
			}

			if err := r.deleteTermIndex(tx, doc); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetDocuments retrieves multiple documents by their IDs.
func (r *DocumentRepository) GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error) {
	results := make([]*core.Document, 0, len(ids))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			doc, err := r.readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if doc != nil {
				results = append(results, doc)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ListDocumentIDs returns every stored document ID in key order.
func (r *DocumentRepository) ListDocumentIDs(ctx context.Context) ([]core.ID, error) {
	var ids []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			raw := strings.TrimPrefix(string(iter.Item().Key()), documentPrefix)
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				r.backend.logger.Warn("skipping malformed document key", "key", raw, "err", err)
				continue
			}
			ids = append(ids, core.ID(id))
		}
		return nil
	}, false)
	return ids, err
}

// CountDocuments returns the number of stored documents.
func (r *DocumentRepository) CountDocuments(ctx context.Context) (int, error) {
	ids, err := r.ListDocumentIDs(ctx)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// FindByTerms scores documents by the fraction of terms found in the term index.
// A limit <= 0 returns every match.
func (r *DocumentRepository) FindByTerms(ctx context.Context, terms []string, limit int) ([]*core.SearchResult, error) {
	if len(terms) == 0 {
		return []*core.SearchResult{}, nil
	}

	var results []*core.SearchResult
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		hits := make(map[core.ID]int)
		for _, term := range terms {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = makePartialTermKey(term)
			opts.PrefetchValues = false
			iter := tx.NewIterator(opts)
			for iter.Rewind(); iter.Valid(); iter.Next() {
				if id, ok := idFromTermKey(iter.Item().Key()); ok {
					hits[id]++
				}
			}
			iter.Close()
		}

		results = make([]*core.SearchResult, 0, len(hits))
		for id, count := range hits {
			doc, err := r.readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if doc == nil {
				continue
			}
			results = append(results, &core.SearchResult{
				Document: doc,
				Score:    float32(count) / float32(len(terms)),
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	sortResults(results)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// readDocument returns nil, nil when the key doesn't exist.
func (r *DocumentRepository) readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var err error
		doc, err = storage.UnmarshalDocument(val)
		return err
	})
	return doc, err
}

func (r *DocumentRepository) updateTermIndex(tx *badger.Txn, doc *core.Document) error {
	for _, term := range core.Terms(doc.Content) {
		if err := tx.Set(makeTermKey(term, doc.Id), nil); err != nil {
			return err
		}
	}
	return nil
}

func (r *DocumentRepository) deleteTermIndex(tx *badger.Txn, doc *core.Document) error {
	for _, term := range core.Terms(doc.Content) {
		if err := tx.Delete(makeTermKey(term, doc.Id)); err != nil {
			return err
		}
	}
	return nil
}

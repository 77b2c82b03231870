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
	"math"

	"github.com/poiesic/copilot/ai/mock"
	"github.com/poiesic/copilot/core"
)

// queryVector is what queryEmbedder returns for every query.
var queryVector = []float32{1, 0}

// atSimilarity returns a unit vector whose cosine similarity to queryVector is sim.
func atSimilarity(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))}
}

// queryEmbedder embeds every text as queryVector unless it is listed in docs.
func queryEmbedder(docs map[string][]float32) *mock.MockEmbedder {
	m := mock.NewMockEmbedder()
	m.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if v, ok := docs[text]; ok {
			return v, nil
		}
		return queryVector, nil
	}
	return m
}

func doc(content string, sim float64) *core.Document {
	return &core.Document{
		Id:      core.IDFromContent(content),
		Content: content,
		Vector:  atSimilarity(sim),
	}
}

// stubRetriever is a search.Retriever returning fixed results.
type stubRetriever struct {
	docs  []*core.Document
	err   error
	calls []int
}

func (s *stubRetriever) Search(ctx context.Context, query string, k int) ([]*core.Document, error) {
	s.calls = append(s.calls, k)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.docs) > k {
		return s.docs[:k], nil
	}
	return s.docs, nil
}

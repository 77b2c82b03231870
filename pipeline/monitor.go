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
	"fmt"
	"io"
	"strings"

	"github.com/poiesic/copilot/core"
)

// Monitor receives callbacks at each stage of a query.
type Monitor interface {
	Start(query string)
	AfterRetrieval(candidates []*core.Document, err error)
	AfterFilter(scored []core.ScoredCandidate, kept []*core.Document)
	AfterPack(packed core.Context)
	AfterCompletion(raw string)
	Finish(answer string, err error)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                           {}
func (n *noopMonitor) AfterRetrieval(_ []*core.Document, _ error)               {}
func (n *noopMonitor) AfterFilter(_ []core.ScoredCandidate, _ []*core.Document) {}
func (n *noopMonitor) AfterPack(_ core.Context)                                 {}
func (n *noopMonitor) AfterCompletion(_ string)                                 {}
func (n *noopMonitor) Finish(_ string, _ error)                                 {}

// TraceMonitor writes a readable account of each stage to a writer.
type TraceMonitor struct {
	w io.Writer
}

var _ Monitor = (*TraceMonitor)(nil)

// NewTraceMonitor creates a monitor that writes to w.
func NewTraceMonitor(w io.Writer) *TraceMonitor {
	return &TraceMonitor{w: w}
}

func (m *TraceMonitor) Start(query string) {
	fmt.Fprintf(m.w, "== query: %q\n", query)
}

func (m *TraceMonitor) AfterRetrieval(candidates []*core.Document, err error) {
	if err != nil {
		fmt.Fprintf(m.w, "== retrieval failed: %v\n", err)
		return
	}
	fmt.Fprintf(m.w, "== retrieved %d candidates\n", len(candidates))
}

func (m *TraceMonitor) AfterFilter(scored []core.ScoredCandidate, kept []*core.Document) {
	fmt.Fprintf(m.w, "== similarity (threshold %.2f)\n", SimilarityThreshold)
	for _, sc := range scored {
		verdict := "drop"
		if sc.Similarity >= SimilarityThreshold {
			verdict = "keep"
		}
		fmt.Fprintf(m.w, "  %s %.3f %s\n", verdict, sc.Similarity, preview(sc.Document.Content))
	}
	fmt.Fprintf(m.w, "== kept %d of %d\n", len(kept), len(scored))
}

func (m *TraceMonitor) AfterPack(packed core.Context) {
	fmt.Fprintf(m.w, "== packed %d documents, %d characters\n", len(packed.Parts), packed.TotalLength)
}

func (m *TraceMonitor) AfterCompletion(raw string) {
	fmt.Fprintf(m.w, "== raw completion (%d bytes)\n%s\n", len(raw), raw)
}

func (m *TraceMonitor) Finish(answer string, err error) {
	if err != nil {
		fmt.Fprintf(m.w, "== failed: %v\n", err)
		return
	}
	fmt.Fprintf(m.w, "== answer (%d bytes)\n", len(answer))
}

func preview(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	const max = 60
	if r := []rune(content); len(r) > max {
		return string(r[:max]) + "..."
	}
	return content
}

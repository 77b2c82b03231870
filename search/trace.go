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

package search

import (
	"fmt"
	"io"
	"strings"

	"github.com/poiesic/copilot/core"
)

// TraceMonitor writes a human-readable account of a search to a writer.
type TraceMonitor struct {
	w io.Writer
}

var _ SearchMonitor = (*TraceMonitor)(nil)

// NewTraceMonitor creates a monitor that writes to w.
func NewTraceMonitor(w io.Writer) *TraceMonitor {
	return &TraceMonitor{w: w}
}

func (m *TraceMonitor) Start(query string) {
	fmt.Fprintf(m.w, "query: %q\n", query)
}

func (m *TraceMonitor) AfterVectorSearch(results []*core.SearchResult) {
	fmt.Fprintf(m.w, "vector matches: %d\n", len(results))
}

func (m *TraceMonitor) AfterTermSearch(terms []string, results []*core.SearchResult) {
	fmt.Fprintf(m.w, "terms [%s] matched %d documents\n", strings.Join(terms, " "), len(results))
}

func (m *TraceMonitor) VectorAndTermHit(doc *core.Document) {
	fmt.Fprintf(m.w, "  vector+term %d\n", doc.Id)
}

func (m *TraceMonitor) VectorHit(doc *core.Document) {
	fmt.Fprintf(m.w, "  vector      %d\n", doc.Id)
}

func (m *TraceMonitor) TermHit(doc *core.Document) {
	fmt.Fprintf(m.w, "  term        %d\n", doc.Id)
}

func (m *TraceMonitor) VerbatimHit(doc *core.Document) {
	fmt.Fprintf(m.w, "  verbatim    %d\n", doc.Id)
}

func (m *TraceMonitor) Finish(results []*core.SearchResult) {
	fmt.Fprintf(m.w, "results: %d\n", len(results))
}

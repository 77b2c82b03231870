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
	"github.com/poiesic/copilot/core"
)

// SearchMonitor receives callbacks at each stage of a hybrid search.
// Used by the CLI to explain why documents ranked where they did.
type SearchMonitor interface {
	Start(query string)
	AfterVectorSearch(results []*core.SearchResult)
	AfterTermSearch(terms []string, results []*core.SearchResult)
	VectorAndTermHit(doc *core.Document)
	VectorHit(doc *core.Document)
	TermHit(doc *core.Document)
	VerbatimHit(doc *core.Document)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                     {}
func (n *noopMonitor) AfterVectorSearch(_ []*core.SearchResult)           {}
func (n *noopMonitor) AfterTermSearch(_ []string, _ []*core.SearchResult) {}
func (n *noopMonitor) VectorAndTermHit(_ *core.Document)                  {}
func (n *noopMonitor) VectorHit(_ *core.Document)                         {}
func (n *noopMonitor) TermHit(_ *core.Document)                           {}
func (n *noopMonitor) VerbatimHit(_ *core.Document)                       {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)                      {}

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

import "github.com/poiesic/copilot/core"

// containsAllTerms checks if every query term appears in the document.
func containsAllTerms(document string, queryTerms []string) bool {
	if len(queryTerms) == 0 {
		return false
	}

	docTerms := core.Terms(document)
	docTermSet := make(map[string]bool, len(docTerms))
	for _, term := range docTerms {
		docTermSet[term] = true
	}

	for _, term := range queryTerms {
		if !docTermSet[term] {
			return false
		}
	}
	return true
}

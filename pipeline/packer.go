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
	"strings"
	"unicode/utf8"

	"github.com/poiesic/copilot/core"
)

const (
	// NoDocumentsFound is the context used when nothing survives retrieval,
	// filtering and packing.
	NoDocumentsFound = "No relevant documents found."

	// DefaultMaxContextLength is the default context budget in characters.
	DefaultMaxContextLength = 4096

	partSeparator = "\n\n"
)

// PackContext accepts documents in order until the next one would push the
// total content length past maxLength. Lengths count characters of the trimmed
// content; separators are not counted. Blank documents are skipped.
func PackContext(documents []*core.Document, maxLength int) core.Context {
	packed := core.Context{Parts: []string{}}
	for _, doc := range documents {
		if doc == nil {
			continue
		}
		content := strings.TrimSpace(doc.Content)
		if content == "" {
			continue
		}

		n := utf8.RuneCountInString(content)
		if packed.TotalLength+n > maxLength {
			break
		}
		packed.Parts = append(packed.Parts, content)
		packed.TotalLength += n
	}
	return packed
}

// Pack renders the packed documents as a single context string, or
// NoDocumentsFound when none fit.
func Pack(documents []*core.Document, maxLength int) string {
	return Render(PackContext(documents, maxLength))
}

// Render joins the parts of c with blank lines.
func Render(c core.Context) string {
	if len(c.Parts) == 0 {
		return NoDocumentsFound
	}
	return strings.Join(c.Parts, partSeparator)
}

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

import "strings"

// PromptTemplate is the instruction template sent to the completion model.
// {query} and {context} are replaced by Assemble.
const PromptTemplate = `
Assume I am a Resource Manager at Schneider Electric. I have data about the projects my teams work on,
the human resources involved, and the organizations to which these resources belong. Can you help me find and use this information to answer natural questions
and retrieve the most relevant details? If the information is not available, please state that clearly and do not provide incorrect information.

Consider synonyms and related terms for better understanding. For example, "managing" can also mean "manager of", "leading", "overseeing", or "supervising".
Consider synonyms and related terms for better understanding. For example, "capacity" refers to "Current Availability of resources".
Consider synonyms and related terms for better understanding. For example, "internal resources" refers to "resources with Contract Type as internal".

Query:
{query}
Context:
{context}

Answer:
`

// Assemble substitutes the trimmed query and the context into PromptTemplate.
// Substitution is single-pass: placeholders appearing inside query or context
// are left as they are.
func Assemble(query, context string) string {
	r := strings.NewReplacer("{query}", strings.TrimSpace(query), "{context}", context)
	return r.Replace(PromptTemplate)
}

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
	"unicode"
)

// TruncationRule maps a completion to a (possibly) shorter prefix of itself.
type TruncationRule func(text string) string

var (
	// echoMarkers are template sections the model sometimes repeats.
	echoMarkers = []string{"\nQuery:", "\nContext:", "\nQUERY:", "\nCONTEXT:"}

	// unsolicitedPhrases open advice the answer should not contain.
	unsolicitedPhrases = []string{"I recommend", "You could try", "suggestions:"}

	defaultRules = DefaultRules()
)

// CutAtMarker truncates text before the first occurrence of marker.
func CutAtMarker(marker string) TruncationRule {
	return func(text string) string {
		before, _, _ := strings.Cut(text, marker)
		return before
	}
}

// CutAtPhrase truncates text before the first occurrence of phrase and drops
// the whitespace left at the end.
func CutAtPhrase(phrase string) TruncationRule {
	return func(text string) string {
		before, _, found := strings.Cut(text, phrase)
		if !found {
			return text
		}
		return strings.TrimRightFunc(before, unicode.IsSpace)
	}
}

// DefaultRules returns the sanitizer's rules in application order: echoed
// template markers first, then unsolicited-advice phrases.
func DefaultRules() []TruncationRule {
	rules := make([]TruncationRule, 0, len(echoMarkers)+len(unsolicitedPhrases))
	for _, m := range echoMarkers {
		rules = append(rules, CutAtMarker(m))
	}
	for _, p := range unsolicitedPhrases {
		rules = append(rules, CutAtPhrase(p))
	}
	return rules
}

// ApplyRules folds rules over text, each rule receiving the previous output.
func ApplyRules(text string, rules []TruncationRule) string {
	for _, rule := range rules {
		text = rule(text)
	}
	return text
}

// Sanitize strips echoed prompt sections and trailing advice from a raw
// completion. Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(ApplyRules(raw, defaultRules))
}

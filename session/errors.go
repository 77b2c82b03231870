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

package session

import "errors"

var (
	// ErrEmptyQuestion is returned when the submitted text is blank.
	ErrEmptyQuestion = errors.New("empty question")

	// ErrDuplicateQuestion is returned when the submitted text repeats the last accepted question.
	ErrDuplicateQuestion = errors.New("duplicate question")
)

// Notice returns the user-facing message for an input error, or "" for any
// other error (including nil).
func Notice(err error) string {
	switch {
	case errors.Is(err, ErrEmptyQuestion):
		return "Please enter a question."
	case errors.Is(err, ErrDuplicateQuestion):
		return "You already asked this question."
	default:
		return ""
	}
}

// IsUserError reports whether err is an input error rather than a pipeline failure.
func IsUserError(err error) bool {
	return errors.Is(err, ErrEmptyQuestion) || errors.Is(err, ErrDuplicateQuestion)
}

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

// Package session holds the state of one interactive conversation.
//
// State is a value: Submit takes the current state and returns the next one,
// so callers own it and no state is shared between sessions. A question is
// rejected without reaching the pipeline when it is blank or repeats the
// previous accepted question verbatim (after trimming).
//
//	state := session.New()
//	state, err = state.Submit(ctx, p, "Who manages Atlas?")
//	if msg := session.Notice(err); msg != "" {
//	    fmt.Println(msg)
//	}
package session

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

import (
	"context"
	"log/slog"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/poiesic/copilot/core"
	"github.com/poiesic/copilot/pipeline"
)

// Executor answers one question. *pipeline.Pipeline implements it.
type Executor interface {
	Execute(ctx context.Context, in pipeline.Input) (string, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, in pipeline.Input) (string, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, in pipeline.Input) (string, error) {
	return f(ctx, in)
}

var _ Executor = (*pipeline.Pipeline)(nil)

// State is the history and duplicate guard of one conversation.
type State struct {
	// ID identifies the session in logs.
	ID string

	// History is every answered turn, oldest first. It is only ever appended to.
	History []core.ChatTurn

	// LastQuestion is the trimmed text of the most recently accepted question.
	LastQuestion string
}

// New starts an empty session with a fresh ID.
func New() State {
	return State{ID: ulid.Make().String()}
}

// Submit processes text and returns the next state.
//
// Blank text yields ErrEmptyQuestion and a repeat of LastQuestion yields
// ErrDuplicateQuestion; in both cases exec is not called and s is returned
// unchanged. Otherwise LastQuestion is updated and exec runs. On success the
// turn is appended to History; on failure the error is returned together with
// the updated LastQuestion and the previous History.
func (s State) Submit(ctx context.Context, exec Executor, text string) (State, error) {
	logger := slog.Default().With("component", "session", "session", s.ID)

	question := strings.TrimSpace(text)
	if question == "" {
		return s, ErrEmptyQuestion
	}
	if question == s.LastQuestion {
		logger.Debug("duplicate question ignored", "question", question)
		return s, ErrDuplicateQuestion
	}

	next := s
	next.LastQuestion = question

	answer, err := exec.Execute(ctx, pipeline.Input{Query: question})
	if err != nil {
		logger.Error("question failed", "question", question, "err", err)
		return next, err
	}

	history := make([]core.ChatTurn, len(s.History), len(s.History)+1)
	copy(history, s.History)
	next.History = append(history, core.ChatTurn{User: question, Response: answer})

	logger.Debug("question answered", "turns", len(next.History))
	return next, nil
}

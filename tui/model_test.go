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

package tui

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/copilot/pipeline"
	"github.com/poiesic/copilot/session"
)

var enter = tea.KeyMsg{Type: tea.KeyEnter}

func newSizedModel(t *testing.T, exec session.Executor) Model {
	t.Helper()
	updated, _ := New(context.Background(), exec).Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model)
}

// answerFrom runs the commands returned by a submit and returns the answer message.
func answerFrom(t *testing.T, cmd tea.Cmd) answerMsg {
	t.Helper()
	require.NotNil(t, cmd)

	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok, "submit should return a batch")
	for _, c := range batch {
		if c == nil {
			continue
		}
		if msg, ok := c().(answerMsg); ok {
			return msg
		}
	}
	t.Fatal("no answer in batch")
	return answerMsg{}
}

func ask(t *testing.T, m Model, text string) Model {
	t.Helper()
	m.input.SetValue(text)
	updated, cmd := m.Update(enter)
	m = updated.(Model)
	assert.True(t, m.Processing())

	updated, _ = m.Update(answerFrom(t, cmd))
	m = updated.(Model)
	assert.False(t, m.Processing())
	return m
}

func echo(calls *atomic.Int32) session.Executor {
	return session.ExecutorFunc(func(_ context.Context, in pipeline.Input) (string, error) {
		calls.Add(1)
		return "answer to " + in.Query, nil
	})
}

func TestViewBeforeResize(t *testing.T) {
	m := New(context.Background(), session.ExecutorFunc(nil))
	assert.Equal(t, "Loading...", m.View())
}

func TestSubmitAppendsTurnAndClearsInput(t *testing.T) {
	var calls atomic.Int32
	m := newSizedModel(t, echo(&calls))

	m = ask(t, m, "  who leads Atlas?  ")

	require.Len(t, m.State().History, 1)
	assert.Equal(t, "who leads Atlas?", m.State().History[0].User)
	assert.Equal(t, "answer to who leads Atlas?", m.State().History[0].Response)
	assert.Empty(t, m.input.Value())
	assert.Empty(t, m.status)
	assert.EqualValues(t, 1, calls.Load())

	view := m.View()
	assert.Contains(t, view, "You:")
	assert.Contains(t, view, "Copilot:")
}

func TestDuplicateShowsNotice(t *testing.T) {
	var calls atomic.Int32
	m := newSizedModel(t, echo(&calls))

	m = ask(t, m, "who leads Atlas?")
	m = ask(t, m, "who leads Atlas?")

	assert.Len(t, m.State().History, 1)
	assert.Equal(t, "You already asked this question.", m.status)
	assert.Equal(t, "who leads Atlas?", m.input.Value())
	assert.EqualValues(t, 1, calls.Load())
}

func TestEmptyShowsNotice(t *testing.T) {
	var calls atomic.Int32
	m := newSizedModel(t, echo(&calls))

	m = ask(t, m, "   ")

	assert.Empty(t, m.State().History)
	assert.Equal(t, "Please enter a question.", m.status)
	assert.False(t, m.isError)
	assert.Zero(t, calls.Load())
}

func TestExecutorErrorKeepsInput(t *testing.T) {
	failing := session.ExecutorFunc(func(context.Context, pipeline.Input) (string, error) {
		return "", errors.New("model offline")
	})
	m := newSizedModel(t, failing)

	m = ask(t, m, "who leads Atlas?")

	assert.Empty(t, m.State().History)
	assert.Equal(t, "who leads Atlas?", m.State().LastQuestion)
	assert.True(t, m.isError)
	assert.Contains(t, m.status, "model offline")
	assert.Equal(t, "who leads Atlas?", m.input.Value())
}

func TestInputIgnoredWhileProcessing(t *testing.T) {
	var calls atomic.Int32
	m := newSizedModel(t, echo(&calls))

	m.input.SetValue("first")
	updated, _ := m.Update(enter)
	m = updated.(Model)
	require.True(t, m.Processing())

	updated, cmd := m.Update(enter)
	m = updated.(Model)
	assert.Nil(t, cmd)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	m = updated.(Model)
	assert.Equal(t, "first", m.input.Value())
}

func TestCtrlCQuits(t *testing.T) {
	m := newSizedModel(t, session.ExecutorFunc(nil))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

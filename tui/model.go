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

// Package tui is the interactive chat front end.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/poiesic/copilot/session"
)

const (
	title      = "RM Copilot"
	inputLines = 3
	minWidth   = 20
)

var (
	historyBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle      = lipgloss.NewStyle().Bold(true)
	userStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	copilotStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	noticeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// answerMsg carries the outcome of a submission back to the model.
type answerMsg struct {
	state session.State
	err   error
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	ctx        context.Context
	exec       session.Executor
	state      session.State
	input      textarea.Model
	viewport   viewport.Model
	spinner    spinner.Model
	processing bool
	status     string
	isError    bool
	ready      bool
}

// New creates a chat model answering through exec.
func New(ctx context.Context, exec session.Executor) Model {
	ta := textarea.New()
	ta.Placeholder = "Enter your question and press Enter"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(inputLines)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:      ctx,
		exec:     exec,
		state:    session.New(),
		input:    ta,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		status:   "How can I help you?",
	}
}

// State returns the current session state.
func (m Model) State() session.State {
	return m.state
}

// Processing reports whether a question is in flight.
func (m Model) Processing() bool {
	return m.processing
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd { return textarea.Blink }

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.resize(msg.Width, msg.Height)
		return m, nil

	case answerMsg:
		return m.receive(msg), nil

	case spinner.TickMsg:
		if !m.processing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		if m.processing {
			return m, nil
		}
		if msg.Type == tea.KeyEnter {
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit hands the current input to the session in the background.
func (m Model) submit() (tea.Model, tea.Cmd) {
	ctx, exec, state, text := m.ctx, m.exec, m.state, m.input.Value()

	m.processing = true
	m.status = "Thinking..."
	m.isError = false

	ask := func() tea.Msg {
		next, err := state.Submit(ctx, exec, text)
		return answerMsg{state: next, err: err}
	}
	return m, tea.Batch(ask, m.spinner.Tick)
}

func (m Model) receive(msg answerMsg) Model {
	m.processing = false
	m.state = msg.state

	switch {
	case msg.err == nil:
		m.status = ""
		m.isError = false
		m.input.Reset()
	case session.IsUserError(msg.err):
		m.status = session.Notice(msg.err)
		m.isError = false
	default:
		m.status = "Error: " + msg.err.Error()
		m.isError = true
	}

	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
	return m
}

func (m *Model) resize(width, height int) {
	hw, hh := historyBoxStyle.GetFrameSize()
	iw, ih := inputBoxStyle.GetFrameSize()

	reserved := 1 + 1 + inputLines + ih + hh // title + status
	m.viewport.Width = max(minWidth, width-hw)
	m.viewport.Height = max(3, height-reserved)
	m.input.SetWidth(max(minWidth, width-iw))
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

// View renders the title, history, input box and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	status := hintStyle.Render(m.status)
	switch {
	case m.processing:
		status = m.spinner.View() + " " + m.status
	case m.isError:
		status = errorStyle.Render(m.status)
	case m.status != "":
		status = noticeStyle.Render(m.status)
	}

	return strings.Join([]string{
		titleStyle.Render(title),
		historyBoxStyle.Render(m.viewport.View()),
		inputBoxStyle.Render(m.input.View()),
		status,
	}, "\n")
}

func (m Model) renderHistory() string {
	if len(m.state.History) == 0 {
		return hintStyle.Render("No questions yet.")
	}

	wrap := lipgloss.NewStyle().Width(max(minWidth, m.viewport.Width))
	var b strings.Builder
	for i, turn := range m.state.History {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(wrap.Render(fmt.Sprintf("%s %s", userStyle.Render("You:"), turn.User)))
		b.WriteString("\n")
		b.WriteString(wrap.Render(fmt.Sprintf("%s %s", copilotStyle.Render("Copilot:"), turn.Response)))
	}
	return b.String()
}

// Run starts the chat screen and blocks until the user quits.
func Run(ctx context.Context, exec session.Executor) error {
	_, err := tea.NewProgram(New(ctx, exec), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

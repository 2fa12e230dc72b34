package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/kbchat/internal/domain/entities"
)

// fakeSession mimics ChatSession's transcript handling.
type fakeSession struct {
	transcript *entities.Transcript
	answer     string
	err        error
	submitted  []string
}

func newFakeSession() *fakeSession {
	return &fakeSession{transcript: entities.NewTranscript(), answer: "42"}
}

func (f *fakeSession) Submit(ctx context.Context, text string) (*entities.ChatResult, error) {
	f.submitted = append(f.submitted, text)
	f.transcript.Append(entities.AuthorUser, text)
	f.transcript.Append(entities.AuthorSystem, entities.ThinkingPlaceholder)
	if f.err != nil {
		return nil, f.err
	}
	f.transcript.Append(entities.AuthorSystem, f.answer)
	return &entities.ChatResult{Query: text, Answer: f.answer}, nil
}

func (f *fakeSession) Transcript() *entities.Transcript { return f.transcript }

// runAnswer executes the batched command and returns the answer message.
func runAnswer(t *testing.T, cmd tea.Cmd) answerMsg {
	t.Helper()
	require.NotNil(t, cmd)
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	for _, c := range batch {
		if c == nil {
			continue
		}
		if msg, ok := c().(answerMsg); ok {
			return msg
		}
	}
	t.Fatal("no answerMsg in batch")
	return answerMsg{}
}

func typeAndSubmit(m *Model, text string) tea.Cmd {
	m.input.SetValue(text)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

func TestModel_SubmitAndAnswer(t *testing.T) {
	session := newFakeSession()
	m := NewModel(context.Background(), session)

	cmd := typeAndSubmit(m, "  what is the answer?  ")
	assert.True(t, m.Waiting())
	assert.Empty(t, m.input.Value())

	msg := runAnswer(t, cmd)
	require.NoError(t, msg.err)
	assert.Equal(t, []string{"what is the answer?"}, session.submitted)

	m.Update(msg)
	assert.False(t, m.Waiting())
	assert.Contains(t, m.renderTranscript(), "42")
}

func TestModel_BlankInputIgnored(t *testing.T) {
	session := newFakeSession()
	m := NewModel(context.Background(), session)

	cmd := typeAndSubmit(m, "   ")

	assert.Nil(t, cmd)
	assert.False(t, m.Waiting())
	assert.Empty(t, session.submitted)
}

func TestModel_InputDisabledWhileWaiting(t *testing.T) {
	session := newFakeSession()
	m := NewModel(context.Background(), session)

	typeAndSubmit(m, "first")
	require.True(t, m.Waiting())

	cmd := typeAndSubmit(m, "second")
	assert.Nil(t, cmd)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Equal(t, "second", m.input.Value())
}

func TestModel_FailureKeepsPlaceholder(t *testing.T) {
	session := newFakeSession()
	session.err = &entities.GenerationError{Query: "q", Err: errors.New("model offline")}
	m := NewModel(context.Background(), session)

	msg := runAnswer(t, typeAndSubmit(m, "q"))
	m.Update(msg)

	assert.False(t, m.Waiting())
	assert.Contains(t, m.View(), "model offline")

	rendered := m.renderTranscript()
	assert.True(t, strings.HasSuffix(strings.TrimSpace(rendered), entities.ThinkingPlaceholder))
}

func TestModel_WindowResize(t *testing.T) {
	m := NewModel(context.Background(), newFakeSession())

	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	assert.Equal(t, 100, m.viewport.Width)
	assert.Equal(t, 26, m.viewport.Height)
}

func TestModel_Quit(t *testing.T) {
	m := NewModel(context.Background(), newFakeSession())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_EmptyTranscript(t *testing.T) {
	m := NewModel(context.Background(), newFakeSession())
	assert.Contains(t, m.renderTranscript(), "No messages yet.")
}

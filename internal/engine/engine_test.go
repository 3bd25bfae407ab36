package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/domain"
)

type stubModel struct {
	reply string
	err   error
	calls int
	got   []domain.Message
}

func (m *stubModel) Complete(ctx context.Context, messages []domain.Message) (string, error) {
	m.calls++
	m.got = append([]domain.Message(nil), messages...)
	return m.reply, m.err
}

func TestProcessTurnInjectsContextAsSystemMessage(t *testing.T) {
	model := &stubModel{reply: "Yes, hire them."}
	e := New(model, "")

	prior := []domain.Message{{Role: domain.RoleUser, Content: "Hire them?"}}
	msg, err := e.ProcessTurn(context.Background(), prior, "5 years experience.")
	require.NoError(t, err)

	require.Len(t, model.got, 2)
	assert.Equal(t, domain.RoleSystem, model.got[0].Role)
	assert.Contains(t, model.got[0].Content, "5 years experience.")
	assert.True(t, strings.HasPrefix(model.got[0].Content, DefaultPersona))
	assert.Equal(t, prior[0], model.got[1])

	assert.Equal(t, domain.RoleAssistant, msg.Role)
	assert.Equal(t, "Yes, hire them.", msg.Content)
	assert.Equal(t, 1, model.calls)
}

func TestProcessTurnWithoutContextPassesMessagesUnmodified(t *testing.T) {
	model := &stubModel{reply: "hello"}
	e := New(model, "")

	prior := []domain.Message{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello"},
		{Role: domain.RoleUser, Content: "how are you"},
	}
	_, err := e.ProcessTurn(context.Background(), prior, "")
	require.NoError(t, err)
	assert.Equal(t, prior, model.got)
}

func TestProcessTurnDoesNotMutatePrior(t *testing.T) {
	model := &stubModel{reply: "ok"}
	e := New(model, "persona line")

	prior := []domain.Message{{Role: domain.RoleUser, Content: "q"}}
	snapshot := append([]domain.Message(nil), prior...)
	_, err := e.ProcessTurn(context.Background(), prior, "some context")
	require.NoError(t, err)
	assert.Equal(t, snapshot, prior)
}

func TestProcessTurnCustomPersona(t *testing.T) {
	model := &stubModel{reply: "ok"}
	e := New(model, "You are a hiring assistant.")

	_, err := e.ProcessTurn(context.Background(), nil, "ctx")
	require.NoError(t, err)
	require.Len(t, model.got, 1)
	assert.Equal(t, "You are a hiring assistant.\n\nctx", model.got[0].Content)
}

func TestProcessTurnModelFailureIsModelError(t *testing.T) {
	model := &stubModel{err: errors.New("upstream 500")}
	e := New(model, "")

	_, err := e.ProcessTurn(context.Background(), nil, "")
	var modelErr *domain.ModelError
	require.ErrorAs(t, err, &modelErr)

	// Already-wrapped errors are not double wrapped.
	wrapped := &stubModel{err: &domain.ModelError{Err: errors.New("x")}}
	_, err = New(wrapped, "").ProcessTurn(context.Background(), nil, "")
	require.ErrorAs(t, err, &modelErr)
	assert.NotContains(t, err.Error(), "model invocation: model invocation:")
}

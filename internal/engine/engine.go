// Package engine processes one conversation turn: it injects the grounding
// context as a synthesized system message and invokes the language model
// exactly once.
package engine

import (
	"context"
	"errors"

	"docchat/internal/domain"
)

// DefaultPersona opens the synthesized system message when no persona is
// configured.
const DefaultPersona = "You are an assistant that answers questions about the provided documents. Use this information to provide accurate responses:"

// Engine is a pure turn processor: prior messages in, one new assistant
// message out. It keeps no conversation state of its own.
type Engine struct {
	model   domain.ChatModel
	persona string
}

func New(model domain.ChatModel, persona string) *Engine {
	if persona == "" {
		persona = DefaultPersona
	}
	return &Engine{model: model, persona: persona}
}

// ProcessTurn invokes the model with the prior messages, prepending a
// system message built from contextText when it is non-empty. The
// synthesized message exists only for this invocation; prior is never
// modified and must not have the system message appended back into it.
func (e *Engine) ProcessTurn(ctx context.Context, prior []domain.Message, contextText string) (domain.Message, error) {
	messages := prior
	if contextText != "" {
		messages = make([]domain.Message, 0, len(prior)+1)
		messages = append(messages, domain.Message{
			Role:    domain.RoleSystem,
			Content: e.persona + "\n\n" + contextText,
		})
		messages = append(messages, prior...)
	}
	reply, err := e.model.Complete(ctx, messages)
	if err != nil {
		var modelErr *domain.ModelError
		if errors.As(err, &modelErr) {
			return domain.Message{}, err
		}
		return domain.Message{}, &domain.ModelError{Err: err}
	}
	return domain.Message{Role: domain.RoleAssistant, Content: reply}, nil
}

// Package service wires retrieval and the conversation engine into the
// question-answering flow used by the HTTP server and the terminal client.
package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"docchat/internal/domain"
	"docchat/internal/engine"
	"docchat/internal/retriever"
)

// NoMatchesReply is returned verbatim when retrieval finds nothing. A valid
// outcome, not an error.
const NoMatchesReply = "Unable to find matching results."

// Answer is the outcome of one question. Grounded is false only for the
// no-matches sentinel, where no model invocation took place.
type Answer struct {
	Reply    string
	Grounded bool
	Matches  []domain.SearchResult
}

// Service answers questions against the indexed corpus.
type Service interface {
	Answer(ctx context.Context, question string, history []domain.Message) (Answer, error)
}

// ChatService runs the retrieve-then-reply flow. Stateless across calls:
// the caller supplies the full prior message list each time.
type ChatService struct {
	retriever *retriever.Retriever
	engine    *engine.Engine
	log       *zap.Logger
}

func NewChatService(r *retriever.Retriever, e *engine.Engine, log *zap.Logger) *ChatService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChatService{retriever: r, engine: e, log: log}
}

// Answer retrieves grounding context for the question and processes one
// conversation turn. Retrieval yielding nothing maps to the sentinel reply;
// every other failure propagates so callers never mistake it for success.
func (s *ChatService) Answer(ctx context.Context, question string, history []domain.Message) (Answer, error) {
	res, err := s.retriever.Retrieve(ctx, question)
	if errors.Is(err, domain.ErrNoMatches) {
		s.log.Info("no matching results", zap.String("question", question))
		return Answer{Reply: NoMatchesReply}, nil
	}
	if err != nil {
		return Answer{}, err
	}

	prior := make([]domain.Message, 0, len(history)+1)
	prior = append(prior, history...)
	prior = append(prior, domain.Message{Role: domain.RoleUser, Content: question})

	msg, err := s.engine.ProcessTurn(ctx, prior, res.Context)
	if err != nil {
		return Answer{}, err
	}
	s.log.Debug("answered question",
		zap.String("question", question),
		zap.Int("matches", len(res.Matches)))
	return Answer{Reply: msg.Content, Grounded: true, Matches: res.Matches}, nil
}

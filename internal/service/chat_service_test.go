package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/domain"
	"docchat/internal/engine"
	"docchat/internal/retriever"
)

type stubEmbedder struct{ vector []float64 }

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return s.vector, nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = s.vector
	}
	return out, nil
}

func (s *stubEmbedder) Dimension() int { return len(s.vector) }

type stubStore struct {
	results []domain.SearchResult
	err     error
}

func (s *stubStore) Rebuild(ctx context.Context, chunks []domain.Chunk, embedder domain.Embedder) error {
	return nil
}

func (s *stubStore) Search(vector []float64, k int) ([]domain.SearchResult, error) {
	return s.results, s.err
}

type stubModel struct {
	reply string
	err   error
	got   []domain.Message
}

func (m *stubModel) Complete(ctx context.Context, messages []domain.Message) (string, error) {
	m.got = append([]domain.Message(nil), messages...)
	return m.reply, m.err
}

func newService(store *stubStore, model *stubModel) *ChatService {
	r := retriever.New(&stubEmbedder{vector: []float64{1}}, store, 3, 0)
	e := engine.New(model, "")
	return NewChatService(r, e, nil)
}

func TestAnswerGroundedFlow(t *testing.T) {
	store := &stubStore{results: []domain.SearchResult{
		{Chunk: domain.Chunk{Text: "5 years experience."}, Score: 0.9},
	}}
	model := &stubModel{reply: "They are well qualified."}
	svc := newService(store, model)

	answer, err := svc.Answer(context.Background(), "Hire them?", nil)
	require.NoError(t, err)
	assert.True(t, answer.Grounded)
	assert.Equal(t, "They are well qualified.", answer.Reply)
	require.Len(t, answer.Matches, 1)

	// The model saw the synthesized system message, then the question.
	require.Len(t, model.got, 2)
	assert.Equal(t, domain.RoleSystem, model.got[0].Role)
	assert.Contains(t, model.got[0].Content, "5 years experience.")
	assert.Equal(t, domain.Message{Role: domain.RoleUser, Content: "Hire them?"}, model.got[1])
}

func TestAnswerAppendsQuestionAfterHistory(t *testing.T) {
	store := &stubStore{results: []domain.SearchResult{
		{Chunk: domain.Chunk{Text: "context"}, Score: 1},
	}}
	model := &stubModel{reply: "ok"}
	svc := newService(store, model)

	history := []domain.Message{
		{Role: domain.RoleUser, Content: "first question"},
		{Role: domain.RoleAssistant, Content: "first answer"},
	}
	_, err := svc.Answer(context.Background(), "second question", history)
	require.NoError(t, err)

	require.Len(t, model.got, 4)
	assert.Equal(t, domain.RoleSystem, model.got[0].Role)
	assert.Equal(t, history[0], model.got[1])
	assert.Equal(t, history[1], model.got[2])
	assert.Equal(t, domain.Message{Role: domain.RoleUser, Content: "second question"}, model.got[3])
	assert.Len(t, history, 2, "history must not be modified")
}

func TestAnswerNoMatchesIsSentinelNotError(t *testing.T) {
	model := &stubModel{reply: "should not be called"}
	svc := newService(&stubStore{}, model)

	answer, err := svc.Answer(context.Background(), "anything", nil)
	require.NoError(t, err)
	assert.False(t, answer.Grounded)
	assert.Equal(t, NoMatchesReply, answer.Reply)
	assert.Nil(t, model.got, "no model invocation without grounding")
}

func TestAnswerIndexUnavailablePropagates(t *testing.T) {
	svc := newService(&stubStore{err: domain.ErrIndexUnavailable}, &stubModel{})
	_, err := svc.Answer(context.Background(), "q", nil)
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestAnswerModelFailurePropagates(t *testing.T) {
	store := &stubStore{results: []domain.SearchResult{
		{Chunk: domain.Chunk{Text: "context"}, Score: 1},
	}}
	svc := newService(store, &stubModel{err: errors.New("timeout")})

	answer, err := svc.Answer(context.Background(), "q", nil)
	var modelErr *domain.ModelError
	require.ErrorAs(t, err, &modelErr)
	assert.Empty(t, answer.Reply, "a failed turn must not produce a default reply")
}

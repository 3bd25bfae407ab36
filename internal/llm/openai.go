package llm

import (
	"context"
	"errors"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"docchat/internal/domain"
)

// OpenAIConfig configures the chat-completions client. The API key is read
// from the environment variable named by APIKeyEnv.
type OpenAIConfig struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
}

// OpenAIModel invokes an OpenAI-compatible chat-completions endpoint. It
// implements domain.ChatModel.
type OpenAIModel struct {
	client *openai.Client
	model  string
}

// NewOpenAI builds the chat model client, failing fast on a missing key.
func NewOpenAI(cfg OpenAIConfig) (*OpenAIModel, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := strings.TrimSpace(os.Getenv(cfg.APIKeyEnv))
	if key == "" {
		return nil, domain.NewConfigError("llm.api_key", "environment variable "+cfg.APIKeyEnv+" is not set")
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4Dot1
	}
	clientCfg := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIModel{client: openai.NewClientWithConfig(clientCfg), model: cfg.Model}, nil
}

// Complete sends the message list as-is and returns the first choice.
func (m *OpenAIModel) Complete(ctx context.Context, messages []domain.Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:    m.model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, msg := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", &domain.ModelError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &domain.ModelError{Err: errors.New("completion returned no choices")}
	}
	return resp.Choices[0].Message.Content, nil
}

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/al-ameen36/vcon-bubble-maps/config"
	"github.com/al-ameen36/vcon-bubble-maps/models"
)

var (
	ErrNoAPIKey   = errors.New("OPENAI_API_KEY is not set")
	ErrNoChoices  = errors.New("no choices in completion")
	ErrEmptyReply = errors.New("empty completion")
)

// ChatCompleter is satisfied by *openai.Client.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

func NewOpenAIClient(cfg config.OpenAI) (*openai.Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(oc), nil
}

type OpenAIService struct {
	client ChatCompleter
	model  string
	logger *zap.Logger
}

func NewOpenAIService(client ChatCompleter, model string, logger *zap.Logger) *OpenAIService {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIService{client: client, model: model, logger: logger}
}

// Complete sends the system instructions followed by history and returns the
// first choice's content.
func (s *OpenAIService) Complete(ctx context.Context, instructions string, history []models.ThreadMessage) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	if instructions != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: instructions,
		})
	}
	for _, m := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    s.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", ErrEmptyReply
	}
	s.logger.Debug("completion received", zap.Int("messages", len(messages)), zap.Int("reply_len", len(content)))
	return content, nil
}

package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/finsearch/finsearch/config"
)

// Message is one chat turn sent to the completion API.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Client generates chat completions. The planner and the synthesizer are the
// only callers; both treat a failure as degradable, never fatal.
type Client interface {
	Complete(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error)
}

// OpenAIClient implements Client against an OpenAI-compatible API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(cfg config.LLMConfig) *OpenAIClient {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(oc), model: cfg.Model}
}

func (c *OpenAIClient) Complete(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: float32(temperature),
		MaxTokens:   maxTokens,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// Package chat is the outbound chat-completion transport. Callers send an
// ordered transcript and receive the assistant's reply text.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = openai.GPT3Dot5Turbo

// ErrEmptyReply is returned when the provider answers without any choices.
var ErrEmptyReply = errors.New("no message received")

// Message is one transcript entry as sent to the provider.
type Message struct {
	Role    string
	Content string
}

// Completer sends a conversation and returns the assistant reply.
type Completer interface {
	Complete(ctx context.Context, model string, msgs []Message) (string, error)
}

// OpenAI is a Completer backed by the OpenAI chat completions API or any
// server that speaks the same protocol.
type OpenAI struct {
	client *openai.Client
}

// NewOpenAI builds a client for apiKey. A non-empty baseURL (e.g.
// "http://localhost:11434/v1") points it at a compatible server.
func NewOpenAI(apiKey, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg)}
}

// Complete performs a single non-streaming completion.
func (c *OpenAI) Complete(ctx context.Context, model string, msgs []Message) (string, error) {
	if model == "" {
		model = DefaultModel
	}
	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: make([]openai.ChatCompletionMessage, len(msgs)),
	}
	for i, m := range msgs {
		req.Messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat.OpenAI.Complete: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat.OpenAI.Complete: %w", ErrEmptyReply)
	}
	return resp.Choices[0].Message.Content, nil
}

// Package openaisdk is the OpenAI engine built on the go-openai SDK.
package openaisdk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/yungbote/specforge-backend/internal/config"
	"github.com/yungbote/specforge-backend/internal/engine"
)

type Engine struct {
	client *openai.Client
}

func New(cfg config.ProviderConfig) (*Engine, error) {
	return NewWithHTTPClient(cfg, nil)
}

// NewWithHTTPClient lets tests swap the transport.
func NewWithHTTPClient(cfg config.ProviderConfig, httpClient *http.Client) (*Engine, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai: api key required")
	}
	c := openai.DefaultConfig(strings.TrimSpace(cfg.APIKey))
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		c.BaseURL = base
	}
	if httpClient != nil {
		c.HTTPClient = httpClient
	}
	return &Engine{client: openai.NewClientWithConfig(c)}, nil
}

func (e *Engine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	resp, err := e.client.CreateChatCompletion(ctx, buildRequest(model, messages, opts, false))
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", errors.New("empty upstream completion")
	}
	return resp.Choices[0].Message.Content, nil
}

func (e *Engine) StreamText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions, onDelta func(delta string)) (string, error) {
	stream, err := e.client.CreateChatCompletionStream(ctx, buildRequest(model, messages, opts, true))
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	defer stream.Close()

	var full strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return full.String(), nil
		}
		if err != nil {
			return "", fmt.Errorf("openai stream: %w", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		if onDelta != nil {
			onDelta(delta)
		}
	}
}

func buildRequest(model string, messages []engine.Message, opts engine.GenerateOptions, stream bool) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		if strings.TrimSpace(m.Role) == "" {
			continue
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: toRole(m.Role), Content: m.Content})
	}
	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: float32(opts.Temperature),
		MaxTokens:   opts.MaxTokens,
		Stream:      stream,
	}
	if opts.JSONObject {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}
	return req
}

func toRole(role string) string {
	switch role {
	case engine.RoleSystem:
		return openai.ChatMessageRoleSystem
	case engine.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}

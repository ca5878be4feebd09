// Package anthropic is the Claude engine built on go-anthropic.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/yungbote/specforge-backend/internal/config"
	"github.com/yungbote/specforge-backend/internal/engine"
)

const defaultMaxTokens = 4096

type Engine struct {
	client *anthropic.Client
}

func New(cfg config.ProviderConfig) (*Engine, error) {
	return NewWithHTTPClient(cfg, nil)
}

func NewWithHTTPClient(cfg config.ProviderConfig, httpClient *http.Client) (*Engine, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, errors.New("anthropic: api key required")
	}
	var opts []anthropic.ClientOption
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		opts = append(opts, anthropic.WithBaseURL(base))
	}
	if httpClient != nil {
		opts = append(opts, anthropic.WithHTTPClient(httpClient))
	}
	return &Engine{client: anthropic.NewClient(key, opts...)}, nil
}

func (e *Engine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	req := buildRequest(model, messages, opts)
	resp, err := e.client.CreateMessages(ctx, req)
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}
	var out strings.Builder
	for _, c := range resp.Content {
		out.WriteString(c.GetText())
	}
	if strings.TrimSpace(out.String()) == "" {
		return "", errors.New("empty upstream completion")
	}
	return out.String(), nil
}

func (e *Engine) StreamText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions, onDelta func(delta string)) (string, error) {
	var full strings.Builder
	_, err := e.client.CreateMessagesStream(ctx, anthropic.MessagesStreamRequest{
		MessagesRequest: buildRequest(model, messages, opts),
		OnContentBlockDelta: func(data anthropic.MessagesEventContentBlockDeltaData) {
			delta := data.Delta.GetText()
			if delta == "" {
				return
			}
			full.WriteString(delta)
			if onDelta != nil {
				onDelta(delta)
			}
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic stream: %w", err)
	}
	return full.String(), nil
}

func buildRequest(model string, messages []engine.Message, opts engine.GenerateOptions) anthropic.MessagesRequest {
	system, rest := engine.SplitSystem(messages)

	msgs := make([]anthropic.Message, 0, len(rest))
	for _, m := range rest {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		if m.Role == engine.RoleAssistant {
			msgs = append(msgs, anthropic.NewAssistantTextMessage(m.Content))
		} else {
			msgs = append(msgs, anthropic.NewUserTextMessage(m.Content))
		}
	}

	content := system
	if opts.JSONObject {
		content += "\n\nRespond with a single JSON object and nothing else."
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	temp := float32(opts.Temperature)
	return anthropic.MessagesRequest{
		Model:       anthropic.Model(model),
		System:      strings.TrimSpace(content),
		Messages:    msgs,
		MaxTokens:   maxTokens,
		Temperature: &temp,
	}
}

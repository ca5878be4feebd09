package oaihttp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/specforge-backend/internal/engine"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Stream         bool            `json:"stream,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

// Some compatible servers still answer in the legacy completions shape, hence Text.
type choice struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Delta struct {
		Content string `json:"content"`
	} `json:"delta"`
	Text string `json:"text"`
}

type chatResponse struct {
	Choices []choice        `json:"choices"`
	Error   json.RawMessage `json:"error,omitempty"`
}

func newChatRequest(model string, messages []engine.Message, opts engine.GenerateOptions, stream bool) chatRequest {
	msgs := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		role := strings.TrimSpace(m.Role)
		if role == "" {
			continue
		}
		msgs = append(msgs, chatMessage{Role: role, Content: m.Content})
	}
	req := chatRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Stream:      stream,
	}
	if opts.JSONObject {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	return req
}

func (r chatResponse) text() string {
	for _, c := range r.Choices {
		if strings.TrimSpace(c.Message.Content) != "" {
			return c.Message.Content
		}
		if strings.TrimSpace(c.Text) != "" {
			return c.Text
		}
	}
	return ""
}

// parseChunk returns the content delta of one stream event. Only the first choice is
// ever requested.
func parseChunk(data string) (string, error) {
	data = strings.TrimSpace(data)
	if data == "" || data == "[DONE]" {
		return "", nil
	}
	var chunk chatResponse
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		return "", fmt.Errorf("malformed upstream stream chunk: %w", err)
	}
	if len(chunk.Error) > 0 && string(chunk.Error) != "null" {
		return "", fmt.Errorf("upstream stream error: %s", errorMessage(chunk.Error))
	}
	if len(chunk.Choices) == 0 {
		return "", nil
	}
	if d := chunk.Choices[0].Delta.Content; d != "" {
		return d, nil
	}
	return chunk.Choices[0].Text, nil
}

// errorMessage reads the "error" member of an OpenAI-style body, which is either an
// object with a message or a bare string.
func errorMessage(raw json.RawMessage) string {
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// Package oaihttp speaks the OpenAI chat completions wire format over plain HTTP, so any
// compatible server (OpenAI, vLLM, llama.cpp, gateways) can back the service.
package oaihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yungbote/specforge-backend/internal/config"
	"github.com/yungbote/specforge-backend/internal/engine"
)

var errNoMessages = errors.New("oai_http: no messages to send")

type Engine struct {
	url    string
	apiKey string
	// timeout bounds GenerateText only; streams end with the caller's context.
	timeout time.Duration
	hc      *http.Client
}

func New(cfg config.ProviderConfig) (*Engine, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("oai_http: base_url required")
	}
	path := strings.TrimSpace(cfg.ChatCompletionsPath)
	if path == "" {
		path = "/v1/chat/completions"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	timeout := cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	return &Engine{
		url:     base + path,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		timeout: timeout,
		hc:      &http.Client{Transport: otelhttp.NewTransport(transport)},
	}, nil
}

// NewWithHTTPClient swaps the transport, typically for a RoundTripper fake in tests.
func NewWithHTTPClient(cfg config.ProviderConfig, httpClient *http.Client) (*Engine, error) {
	e, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if httpClient != nil {
		e.hc = httpClient
	}
	return e, nil
}

func (e *Engine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.post(ctx, newChatRequest(model, messages, opts, false), "application/json")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	text := out.text()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty upstream completion")
	}
	return text, nil
}

func (e *Engine) StreamText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions, onDelta func(delta string)) (string, error) {
	resp, err := e.post(ctx, newChatRequest(model, messages, opts, true), "text/event-stream")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var full strings.Builder
	err = streamSSE(resp.Body, func(_ string, data string) error {
		delta, err := parseChunk(data)
		if err != nil || delta == "" {
			return err
		}
		full.WriteString(delta)
		if onDelta != nil {
			onDelta(delta)
		}
		return nil
	})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	if err != nil {
		return "", err
	}
	return full.String(), nil
}

func (e *Engine) post(ctx context.Context, body chatRequest, accept string) (*http.Response, error) {
	if len(body.Messages) == 0 {
		return nil, errNoMessages
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.hc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, newHTTPError(resp)
	}
	return resp, nil
}

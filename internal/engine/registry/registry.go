// Package registry builds the configured engine.
package registry

import (
	"fmt"
	"strings"

	"github.com/yungbote/specforge-backend/internal/config"
	"github.com/yungbote/specforge-backend/internal/engine"
	"github.com/yungbote/specforge-backend/internal/engine/anthropic"
	"github.com/yungbote/specforge-backend/internal/engine/mock"
	"github.com/yungbote/specforge-backend/internal/engine/oaihttp"
	"github.com/yungbote/specforge-backend/internal/engine/openaisdk"
)

// Provider pairs an engine with the fixed generation settings every call uses.
type Provider struct {
	Type    string
	Model   string
	Engine  engine.Engine
	Options engine.GenerateOptions
}

func New(cfg config.ProviderConfig) (*Provider, error) {
	typ := strings.ToLower(strings.TrimSpace(cfg.Type))

	var eng engine.Engine
	switch typ {
	case "mock":
		eng = mock.New()
	case "openai_http", "oai_http":
		e, err := oaihttp.New(cfg)
		if err != nil {
			return nil, err
		}
		eng = e
	case "openai":
		e, err := openaisdk.New(cfg)
		if err != nil {
			return nil, err
		}
		eng = e
	case "anthropic":
		e, err := anthropic.New(cfg)
		if err != nil {
			return nil, err
		}
		eng = e
	default:
		return nil, fmt.Errorf("unsupported engine type %q", cfg.Type)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, fmt.Errorf("model required for engine %q", typ)
	}

	return &Provider{
		Type:   typ,
		Model:  model,
		Engine: eng,
		Options: engine.GenerateOptions{
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxOutputTokens,
		},
	}, nil
}

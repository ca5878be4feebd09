package registry

import (
	"testing"

	"github.com/yungbote/specforge-backend/internal/config"
	"github.com/yungbote/specforge-backend/internal/engine/mock"
	"github.com/yungbote/specforge-backend/internal/engine/oaihttp"
)

func TestNew(t *testing.T) {
	p, err := New(config.ProviderConfig{Type: "mock", Model: "gpt-4o", Temperature: 0.7, MaxOutputTokens: 4096})
	if err != nil {
		t.Fatalf("New mock: %v", err)
	}
	if _, ok := p.Engine.(*mock.Engine); !ok {
		t.Fatalf("engine=%T", p.Engine)
	}
	if p.Options.MaxTokens != 4096 || p.Options.Temperature != 0.7 {
		t.Fatalf("options=%+v", p.Options)
	}

	p, err = New(config.ProviderConfig{Type: "openai_http", BaseURL: "http://upstream", Model: "gpt-4o"})
	if err != nil {
		t.Fatalf("New oai_http: %v", err)
	}
	if _, ok := p.Engine.(*oaihttp.Engine); !ok {
		t.Fatalf("engine=%T", p.Engine)
	}
}

func TestNew_Errors(t *testing.T) {
	cases := []config.ProviderConfig{
		{Type: "carrier-pigeon", Model: "x"},
		{Type: "mock"},
		{Type: "openai", Model: "gpt-4o"},
		{Type: "oai_http", Model: "gpt-4o"},
	}
	for _, c := range cases {
		if _, err := New(c); err == nil {
			t.Fatalf("expected error for %+v", c)
		}
	}
}

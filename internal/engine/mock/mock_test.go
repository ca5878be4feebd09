package mock

import (
	"context"
	"strings"
	"testing"

	"github.com/yungbote/specforge-backend/internal/contract"
	"github.com/yungbote/specforge-backend/internal/engine"
)

func TestStreamText_FullSpecIsValid(t *testing.T) {
	e := New()
	var b strings.Builder
	full, err := e.StreamText(context.Background(), "gpt-4o", []engine.Message{
		{Role: engine.RoleSystem, Content: "sys"},
		{Role: engine.RoleUser, Content: "Update the technical prompt based on this feedback."},
	}, engine.GenerateOptions{}, func(d string) { b.WriteString(d) })
	if err != nil {
		t.Fatalf("StreamText: %v", err)
	}
	if b.String() != full {
		t.Fatalf("deltas do not add up to full text")
	}
	if res := contract.Validate(full); !res.Valid {
		t.Fatalf("mock output should satisfy the contract: %v", res.Issues)
	}
}

func TestStreamText_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().StreamText(ctx, "m", []engine.Message{{Role: "user", Content: "x"}}, engine.GenerateOptions{}, func(string) {})
	if err == nil {
		t.Fatalf("expected context error")
	}
}

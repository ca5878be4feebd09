// Package mock is an offline engine for local development and tests. It always honors
// the output contract so the full pipeline can run without provider credentials.
package mock

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/yungbote/specforge-backend/internal/contract"
	"github.com/yungbote/specforge-backend/internal/engine"
)

type Engine struct {
	// ChunkSize is the rune length of each streamed delta.
	ChunkSize int
}

func New() *Engine {
	return &Engine{ChunkSize: 24}
}

func (e *Engine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	_ = model
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if opts.JSONObject {
		b, _ := json.Marshal(cannedQuestions)
		return string(b), nil
	}
	return respond(lastUser(messages)), nil
}

func (e *Engine) StreamText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions, onDelta func(delta string)) (string, error) {
	full, err := e.GenerateText(ctx, model, messages, opts)
	if err != nil {
		return "", err
	}
	if onDelta == nil {
		return full, nil
	}
	chunk := e.ChunkSize
	if chunk <= 0 {
		chunk = 24
	}
	runes := []rune(full)
	for i := 0; i < len(runes); i += chunk {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		end := i + chunk
		if end > len(runes) {
			end = len(runes)
		}
		onDelta(string(runes[i:end]))
	}
	return full, nil
}

func lastUser(messages []engine.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if strings.EqualFold(messages[i].Role, engine.RoleUser) {
			return messages[i].Content
		}
	}
	return ""
}

func respond(user string) string {
	if strings.Contains(user, "Do NOT generate the full prompt yet") {
		return "Thanks, a few questions before I write the spec.\n" + contract.Delimiter + "\n" +
			"1. Who is the primary user?\n2. Web, mobile or both?\n3. Do users need accounts?\n"
	}

	var b strings.Builder
	b.WriteString("Here is the complete specification.\n")
	b.WriteString(contract.Delimiter)
	b.WriteString("\n\n")
	for _, h := range contract.RequiredSections {
		b.WriteString(h)
		b.WriteString("\n\n")
		b.WriteString(sectionBody[h])
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

var sectionBody = map[string]string{
	contract.RequiredSections[0]: "A focused web application that delivers the core workflow described by the user.",
	contract.RequiredSections[1]: "- Frontend: Next.js\n- Backend: Go HTTP API\n- Database: PostgreSQL",
	contract.RequiredSections[2]: "1. Sign up\n2. Create the first item\n3. Share it",
	contract.RequiredSections[3]: "- users(id, email, created_at)\n- items(id, owner_id, title, body)",
	contract.RequiredSections[4]: "Single-column layout, accessible color contrast, keyboard navigation.",
	contract.RequiredSections[5]: "Session cookies, input validation, rate limiting, indexed queries.",
	contract.RequiredSections[6]: "Week 1: data model and auth. Week 2: core flow and polish.",
	contract.RequiredSections[7]: "Build the data model first, then the API, then the UI. Keep commits small.",
}

type cannedQuestion struct {
	ID               string   `json:"id"`
	Question         string   `json:"question"`
	Options          []string `json:"options"`
	RecommendedIndex int      `json:"recommendedIndex"`
	Required         bool     `json:"required"`
}

var cannedQuestions = map[string][]cannedQuestion{
	"questions": {
		{ID: "audience", Question: "Who is the primary user?", Options: []string{"Consumers", "Small businesses", "Enterprises"}, RecommendedIndex: 0, Required: true},
		{ID: "platform", Question: "Which platform should ship first?", Options: []string{"Web", "iOS", "Android", "All"}, RecommendedIndex: 0, Required: true},
		{ID: "auth", Question: "How should users sign in?", Options: []string{"Social login", "Email and password", "No accounts"}, RecommendedIndex: 0, Required: true},
	},
}

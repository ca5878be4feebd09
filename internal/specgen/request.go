package specgen

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/yungbote/specforge-backend/internal/engine"
	"github.com/yungbote/specforge-backend/internal/prompt"
)

var ErrInvalidRequest = errors.New("invalid request")

var errPromptRequired = fmt.Errorf("%w: prompt is required", ErrInvalidRequest)

var validSpecModes = map[string]bool{
	prompt.ModeMVP:             true,
	prompt.ModeProductionReady: true,
}

var validAgents = map[string]bool{
	"v0":           true,
	"bolt":         true,
	"lovable":      true,
	"claude-code":  true,
	"cursor":       true,
	"openai-codex": true,
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type StructuredAnswer struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

type ChatRequest struct {
	Prompt            string             `json:"prompt"`
	Messages          []Message          `json:"messages"`
	CurrentSpec       string             `json:"currentSpec,omitempty"`
	ProductType       string             `json:"productType,omitempty"`
	Platform          string             `json:"platform,omitempty"`
	StructuredAnswers []StructuredAnswer `json:"structuredAnswers,omitempty"`
	OriginalPrompt    string             `json:"originalPrompt,omitempty"`
	SpecMode          string             `json:"specMode,omitempty"`
	TargetAgent       string             `json:"targetAgent,omitempty"`
}

// UnmarshalJSON requires the prompt member. An empty string is accepted.
func (r *ChatRequest) UnmarshalJSON(b []byte) error {
	type plain ChatRequest
	var aux struct {
		plain
		Prompt *string `json:"prompt"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if aux.Prompt == nil {
		return errPromptRequired
	}
	*r = ChatRequest(aux.plain)
	r.Prompt = *aux.Prompt
	return nil
}

// IsInitial reports whether the request starts a new conversation.
func (r ChatRequest) IsInitial() bool { return len(r.Messages) == 0 }

type QuestionsRequest struct {
	Prompt      string `json:"prompt"`
	ProductType string `json:"productType,omitempty"`
	Platform    string `json:"platform,omitempty"`
	SpecMode    string `json:"specMode,omitempty"`
	TargetAgent string `json:"targetAgent,omitempty"`
}

func (r *QuestionsRequest) UnmarshalJSON(b []byte) error {
	type plain QuestionsRequest
	var aux struct {
		plain
		Prompt *string `json:"prompt"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if aux.Prompt == nil {
		return errPromptRequired
	}
	*r = QuestionsRequest(aux.plain)
	r.Prompt = *aux.Prompt
	return nil
}

// RepairRequest asks for one corrective pass over a previous output. Issues may be left empty,
// in which case they are recomputed from Output.
type RepairRequest struct {
	Output      string   `json:"output"`
	Issues      []string `json:"issues,omitempty"`
	SpecMode    string   `json:"specMode,omitempty"`
	TargetAgent string   `json:"targetAgent,omitempty"`
}

func (r *ChatRequest) normalize(maxPrompt int) error {
	r.SpecMode = defaultMode(r.SpecMode)
	if err := checkCommon(r.Prompt, r.SpecMode, r.TargetAgent, maxPrompt); err != nil {
		return err
	}
	for i, m := range r.Messages {
		if m.Role != engine.RoleUser && m.Role != engine.RoleAssistant {
			return fmt.Errorf("%w: messages[%d].role must be one of: user, assistant", ErrInvalidRequest, i)
		}
	}
	return nil
}

func (r *QuestionsRequest) normalize(maxPrompt int) error {
	r.SpecMode = defaultMode(r.SpecMode)
	return checkCommon(r.Prompt, r.SpecMode, r.TargetAgent, maxPrompt)
}

func (r *RepairRequest) normalize() error {
	r.SpecMode = defaultMode(r.SpecMode)
	if strings.TrimSpace(r.Output) == "" {
		return fmt.Errorf("%w: output is required", ErrInvalidRequest)
	}
	return checkCommon("", r.SpecMode, r.TargetAgent, 0)
}

func defaultMode(mode string) string {
	mode = strings.TrimSpace(mode)
	if mode == "" {
		return prompt.ModeMVP
	}
	return mode
}

func checkCommon(promptText, mode, agent string, maxPrompt int) error {
	if maxPrompt > 0 && utf8.RuneCountInString(promptText) > maxPrompt {
		return fmt.Errorf("%w: Prompt exceeds maximum length of %d characters", ErrInvalidRequest, maxPrompt)
	}
	if !validSpecModes[mode] {
		return fmt.Errorf("%w: Invalid specMode. Must be one of: %s", ErrInvalidRequest, keys(validSpecModes))
	}
	if agent != "" && !validAgents[agent] {
		return fmt.Errorf("%w: Invalid targetAgent. Must be one of: %s", ErrInvalidRequest, keys(validAgents))
	}
	return nil
}

func keys(m map[string]bool) string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return strings.Join(out, ", ")
}

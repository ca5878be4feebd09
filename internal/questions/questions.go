package questions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/specforge-backend/internal/engine"
	"github.com/yungbote/specforge-backend/internal/platform/logger"
)

const (
	MaxQuestions = 5
	MaxOptions   = 5
	MinQuestions = 3
	MinOptions   = 2

	DefaultTemperature = 0.7
)

var ErrInvalidProviderResponse = errors.New("invalid provider response")

type Question struct {
	ID               string   `json:"id"`
	Question         string   `json:"question"`
	Options          []string `json:"options"`
	RecommendedIndex int      `json:"recommendedIndex"`
	Required         bool     `json:"required"`
}

type Result struct {
	QuestionSetVersion int        `json:"questionSetVersion"`
	ContractVersion    int        `json:"contractVersion"`
	Questions          []Question `json:"questions"`
}

// rawQuestion keeps absent fields distinguishable from zero values.
type rawQuestion struct {
	ID               *string  `json:"id"`
	Question         string   `json:"question"`
	Options          []string `json:"options"`
	RecommendedIndex *int     `json:"recommendedIndex"`
	Required         *bool    `json:"required"`
}

type rawResponse struct {
	Questions []rawQuestion `json:"questions"`
}

// Parse decodes a provider JSON object and normalizes it. Only unparseable JSON is an error;
// missing optional fields get defaults.
func Parse(content string) ([]Question, error) {
	var raw rawResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProviderResponse, err)
	}
	return normalize(raw.Questions), nil
}

func normalize(in []rawQuestion) []Question {
	if len(in) > MaxQuestions {
		in = in[:MaxQuestions]
	}
	out := make([]Question, 0, len(in))
	for i, rq := range in {
		q := Question{
			ID:       fmt.Sprintf("q%d", i+1),
			Question: rq.Question,
			Options:  rq.Options,
			Required: true,
		}
		if rq.ID != nil {
			q.ID = *rq.ID
		}
		if rq.Required != nil {
			q.Required = *rq.Required
		}
		if q.Options == nil {
			q.Options = []string{}
		}
		if len(q.Options) > MaxOptions {
			q.Options = q.Options[:MaxOptions]
		}
		if rq.RecommendedIndex != nil {
			q.RecommendedIndex = *rq.RecommendedIndex
		}
		if last := len(q.Options) - 1; q.RecommendedIndex > last {
			q.RecommendedIndex = last
		}
		if q.RecommendedIndex < 0 {
			q.RecommendedIndex = 0
		}
		out = append(out, q)
	}
	return out
}

type Generator struct {
	eng    engine.Engine
	model  string
	log    *logger.Logger
	tracer trace.Tracer
}

func NewGenerator(eng engine.Engine, model string, log *logger.Logger) *Generator {
	if log == nil {
		log = logger.Nop()
	}
	return &Generator{
		eng:    eng,
		model:  model,
		log:    log.With("component", "QuestionGenerator"),
		tracer: otel.Tracer("specforge/questions"),
	}
}

// Generate issues one non-streaming request for a JSON object and returns the normalized questions.
func (g *Generator) Generate(ctx context.Context, systemPrompt, userPrompt string) ([]Question, error) {
	ctx, span := g.tracer.Start(ctx, "questions.generate", trace.WithAttributes(attribute.String("llm.model", g.model)))
	defer span.End()

	content, err := g.eng.GenerateText(ctx, g.model, []engine.Message{
		{Role: engine.RoleSystem, Content: systemPrompt},
		{Role: engine.RoleUser, Content: userPrompt},
	}, engine.GenerateOptions{Temperature: DefaultTemperature, JSONObject: true})
	if err != nil {
		g.log.Error("question generation failed", "model", g.model, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	qs, err := Parse(content)
	if err != nil {
		g.log.Error("failed to parse question JSON", "model", g.model, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("questions.count", len(qs)))
	return qs, nil
}

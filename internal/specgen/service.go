package specgen

import (
	"context"
	"errors"

	"github.com/yungbote/specforge-backend/internal/completion"
	"github.com/yungbote/specforge-backend/internal/contract"
	"github.com/yungbote/specforge-backend/internal/engine"
	"github.com/yungbote/specforge-backend/internal/platform/logger"
	"github.com/yungbote/specforge-backend/internal/prompt"
	"github.com/yungbote/specforge-backend/internal/questions"
)

// ErrNothingToRepair is returned when a repair request's output already satisfies the contract.
var ErrNothingToRepair = errors.New("output has no contract violations")

type Options struct {
	MaxPromptLength    int
	QuestionSetVersion int
}

type Service struct {
	composer  *prompt.Composer
	streamer  *completion.Streamer
	questions *questions.Generator
	opts      Options
	log       *logger.Logger
}

func NewService(composer *prompt.Composer, streamer *completion.Streamer, gen *questions.Generator, opts Options, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	if opts.QuestionSetVersion <= 0 {
		opts.QuestionSetVersion = 1
	}
	return &Service{
		composer:  composer,
		streamer:  streamer,
		questions: gen,
		opts:      opts,
		log:       log.With("service", "SpecGenService"),
	}
}

// Plan is a composed chat turn that is ready to stream. Building it does all the work that can
// fail synchronously, so a caller can still answer with a plain error response.
type Plan struct {
	Request         completion.Request
	ContractVersion int
	BaseSlug        string

	repair *repairInput
}

type repairInput struct {
	original string
	issues   []string
}

func (s *Service) PrepareChat(ctx context.Context, req ChatRequest) (Plan, error) {
	if err := req.normalize(s.opts.MaxPromptLength); err != nil {
		return Plan{}, err
	}

	in := prompt.SystemPromptInput{
		BaseSlug: prompt.SlugSpecGeneration,
		SpecMode: req.SpecMode,
		AgentID:  req.TargetAgent,
	}
	if !req.IsInitial() {
		in.BaseSlug = prompt.SlugSpecGenerationFollowup
		in.CurrentSpec = req.CurrentSpec
	}
	composed, err := s.composer.ComposeSystemPrompt(ctx, in)
	if err != nil {
		return Plan{}, err
	}

	history := make([]engine.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		history = append(history, engine.Message{Role: m.Role, Content: m.Content})
	}

	s.log.Info("starting chat completion",
		"is_initial", req.IsInitial(),
		"spec_mode", req.SpecMode,
		"target_agent", req.TargetAgent,
		"contract_version", composed.ContractVersion,
	)
	return Plan{
		Request: completion.Request{
			SystemPrompt: composed.Text,
			UserPrompt:   chatUserPrompt(req),
			History:      history,
		},
		ContractVersion: composed.ContractVersion,
		BaseSlug:        in.BaseSlug,
	}, nil
}

// PrepareRepair composes a follow-up system prompt for a single corrective pass.
func (s *Service) PrepareRepair(ctx context.Context, req RepairRequest) (Plan, error) {
	if err := req.normalize(); err != nil {
		return Plan{}, err
	}
	issues := req.Issues
	if len(issues) == 0 {
		res := contract.Validate(req.Output)
		if res.Valid {
			return Plan{}, ErrNothingToRepair
		}
		issues = res.Issues
	}

	composed, err := s.composer.ComposeSystemPrompt(ctx, prompt.SystemPromptInput{
		BaseSlug: prompt.SlugSpecGenerationFollowup,
		SpecMode: req.SpecMode,
		AgentID:  req.TargetAgent,
	})
	if err != nil {
		return Plan{}, err
	}

	s.log.Info("starting repair", "spec_mode", req.SpecMode, "issues", len(issues))
	return Plan{
		Request: completion.Request{
			SystemPrompt: composed.Text,
			UserPrompt:   completion.BuildRepairPrompt(req.Output, issues),
		},
		ContractVersion: composed.ContractVersion,
		BaseSlug:        prompt.SlugSpecGenerationFollowup,
		repair:          &repairInput{original: req.Output, issues: issues},
	}, nil
}

// Stream runs a prepared plan. See completion.Streamer.Stream for the error contract.
func (s *Service) Stream(ctx context.Context, plan Plan, emit completion.EmitFunc) (completion.Outcome, error) {
	if plan.repair != nil {
		return s.streamer.Repair(ctx, plan.Request.SystemPrompt, plan.repair.original, plan.repair.issues, emit)
	}
	return s.streamer.Stream(ctx, plan.Request, emit)
}

// Questions returns 3 to 5 clarifying questions. Composition failures are returned as errors;
// any failure after that falls back to the fixed question set.
func (s *Service) Questions(ctx context.Context, req QuestionsRequest) (questions.Result, error) {
	if err := req.normalize(s.opts.MaxPromptLength); err != nil {
		return questions.Result{}, err
	}
	composed, err := s.composer.ComposeQuestionsPrompt(ctx, req.SpecMode, req.TargetAgent)
	if err != nil {
		return questions.Result{}, err
	}

	s.log.Info("generating questions",
		"spec_mode", req.SpecMode,
		"target_agent", req.TargetAgent,
		"contract_version", composed.ContractVersion,
	)
	qs, err := s.questions.Generate(ctx, composed.Text, questionsUserPrompt(req))
	if err != nil {
		if ctx.Err() != nil {
			return questions.Result{}, ctx.Err()
		}
		s.log.Warn("using fallback questions", "spec_mode", req.SpecMode, "error", err)
		return questions.Result{
			QuestionSetVersion: s.opts.QuestionSetVersion,
			ContractVersion:    questions.FallbackContractVersion,
			Questions:          questions.Fallback(req.SpecMode),
		}, nil
	}

	usable := questions.Usable(qs)
	if len(usable) < questions.MinQuestions {
		s.log.Warn("insufficient questions generated",
			"count", len(usable),
			"dropped", len(qs)-len(usable),
			"expected_min", questions.MinQuestions,
		)
	}
	return questions.Result{
		QuestionSetVersion: s.opts.QuestionSetVersion,
		ContractVersion:    composed.ContractVersion,
		Questions:          questions.EnsureMinimum(usable, req.SpecMode),
	}, nil
}


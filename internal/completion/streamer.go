package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/facebookgo/clock"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/specforge-backend/internal/contract"
	"github.com/yungbote/specforge-backend/internal/engine"
	"github.com/yungbote/specforge-backend/internal/platform/logger"
)

const (
	DefaultPingInterval = 10 * time.Second

	repairExcerptRunes = 2000
)

type Options struct {
	Model        string
	Generate     engine.GenerateOptions
	PingInterval time.Duration
	Clock        clock.Clock
	Logger       *logger.Logger
}

type Request struct {
	SystemPrompt string
	UserPrompt   string
	// History is sent between the system prompt and the user prompt, in order.
	History []engine.Message
}

// Outcome describes a finished stream. Validation is only set when the upstream completed.
type Outcome struct {
	Text          string
	DelimiterSeen bool
	Deltas        int
	Validation    *contract.Result
	UpstreamErr   error
}

// EmitFunc delivers one event to the caller. A non-nil error aborts the stream.
type EmitFunc func(Event) error

type Streamer struct {
	eng    engine.Engine
	model  string
	gen    engine.GenerateOptions
	ping   time.Duration
	clk    clock.Clock
	log    *logger.Logger
	tracer trace.Tracer
}

func NewStreamer(eng engine.Engine, opts Options) *Streamer {
	if opts.PingInterval <= 0 {
		opts.PingInterval = DefaultPingInterval
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &Streamer{
		eng:    eng,
		model:  opts.Model,
		gen:    opts.Generate,
		ping:   opts.PingInterval,
		clk:    opts.Clock,
		log:    opts.Logger.With("component", "CompletionStreamer"),
		tracer: otel.Tracer("specforge/completion"),
	}
}

// Stream opens exactly one upstream streaming request and emits the framed events in order,
// ending with exactly one done or error event. Upstream failures are reported as an error
// event, not as a returned error. The returned error is non-nil only when the caller went
// away (ctx cancelled or emit failed); the upstream request is released before returning.
func (s *Streamer) Stream(ctx context.Context, req Request, emit EmitFunc) (out Outcome, err error) {
	ctx, span := s.tracer.Start(ctx, "completion.stream", trace.WithAttributes(attribute.String("llm.model", s.model)))
	defer func() {
		span.SetAttributes(
			attribute.Int("completion.deltas", out.Deltas),
			attribute.Bool("completion.delimiter_seen", out.DelimiterSeen),
		)
		if out.Validation != nil {
			span.SetAttributes(
				attribute.Bool("contract.valid", out.Validation.Valid),
				attribute.Int("contract.issues", len(out.Validation.Issues)),
			)
		}
		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case out.UpstreamErr != nil:
			span.RecordError(out.UpstreamErr)
			span.SetStatus(codes.Error, out.UpstreamErr.Error())
		}
		span.End()
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	msgs := make([]engine.Message, 0, len(req.History)+2)
	msgs = append(msgs, engine.Message{Role: engine.RoleSystem, Content: req.SystemPrompt})
	msgs = append(msgs, req.History...)
	msgs = append(msgs, engine.Message{Role: engine.RoleUser, Content: req.UserPrompt})

	framer := NewFramer(contract.Delimiter)
	defer func() {
		out.Text = framer.Text()
		out.DelimiterSeen = framer.DelimiterSeen()
		out.Deltas = framer.Deltas()
	}()

	// The ticker exists before the upstream call starts so idle time is always covered.
	// It runs at half the interval to keep the worst-case idle gap near the interval.
	tick := s.ping / 2
	if tick <= 0 {
		tick = s.ping
	}
	ticker := s.clk.Ticker(tick)
	defer ticker.Stop()
	lastEmit := s.clk.Now()

	deltas := make(chan string)
	upstreamDone := make(chan error, 1)
	go func() {
		_, err := s.eng.StreamText(ctx, s.model, msgs, s.gen, func(d string) {
			select {
			case deltas <- d:
			case <-ctx.Done():
			}
		})
		upstreamDone <- err
	}()

	abort := func(cause error) (Outcome, error) {
		cancel()
		<-upstreamDone
		return out, cause
	}
	send := func(ev Event) error {
		if err := emit(ev); err != nil {
			return fmt.Errorf("emit %s: %w", ev.Type, err)
		}
		lastEmit = s.clk.Now()
		return nil
	}
	pingIfIdle := func() error {
		if s.clk.Now().Sub(lastEmit) >= s.ping {
			return send(Ping())
		}
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return abort(ctx.Err())

		case <-ticker.C:
			if err := pingIfIdle(); err != nil {
				return abort(err)
			}

		case d := <-deltas:
			if err := pingIfIdle(); err != nil {
				return abort(err)
			}
			for _, ev := range framer.Feed(d) {
				if err := send(ev); err != nil {
					return abort(err)
				}
			}

		case upErr := <-upstreamDone:
			// onDelta blocks until each delta is taken, so nothing is left in flight here.
			if upErr != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return out, ctxErr
				}
				out.UpstreamErr = upErr
				s.log.Error("upstream stream failed", "model", s.model, "deltas", framer.Deltas(), "error", upErr)
				if err := pingIfIdle(); err != nil {
					return out, err
				}
				if err := send(Error(upstreamMessage(upErr))); err != nil {
					return out, err
				}
				return out, nil
			}

			res := contract.Validate(framer.Text())
			out.Validation = &res
			if !res.Valid {
				s.log.Warn("output contract violated", "model", s.model, "issues", res.Issues)
			} else {
				s.log.Debug("stream complete", "model", s.model, "deltas", framer.Deltas())
			}
			if err := pingIfIdle(); err != nil {
				return out, err
			}
			if err := send(Done()); err != nil {
				return out, err
			}
			return out, nil
		}
	}
}

// Repair re-runs generation once with a prompt listing the violations.
func (s *Streamer) Repair(ctx context.Context, systemPrompt string, original string, issues []string, emit EmitFunc) (Outcome, error) {
	return s.Stream(ctx, Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   BuildRepairPrompt(original, issues),
	}, emit)
}

func BuildRepairPrompt(original string, issues []string) string {
	var b strings.Builder
	b.WriteString("Your previous response violated the output contract.\n\n")
	b.WriteString("Issues found:\n")
	for i, issue := range issues {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(issue)
	}
	b.WriteString("\n\nFix the issues and return the FULL spec again. Ensure:\n")
	b.WriteString("1. Include the " + contract.Delimiter + " delimiter\n")
	b.WriteString(fmt.Sprintf("2. Include ALL %d sections with exact headers\n", len(contract.RequiredSections)))
	b.WriteString("3. Use only Markdown (no HTML or JSX)\n\n")
	b.WriteString("Previous output for reference:\n")
	b.WriteString(excerpt(original, repairExcerptRunes))
	b.WriteString("...\n\n")
	b.WriteString("Now output the corrected, complete specification.")
	return b.String()
}

func excerpt(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func upstreamMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "upstream provider timed out"
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return "upstream provider error"
	}
	return msg
}

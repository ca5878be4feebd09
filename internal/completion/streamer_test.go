package completion

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/facebookgo/clock"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/yungbote/specforge-backend/internal/contract"
	"github.com/yungbote/specforge-backend/internal/engine"
)

// chanEngine hands the test full control over delta timing.
type chanEngine struct {
	deltas  chan string
	finish  chan error
	started chan struct{}

	mu   sync.Mutex
	msgs []engine.Message
	opts engine.GenerateOptions
}

func newChanEngine() *chanEngine {
	return &chanEngine{
		deltas:  make(chan string),
		finish:  make(chan error, 1),
		started: make(chan struct{}),
	}
}

func (e *chanEngine) GenerateText(context.Context, string, []engine.Message, engine.GenerateOptions) (string, error) {
	return "", errors.New("not used")
}

func (e *chanEngine) StreamText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions, onDelta func(string)) (string, error) {
	e.mu.Lock()
	e.msgs = messages
	e.opts = opts
	e.mu.Unlock()
	close(e.started)

	var full strings.Builder
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case err := <-e.finish:
			if err != nil {
				return "", err
			}
			return full.String(), nil
		case d := <-e.deltas:
			full.WriteString(d)
			onDelta(d)
		}
	}
}

// sliceEngine replays fixed deltas and then returns err.
type sliceEngine struct {
	deltas []string
	err    error
	msgs   []engine.Message
}

func (e *sliceEngine) GenerateText(context.Context, string, []engine.Message, engine.GenerateOptions) (string, error) {
	return "", errors.New("not used")
}

func (e *sliceEngine) StreamText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions, onDelta func(string)) (string, error) {
	e.msgs = messages
	for _, d := range e.deltas {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		onDelta(d)
	}
	if e.err != nil {
		return "", e.err
	}
	return strings.Join(e.deltas, ""), nil
}

type recorder struct {
	mu     sync.Mutex
	events []Event
	ch     chan Event
}

func newRecorder() *recorder { return &recorder{ch: make(chan Event, 64)} }

func (r *recorder) emit(ev Event) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	r.ch <- ev
	return nil
}

func (r *recorder) next(t *testing.T) Event {
	t.Helper()
	select {
	case ev := <-r.ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
		return Event{}
	}
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func validSpecDeltas() []string {
	var b strings.Builder
	b.WriteString("Here is your spec.\n" + contract.Delimiter + "\n\n")
	for _, h := range contract.RequiredSections {
		b.WriteString(h + "\nbody\n\n")
	}
	text := b.String()
	var out []string
	for len(text) > 0 {
		n := 7
		if n > len(text) {
			n = len(text)
		}
		out = append(out, text[:n])
		text = text[n:]
	}
	return out
}

func TestStream_ValidSpec(t *testing.T) {
	defer goleak.VerifyNone(t)

	eng := &sliceEngine{deltas: validSpecDeltas()}
	s := NewStreamer(eng, Options{Model: "gpt-4o", Clock: clock.NewMock()})
	rec := newRecorder()

	out, err := s.Stream(context.Background(), Request{SystemPrompt: "SYS", UserPrompt: "idea"}, rec.emit)
	require.NoError(t, err)

	events := rec.all()
	require.NotEmpty(t, events)
	assert.Equal(t, Done(), events[len(events)-1])

	delims, terminals := 0, 0
	for _, ev := range events {
		if ev.Type == EventDelimiter {
			delims++
		}
		if ev.Terminal() {
			terminals++
		}
	}
	assert.Equal(t, 1, delims)
	assert.Equal(t, 1, terminals)

	require.NotNil(t, out.Validation)
	assert.True(t, out.Validation.Valid, "issues: %v", out.Validation.Issues)
	assert.True(t, out.DelimiterSeen)
	assert.Equal(t, strings.Join(eng.deltas, ""), out.Text)
}

func TestStream_MessageOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	eng := &sliceEngine{deltas: []string{"ok"}}
	s := NewStreamer(eng, Options{Model: "gpt-4o", Clock: clock.NewMock()})

	_, err := s.Stream(context.Background(), Request{
		SystemPrompt: "SYS",
		UserPrompt:   "now",
		History: []engine.Message{
			{Role: engine.RoleUser, Content: "one"},
			{Role: engine.RoleAssistant, Content: "two"},
		},
	}, func(Event) error { return nil })
	require.NoError(t, err)

	want := []engine.Message{
		{Role: engine.RoleSystem, Content: "SYS"},
		{Role: engine.RoleUser, Content: "one"},
		{Role: engine.RoleAssistant, Content: "two"},
		{Role: engine.RoleUser, Content: "now"},
	}
	if diff := cmp.Diff(want, eng.msgs); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestStream_InvalidOutputStillEndsWithDone(t *testing.T) {
	defer goleak.VerifyNone(t)

	eng := &sliceEngine{deltas: []string{"### 1. Project Overview\n", "<div>oops</div>"}}
	s := NewStreamer(eng, Options{Clock: clock.NewMock()})
	rec := newRecorder()

	out, err := s.Stream(context.Background(), Request{SystemPrompt: "SYS", UserPrompt: "idea"}, rec.emit)
	require.NoError(t, err)

	want := []Event{Token("### 1. Project Overview\n"), Token("<div>oops</div>"), Done()}
	if diff := cmp.Diff(want, rec.all()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	require.NotNil(t, out.Validation)
	assert.False(t, out.Validation.Valid)
	assert.Contains(t, out.Validation.Issues, "HTML/JSX detected: <div[^>]*>")
}

func TestStream_UpstreamErrorIsSingleTerminalEvent(t *testing.T) {
	defer goleak.VerifyNone(t)

	eng := &sliceEngine{deltas: []string{"partial"}, err: errors.New("connection reset by peer")}
	s := NewStreamer(eng, Options{Clock: clock.NewMock()})
	rec := newRecorder()

	out, err := s.Stream(context.Background(), Request{SystemPrompt: "SYS", UserPrompt: "idea"}, rec.emit)
	require.NoError(t, err)

	want := []Event{Token("partial"), Error("connection reset by peer")}
	if diff := cmp.Diff(want, rec.all()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, out.Validation)
	assert.Error(t, out.UpstreamErr)
}

func TestStream_PingWhileIdle(t *testing.T) {
	defer goleak.VerifyNone(t)

	clk := clock.NewMock()
	eng := newChanEngine()
	s := NewStreamer(eng, Options{Clock: clk, PingInterval: 10 * time.Second})
	rec := newRecorder()

	done := make(chan error, 1)
	go func() {
		_, err := s.Stream(context.Background(), Request{SystemPrompt: "SYS", UserPrompt: "idea"}, rec.emit)
		done <- err
	}()

	<-eng.started
	clk.Add(10 * time.Second)
	assert.Equal(t, Ping(), rec.next(t))

	eng.deltas <- "hello"
	assert.Equal(t, Token("hello"), rec.next(t))

	eng.finish <- nil
	assert.Equal(t, Done(), rec.next(t))
	require.NoError(t, <-done)

	want := []Event{Ping(), Token("hello"), Done()}
	if diff := cmp.Diff(want, rec.all()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestStream_NoPingWhileBusy(t *testing.T) {
	defer goleak.VerifyNone(t)

	clk := clock.NewMock()
	eng := newChanEngine()
	s := NewStreamer(eng, Options{Clock: clk, PingInterval: 10 * time.Second})
	rec := newRecorder()

	done := make(chan error, 1)
	go func() {
		_, err := s.Stream(context.Background(), Request{SystemPrompt: "SYS", UserPrompt: "idea"}, rec.emit)
		done <- err
	}()
	<-eng.started

	for i := 0; i < 5; i++ {
		clk.Add(4 * time.Second)
		eng.deltas <- "x"
		assert.Equal(t, Token("x"), rec.next(t))
	}
	eng.finish <- nil
	assert.Equal(t, Done(), rec.next(t))
	require.NoError(t, <-done)

	for _, ev := range rec.all() {
		assert.NotEqual(t, EventPing, ev.Type)
	}
}

func TestStream_CallerCancelReleasesUpstream(t *testing.T) {
	defer goleak.VerifyNone(t)

	eng := newChanEngine()
	s := NewStreamer(eng, Options{Clock: clock.NewMock()})
	rec := newRecorder()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := s.Stream(ctx, Request{SystemPrompt: "SYS", UserPrompt: "idea"}, rec.emit)
		done <- err
	}()

	<-eng.started
	eng.deltas <- "first"
	assert.Equal(t, Token("first"), rec.next(t))

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatalf("stream did not stop after cancel")
	}
	for _, ev := range rec.all() {
		assert.False(t, ev.Terminal(), "no terminal event is sent to a caller that left")
	}
}

func TestStream_EmitFailureStopsUpstream(t *testing.T) {
	defer goleak.VerifyNone(t)

	eng := newChanEngine()
	s := NewStreamer(eng, Options{Clock: clock.NewMock()})
	broken := errors.New("broken pipe")

	done := make(chan error, 1)
	go func() {
		_, err := s.Stream(context.Background(), Request{SystemPrompt: "SYS", UserPrompt: "idea"}, func(Event) error { return broken })
		done <- err
	}()

	<-eng.started
	eng.deltas <- "x"
	select {
	case err := <-done:
		assert.ErrorIs(t, err, broken)
	case <-time.After(2 * time.Second):
		t.Fatalf("stream did not stop after emit failure")
	}
}

func TestBuildRepairPrompt(t *testing.T) {
	original := strings.Repeat("é", 2500)
	p := BuildRepairPrompt(original, []string{"Missing ---SPEC_START--- delimiter", "Missing section: ### 8. AI Agent Instructions"})

	assert.True(t, strings.HasPrefix(p, "Your previous response violated the output contract.\n\nIssues found:\n- Missing ---SPEC_START--- delimiter\n- Missing section: ### 8. AI Agent Instructions\n\n"))
	assert.Contains(t, p, "1. Include the ---SPEC_START--- delimiter")
	assert.Contains(t, p, "2. Include ALL 8 sections with exact headers")
	assert.Contains(t, p, "3. Use only Markdown (no HTML or JSX)")
	assert.True(t, strings.HasSuffix(p, "Now output the corrected, complete specification."))

	start := strings.Index(p, "Previous output for reference:\n") + len("Previous output for reference:\n")
	end := strings.Index(p, "...\n\nNow output")
	require.True(t, start > 0 && end > start)
	assert.Equal(t, 2000, utf8.RuneCountInString(p[start:end]))
}

func TestRepair_StreamsOnceWithRepairPrompt(t *testing.T) {
	defer goleak.VerifyNone(t)

	eng := &sliceEngine{deltas: validSpecDeltas()}
	s := NewStreamer(eng, Options{Clock: clock.NewMock()})
	rec := newRecorder()

	out, err := s.Repair(context.Background(), "SYS", "<div>bad</div>", []string{"HTML/JSX detected: <div[^>]*>"}, rec.emit)
	require.NoError(t, err)
	require.NotNil(t, out.Validation)
	assert.True(t, out.Validation.Valid)

	require.Len(t, eng.msgs, 2)
	assert.Equal(t, "SYS", eng.msgs[0].Content)
	assert.Contains(t, eng.msgs[1].Content, "- HTML/JSX detected: <div[^>]*>")
	assert.Contains(t, eng.msgs[1].Content, "<div>bad</div>...")
}

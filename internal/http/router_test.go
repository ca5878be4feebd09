package http

import (
	"bufio"
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/facebookgo/clock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/specforge-backend/internal/completion"
	promptrepo "github.com/yungbote/specforge-backend/internal/data/repos/prompts"
	"github.com/yungbote/specforge-backend/internal/data/repos/testutil"
	"github.com/yungbote/specforge-backend/internal/data/seed"
	types "github.com/yungbote/specforge-backend/internal/domain"
	"github.com/yungbote/specforge-backend/internal/engine/mock"
	httpH "github.com/yungbote/specforge-backend/internal/http/handlers"
	httpMW "github.com/yungbote/specforge-backend/internal/http/middleware"
	"github.com/yungbote/specforge-backend/internal/prompt"
	"github.com/yungbote/specforge-backend/internal/questions"
	"github.com/yungbote/specforge-backend/internal/specgen"
)

const testKey = "test-secret-key"

func testHandler(t *testing.T) (nethttp.Handler, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := testutil.Logger(t)
	gdb := testutil.DB(t)
	repo := promptrepo.NewPromptRepo(gdb, log)
	frags, err := seed.Default()
	require.NoError(t, err)
	_, err = seed.Apply(context.Background(), gdb, repo, frags)
	require.NoError(t, err)

	cache := prompt.NewCache(repo, prompt.CacheOptions{Clock: clock.NewMock(), Logger: log})
	eng := mock.New()
	svc := specgen.NewService(
		prompt.NewComposer(cache, log),
		completion.NewStreamer(eng, completion.Options{Model: "mock", Clock: clock.NewMock(), Logger: log}),
		questions.NewGenerator(eng, "mock", log),
		specgen.Options{MaxPromptLength: 10000, QuestionSetVersion: 1},
		log,
	)

	r := NewRouter(RouterConfig{
		Log:                log,
		ServiceName:        "specforge-test",
		AllowedOrigins:     []string{"http://localhost:3000"},
		MaxBodyBytes:       1 << 20,
		AuthMiddleware:     httpMW.NewAuthMiddleware(log, testKey),
		HealthHandler:      httpH.NewHealthHandler("1.0.0", "test"),
		ChatHandler:        httpH.NewChatHandler(log, svc),
		QuestionsHandler:   httpH.NewQuestionsHandler(svc),
		PromptAdminHandler: httpH.NewPromptAdminHandler(log, cache, repo, nil),
	})
	return r, gdb
}

func post(h nethttp.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(nethttp.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(httpMW.HeaderAPIKey, testKey)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

type sseEvent struct {
	name string
	data string
}

func readSSE(t *testing.T, body string) []sseEvent {
	t.Helper()
	var (
		out  []sseEvent
		cur  sseEvent
		data []string
	)
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if cur.name != "" {
				cur.data = strings.Join(data, "\n")
				out = append(out, cur)
			}
			cur, data = sseEvent{}, nil
		case strings.HasPrefix(line, "event: "):
			cur.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = append(data, strings.TrimPrefix(line, "data: "))
		}
	}
	require.NoError(t, sc.Err())
	return out
}

func TestHealth(t *testing.T) {
	h, _ := testHandler(t)
	req := httptest.NewRequest(nethttp.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, nethttp.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"healthy","version":"1.0.0","environment":"test"}`, rr.Body.String())
}

func TestChat_AuthRequired(t *testing.T) {
	h, _ := testHandler(t)
	req := httptest.NewRequest(nethttp.MethodPost, "/api/v1/chat", strings.NewReader(`{"prompt":"x"}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, nethttp.StatusUnauthorized, rr.Code)
}

func TestChat_FollowupStreamsFullSpec(t *testing.T) {
	h, _ := testHandler(t)
	rr := post(h, "/api/v1/chat", `{
		"prompt":"Web, email login, Postgres",
		"messages":[{"role":"user","content":"a recipe app"},{"role":"assistant","content":"Which platform?"}],
		"specMode":"production-ready",
		"targetAgent":"cursor"
	}`)

	require.Equal(t, nethttp.StatusOK, rr.Code, rr.Body.String())
	assert.True(t, strings.HasPrefix(rr.Header().Get("Content-Type"), "text/event-stream"))

	events := readSSE(t, rr.Body.String())
	require.NotEmpty(t, events)
	assert.Equal(t, "done", events[len(events)-1].name)

	var delims int
	var post strings.Builder
	seenDelim := false
	for _, ev := range events {
		switch ev.name {
		case "delimiter":
			delims++
			seenDelim = true
			assert.Equal(t, "---SPEC_START---", ev.data)
		case "token":
			if seenDelim {
				post.WriteString(ev.data)
			}
		case "error":
			t.Fatalf("unexpected error event: %q", ev.data)
		}
	}
	assert.Equal(t, 1, delims)
	assert.Contains(t, post.String(), "### 8. AI Agent Instructions")
}

func TestChat_InitialAsksQuestions(t *testing.T) {
	h, _ := testHandler(t)
	rr := post(h, "/api/v1/chat", `{"prompt":"a recipe app"}`)
	require.Equal(t, nethttp.StatusOK, rr.Code)

	events := readSSE(t, rr.Body.String())
	require.NotEmpty(t, events)
	assert.Equal(t, "token", events[0].name)
	assert.Contains(t, events[0].data, "questions")
	assert.Equal(t, "done", events[len(events)-1].name)
}

func TestChat_ValidationErrorsAreJSON(t *testing.T) {
	h, _ := testHandler(t)

	rr := post(h, "/api/v1/chat", `{"prompt":"x","specMode":"enterprise"}`)
	assert.Equal(t, nethttp.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"code":"invalid_request"`)

	rr = post(h, "/api/v1/chat", `not json`)
	assert.Equal(t, nethttp.StatusBadRequest, rr.Code)

	rr = post(h, "/api/v1/chat", `{"specMode":"mvp"}`)
	assert.Equal(t, nethttp.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "prompt is required")
	assert.NotContains(t, rr.Body.String(), "event:")

	rr = post(h, "/api/v1/questions", `{"targetAgent":"v0"}`)
	assert.Equal(t, nethttp.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "prompt is required")
}

func TestChat_MissingSpecModeIs422(t *testing.T) {
	h, gdb := testHandler(t)
	require.NoError(t, gdb.Model(&types.SpecModePrompt{}).
		Where("mode = ?", prompt.ModeProductionReady).
		Update("is_active", false).Error)

	rr := post(h, "/api/v1/chat", `{"prompt":"x","specMode":"production-ready"}`)
	assert.Equal(t, nethttp.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), `"code":"missing_prompt_fragment"`)
	assert.NotContains(t, rr.Body.String(), "event:")
}

func TestRepair(t *testing.T) {
	h, _ := testHandler(t)

	rr := post(h, "/api/v1/chat/repair", `{"output":"<div>spec</div>"}`)
	require.Equal(t, nethttp.StatusOK, rr.Code)
	events := readSSE(t, rr.Body.String())
	require.NotEmpty(t, events)
	assert.Equal(t, "done", events[len(events)-1].name)

	rr = post(h, "/api/v1/chat/repair", `{"output":"just questions, no problems here"}`)
	assert.Equal(t, nethttp.StatusOK, rr.Code, "a missing delimiter is still a violation")
}

func TestQuestions(t *testing.T) {
	h, _ := testHandler(t)
	rr := post(h, "/api/v1/questions", `{"prompt":"a recipe app","specMode":"mvp","targetAgent":"v0"}`)
	require.Equal(t, nethttp.StatusOK, rr.Code, rr.Body.String())

	var out questions.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Equal(t, 1, out.QuestionSetVersion)
	assert.GreaterOrEqual(t, len(out.Questions), 3)
	assert.LessOrEqual(t, len(out.Questions), 5)
	for _, q := range out.Questions {
		assert.GreaterOrEqual(t, len(q.Options), 2)
		assert.Less(t, q.RecommendedIndex, len(q.Options))
	}
}

func TestAdmin(t *testing.T) {
	h, _ := testHandler(t)

	req := httptest.NewRequest(nethttp.MethodGet, "/api/v1/admin/prompts", nil)
	req.Header.Set(httpMW.HeaderAPIKey, testKey)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, nethttp.StatusOK, rr.Code)

	var list struct {
		Prompts []prompt.Fragment `json:"prompts"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Len(t, list.Prompts, 11)

	rr = post(h, "/api/v1/admin/prompts/cache/clear", ``)
	require.Equal(t, nethttp.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"cleared":true`)
	assert.Contains(t, rr.Body.String(), `"broadcast":false`)
}

package questions

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/specforge-backend/internal/engine"
)

type fakeEngine struct {
	out  string
	err  error
	msgs []engine.Message
	opts engine.GenerateOptions
}

func (f *fakeEngine) GenerateText(_ context.Context, _ string, msgs []engine.Message, opts engine.GenerateOptions) (string, error) {
	f.msgs = msgs
	f.opts = opts
	return f.out, f.err
}

func (f *fakeEngine) StreamText(context.Context, string, []engine.Message, engine.GenerateOptions, func(string)) (string, error) {
	return "", errors.New("not used")
}

func TestParse_Normalizes(t *testing.T) {
	got, err := Parse(`{"questions":[
		{"id":"scale","question":"How many users?","options":["10","1k","1M"],"recommendedIndex":7,"required":false},
		{"question":"Auth?","options":["a","b","c","d","e","f","g"],"recommendedIndex":6},
		{"question":"Missing index","options":["x","y"]}
	]}`)
	require.NoError(t, err)

	want := []Question{
		{ID: "scale", Question: "How many users?", Options: []string{"10", "1k", "1M"}, RecommendedIndex: 2, Required: false},
		{ID: "q2", Question: "Auth?", Options: []string{"a", "b", "c", "d", "e"}, RecommendedIndex: 4, Required: true},
		{ID: "q3", Question: "Missing index", Options: []string{"x", "y"}, RecommendedIndex: 0, Required: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("normalized mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_TruncatesToFive(t *testing.T) {
	got, err := Parse(`{"questions":[{},{},{},{},{},{},{}]}`)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, "q5", got[4].ID)
	assert.Equal(t, 0, got[4].RecommendedIndex)
	assert.NotNil(t, got[4].Options)
}

func TestParse_MissingQuestionsKey(t *testing.T) {
	got, err := Parse(`{"something":"else"}`)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParse_InvalidJSON(t *testing.T) {
	_, err := Parse("Sure! Here are some questions:")
	assert.ErrorIs(t, err, ErrInvalidProviderResponse)
}

func TestGenerator_RequestsJSONObject(t *testing.T) {
	eng := &fakeEngine{out: `{"questions":[{"id":"a","question":"A?","options":["1","2"],"recommendedIndex":1}]}`}
	g := NewGenerator(eng, "gpt-4o", nil)

	got, err := g.Generate(context.Background(), "SYS", "USER")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].RecommendedIndex)

	assert.True(t, eng.opts.JSONObject)
	assert.Equal(t, DefaultTemperature, eng.opts.Temperature)
	want := []engine.Message{
		{Role: engine.RoleSystem, Content: "SYS"},
		{Role: engine.RoleUser, Content: "USER"},
	}
	if diff := cmp.Diff(want, eng.msgs); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerator_Errors(t *testing.T) {
	upstream := errors.New("503 from provider")
	_, err := NewGenerator(&fakeEngine{err: upstream}, "m", nil).Generate(context.Background(), "s", "u")
	assert.ErrorIs(t, err, upstream)

	_, err = NewGenerator(&fakeEngine{out: "not json"}, "m", nil).Generate(context.Background(), "s", "u")
	assert.ErrorIs(t, err, ErrInvalidProviderResponse)
}

func TestFallback_RecommendationsByMode(t *testing.T) {
	mvp := Fallback("mvp")
	prod := Fallback("production-ready")
	require.Len(t, mvp, 3)
	require.Len(t, prod, 3)

	idx := func(qs []Question) []int {
		out := make([]int, 0, len(qs))
		for _, q := range qs {
			out = append(out, q.RecommendedIndex)
		}
		return out
	}
	assert.Equal(t, []int{0, 0, 0}, idx(mvp))
	assert.Equal(t, []int{3, 1, 3}, idx(prod))
	assert.Equal(t, []string{"platform", "auth", "database"}, []string{prod[0].ID, prod[1].ID, prod[2].ID})
}

func TestEnsureMinimum(t *testing.T) {
	own := []Question{{ID: "auth", Question: "Login?", Options: []string{"yes", "no"}}}
	got := EnsureMinimum(own, "mvp")
	require.Len(t, got, 3)
	assert.Equal(t, []string{"auth", "platform", "database"}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Len(t, own, 1, "input slice is not modified")

	many := make([]Question, 7)
	assert.Len(t, EnsureMinimum(many, "mvp"), MaxQuestions)
}

func TestUsable_DropsSingleOptionQuestions(t *testing.T) {
	got := Usable([]Question{
		{ID: "a", Options: []string{"only"}},
		{ID: "b", Options: []string{"x", "y"}},
		{ID: "c"},
	})
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}

package completion

import (
	"math/rand"
	"strings"
	"testing"
	"unicode"

	"github.com/google/go-cmp/cmp"

	"github.com/yungbote/specforge-backend/internal/contract"
)

func feedAll(f *Framer, deltas ...string) []Event {
	var out []Event
	for _, d := range deltas {
		out = append(out, f.Feed(d)...)
	}
	return out
}

func TestFramer(t *testing.T) {
	cases := []struct {
		name   string
		deltas []string
		want   []Event
	}{
		{
			name:   "no delimiter",
			deltas: []string{"What ", "platform?"},
			want:   []Event{Token("What "), Token("platform?")},
		},
		{
			name:   "delimiter inside one delta",
			deltas: []string{"Sure.", "\n---SPEC_START---\n\n### 1. Project Overview", "\nText"},
			want: []Event{
				Token("Sure."),
				Delimiter(contract.Delimiter),
				Token("### 1. Project Overview"),
				Token("\nText"),
			},
		},
		{
			name:   "delimiter split across deltas",
			deltas: []string{"Ok\n---SPEC", "_STA", "RT---", "\n", "### 1"},
			want: []Event{
				Token("Ok\n---SPEC"),
				Token("_STA"),
				Delimiter(contract.Delimiter),
				Token("\n"),
				Token("### 1"),
			},
		},
		{
			name:   "delimiter at very end",
			deltas: []string{"Ok ", "---SPEC_START---"},
			want:   []Event{Token("Ok "), Delimiter(contract.Delimiter)},
		},
		{
			name:   "second marker is plain content",
			deltas: []string{"---SPEC_START---", "a ---SPEC_START--- b"},
			want:   []Event{Delimiter(contract.Delimiter), Token("a ---SPEC_START--- b")},
		},
		{
			name:   "empty deltas are ignored",
			deltas: []string{"", "x", ""},
			want:   []Event{Token("x")},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := NewFramer(contract.Delimiter)
			got := feedAll(f, tc.deltas...)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("events mismatch (-want +got):\n%s", diff)
			}
			if f.Text() != strings.Join(tc.deltas, "") {
				t.Fatalf("Text()=%q", f.Text())
			}
		})
	}
}

// Post-delimiter tokens must add up to the text after the marker, modulo leading whitespace,
// however the provider happens to chunk the stream.
func TestFramer_AnySplitPreservesPostDelimiterText(t *testing.T) {
	text := "Here you go, a full spec.\n" + contract.Delimiter + "\n\n" +
		"### 1. Project Overview\nA todo app.\n\n### 2. Technical Stack\nGo, Postgres.\n"
	after := text[strings.Index(text, contract.Delimiter)+len(contract.Delimiter):]
	wantPost := strings.TrimLeftFunc(after, unicode.IsSpace)

	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 200; iter++ {
		var deltas []string
		for rest := text; rest != ""; {
			n := 1 + rng.Intn(12)
			if n > len(rest) {
				n = len(rest)
			}
			deltas = append(deltas, rest[:n])
			rest = rest[n:]
		}

		f := NewFramer(contract.Delimiter)
		events := feedAll(f, deltas...)

		delims := 0
		var post strings.Builder
		for _, ev := range events {
			switch ev.Type {
			case EventDelimiter:
				delims++
			case EventToken:
				if delims > 0 {
					post.WriteString(ev.Data)
				}
			}
		}
		if delims != 1 {
			t.Fatalf("split %q: delimiter events=%d", deltas, delims)
		}
		if got := strings.TrimLeftFunc(post.String(), unicode.IsSpace); got != wantPost {
			t.Fatalf("split %q: post=%q want %q", deltas, got, wantPost)
		}
		if f.Text() != text {
			t.Fatalf("split %q: Text() mismatch", deltas)
		}
	}
}

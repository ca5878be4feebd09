package completion

import (
	"strings"
	"unicode"
)

type phase int

const (
	phasePreDelimiter phase = iota
	phasePostDelimiter
)

// Framer turns raw provider deltas into token and delimiter events.
//
// Before the marker is seen every delta is passed through as a token while the text is
// buffered for marker detection. The delta that completes the marker produces exactly one
// delimiter event followed by the left-trimmed remainder after the marker, if any; text
// before the marker in that delta is not re-emitted. After that every delta is a token.
type Framer struct {
	marker  string
	phase   phase
	pending strings.Builder
	full    strings.Builder
	deltas  int
}

func NewFramer(marker string) *Framer {
	return &Framer{marker: marker}
}

func (f *Framer) Feed(delta string) []Event {
	if delta == "" {
		return nil
	}
	f.deltas++
	f.full.WriteString(delta)

	if f.phase == phasePostDelimiter || f.marker == "" {
		return []Event{Token(delta)}
	}

	// Only the tail that could hold a marker crossing the previous boundary needs scanning.
	start := f.pending.Len() - len(f.marker) + 1
	if start < 0 {
		start = 0
	}
	f.pending.WriteString(delta)
	buf := f.pending.String()

	idx := strings.Index(buf[start:], f.marker)
	if idx < 0 {
		return []Event{Token(delta)}
	}

	post := buf[start+idx+len(f.marker):]
	f.phase = phasePostDelimiter
	f.pending.Reset()

	events := []Event{Delimiter(f.marker)}
	if trimmed := strings.TrimLeftFunc(post, unicode.IsSpace); trimmed != "" {
		events = append(events, Token(trimmed))
	}
	return events
}

// Text is every delta fed so far, across both phases.
func (f *Framer) Text() string { return f.full.String() }

func (f *Framer) DelimiterSeen() bool { return f.phase == phasePostDelimiter }

func (f *Framer) Deltas() int { return f.deltas }

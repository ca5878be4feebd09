package oaihttp

import (
	"bufio"
	"io"
	"strings"
)

// maxSSELine bounds one upstream line; completion chunks are far smaller.
const maxSSELine = 1 << 20

// streamSSE reads a server-sent event stream and calls onEvent once per dispatched event,
// stopping at the first error onEvent returns. Comment lines and unknown fields are skipped.
// A final event that is not followed by a blank line is still dispatched.
func streamSSE(r io.Reader, onEvent func(event string, data string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxSSELine)

	var (
		name    string
		data    strings.Builder
		hasData bool
	)
	dispatch := func() error {
		ev, payload, ok := name, data.String(), hasData
		name, hasData = "", false
		data.Reset()
		if !ok || onEvent == nil {
			return nil
		}
		return onEvent(ev, payload)
	}

	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if line == "" {
			if err := dispatch(); err != nil {
				return err
			}
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "":
			// comment
		case "event":
			name = strings.TrimSpace(value)
		case "data":
			if hasData {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			hasData = true
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return dispatch()
}

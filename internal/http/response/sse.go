package response

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// StartSSE writes the event-stream headers and flushes them.
func StartSSE(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// lineBreaks folds every EventSource line terminator into "\n".
var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// WriteSSE frames one event. Multi-line data is sent as one data line per line so clients
// rebuild it by joining with "\n". A bare "\r" counts as a line break.
func WriteSSE(w io.Writer, event string, data string) error {
	if strings.TrimSpace(event) != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", strings.TrimSpace(event)); err != nil {
			return err
		}
	}
	for _, line := range strings.Split(lineBreaks.Replace(data), "\n") {
		if _, err := fmt.Fprintf(w, "data: %s\n", line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, "\n")
	return err
}

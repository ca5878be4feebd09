package oaihttp

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxErrorBody = 512

// HTTPError is a non-2xx upstream response. Message is the provider's own error message
// when the body carried one.
type HTTPError struct {
	StatusCode int
	Message    string
	Body       string
}

func newHTTPError(resp *http.Response) *HTTPError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	e := &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}

	var env struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(raw, &env) == nil && len(env.Error) > 0 {
		e.Message = errorMessage(env.Error)
	}
	return e
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "upstream http error"
	}
	if e.Message != "" {
		return fmt.Sprintf("upstream http error: status=%d: %s", e.StatusCode, e.Message)
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("upstream http error: status=%d", e.StatusCode)
	}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody] + "..."
	}
	return fmt.Sprintf("upstream http error: status=%d body=%s", e.StatusCode, body)
}

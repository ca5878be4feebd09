package ctxutil

import "context"

type traceDataKey struct{}

// TraceData identifies one API request across logs, spans and response headers.
// It is stored by pointer so later middleware can fill in CallerID.
type TraceData struct {
	TraceID   string
	RequestID string
	// CallerID is the rate-limit identity: an API key prefix or the client IP.
	CallerID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

// SetCallerID records the caller on the request's TraceData. It reports false when the
// context carries none.
func SetCallerID(ctx context.Context, caller string) bool {
	td := GetTraceData(ctx)
	if td == nil {
		return false
	}
	td.CallerID = caller
	return true
}

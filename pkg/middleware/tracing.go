package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type traceKey struct{}

const TraceHeader = "X-Trace-Id"

// TraceMiddleware generates or propagates the request trace id.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceHeader)
		if traceID == "" {
			traceID = uuid.New().String()
		}
		w.Header().Set(TraceHeader, traceID)

		ctx := context.WithValue(r.Context(), traceKey{}, traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetTraceID(r *http.Request) string {
	return TraceIDFromContext(r.Context())
}

func TraceIDFromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(traceKey{}).(string); ok {
		return traceID
	}
	return ""
}

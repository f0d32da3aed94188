package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/hookrelay-backend/pkg/logger"
)

const (
	requestIDHeader = "X-HookRelay-Request-Id"
	// proxies and load balancers commonly forward this one
	upstreamRequestIDHeader = "X-Request-Id"

	maxRequestIDLen = 64
)

// RequestID tags the request with an id for log correlation. A caller-supplied
// id is reused only when it is short and plain, since the inbound route is public.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = r.Header.Get(upstreamRequestIDHeader)
			}
			if !validRequestID(reqID) {
				reqID = uuid.NewString()
			}

			w.Header().Set(requestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.', c == ':':
		default:
			return false
		}
	}
	return true
}

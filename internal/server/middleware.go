package server

import (
	"net"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/requestctx"
)

// ClientIDMiddleware resolves the caller identity for quota accounting:
// X-Client-Id header when present, otherwise the remote IP. A correlation id
// is minted for log lines.
func ClientIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := r.Header.Get("X-Client-Id")
			if clientID == "" {
				clientID = remoteHost(r)
			}
			ctx := requestctx.SetClientID(r.Context(), clientID)
			ctx = requestctx.SetCorrelationID(ctx, uuid.NewString())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GlobalRateMiddleware applies the whole-process token-bucket guard. The
// per-client fixed-window quota lives in the Input Guard; this only sheds
// load under aggregate bursts. A nil limiter disables it.
func GlobalRateMiddleware(limiter *rate.Limiter) func(http.Handler) http.Handler {
	if limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				writeAPIError(w, http.StatusTooManyRequests, codeRateLimited,
					"too many requests, please retry shortly", "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CORSMiddleware sets CORS headers. allowedOrigins can be ["*"] for any.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAll := false
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
			break
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if allowAll {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else if origin != "" {
				for _, o := range allowedOrigins {
					if o == origin {
						w.Header().Set("Access-Control-Allow-Origin", origin)
						break
					}
				}
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, X-Client-Id")
			w.Header().Set("Access-Control-Max-Age", "300")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

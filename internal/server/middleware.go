package server

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

type ctxKey int

const requestIDKey ctxKey = iota

// RequestID returns the id assigned to the request, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// withRequestID tags each request with an id, echoed in X-Request-ID.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// withRecover turns a panic in a handler into a 500 response.
func withRecover(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				logger.Error("panic serving request", "request_id", RequestID(r.Context()), "path", r.URL.Path, "panic", v)
				writeJSONError(logger, w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// withBodyLimit caps request bodies at n bytes.
func withBodyLimit(n int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, n)
		next.ServeHTTP(w, r)
	})
}

// originMatcher accepts exact origins and single-label wildcards such as
// "https://*.vercel.app".
type originMatcher struct {
	exact    map[string]bool
	wildcard []wildcardOrigin
	any      bool
}

type wildcardOrigin struct {
	scheme string
	suffix string // ".vercel.app"
}

func newOriginMatcher(origins []string) originMatcher {
	m := originMatcher{exact: make(map[string]bool)}
	for _, o := range origins {
		o = strings.TrimSuffix(o, "/")
		switch {
		case o == "*":
			m.any = true
		case strings.Contains(o, "://*."):
			scheme, host, _ := strings.Cut(o, "://")
			m.wildcard = append(m.wildcard, wildcardOrigin{scheme: scheme, suffix: host[1:]})
		default:
			m.exact[o] = true
		}
	}
	return m
}

func (m originMatcher) allowed(origin string) bool {
	if origin == "" {
		return false
	}
	if m.any || m.exact[origin] {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	for _, w := range m.wildcard {
		if u.Scheme != w.scheme || !strings.HasSuffix(u.Host, w.suffix) {
			continue
		}
		label := strings.TrimSuffix(u.Host, w.suffix)
		if label != "" && !strings.Contains(label, ".") {
			return true
		}
	}
	return false
}

// withCORS adds CORS headers for allowed origins and answers preflights.
func withCORS(origins []string, next http.Handler) http.Handler {
	m := newOriginMatcher(origins)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		w.Header().Add("Vary", "Origin")
		if m.allowed(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
				h.Set("Access-Control-Allow-Headers", req)
			} else {
				h.Set("Access-Control-Allow-Headers", "Content-Type")
			}
		}
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

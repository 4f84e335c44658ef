// internal/handlers/middleware/middleware.go
package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/justinas/alice"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/ammerola/greencycle-be/internal/pkg/logger"
)

const (
	DefaultRequestIDHeader = "X-Request-ID"
	DefaultSessionHeader   = "X-Session-ID"
	SessionCookie          = "gc_session"

	slowRequestThreshold = 5 * time.Second
	limiterIdleTTL       = 10 * time.Minute
)

// Options configures the standard chain
type Options struct {
	RequestIDHeader   string
	SessionHeader     string
	AllowedOrigins    []string
	TrustedProxies    []string
	RateLimitRequests int
	RateLimitDuration time.Duration
	SecureHeaders     bool
	RequestTimeout    time.Duration
}

// Chain builds the middleware stack shared by every API route.
// Order: recovery, CORS, security headers, ids, logging, rate limit, timeout.
func Chain(ctx context.Context, opts Options, l *slog.Logger) alice.Chain {
	chain := alice.New(Recovery(l))
	if len(opts.AllowedOrigins) > 0 {
		chain = chain.Append(CORS(opts.AllowedOrigins, opts.SessionHeader))
	}
	if opts.SecureHeaders {
		chain = chain.Append(SecureHeaders)
	}
	chain = chain.Append(
		RequestID(opts.RequestIDHeader),
		SessionID(opts.SessionHeader),
		Logger(l, opts.TrustedProxies),
	)
	if opts.RateLimitRequests > 0 {
		chain = chain.Append(RateLimit(ctx, opts.RateLimitRequests, opts.RateLimitDuration, opts.TrustedProxies))
	}
	if opts.RequestTimeout > 0 {
		chain = chain.Append(Timeout(opts.RequestTimeout))
	}
	return chain
}

// RequestID reuses the caller's request ID (from a proxy or LB) or makes one
func RequestID(header string) alice.Constructor {
	if header == "" {
		header = DefaultRequestIDHeader
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(header)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			w.Header().Set(header, requestID)
			next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), requestID)))
		})
	}
}

// SessionID identifies the browser session that owns a cart. The header wins
// over the cookie; a new session is issued when neither is present.
func SessionID(header string) alice.Constructor {
	if header == "" {
		header = DefaultSessionHeader
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := r.Header.Get(header)
			if sessionID == "" {
				if c, err := r.Cookie(SessionCookie); err == nil {
					sessionID = c.Value
				}
			}
			if sessionID == "" {
				sessionID = uuid.New().String()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    sessionID,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			w.Header().Set(header, sessionID)
			next.ServeHTTP(w, r.WithContext(logger.WithSessionID(r.Context(), sessionID)))
		})
	}
}

// Logger logs request start and completion with status-dependent level
func Logger(l *slog.Logger, trustedProxies []string) alice.Constructor {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ctx := r.Context()
			ctx = context.WithValue(ctx, logger.ContextKeyClientIP, ClientIP(r, trustedProxies))
			ctx = context.WithValue(ctx, logger.ContextKeyMethod, r.Method)
			ctx = context.WithValue(ctx, logger.ContextKeyPath, r.URL.Path)

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			l.DebugContext(ctx, "request_started",
				slog.Group("request",
					slog.String("query", r.URL.RawQuery),
					slog.String("user_agent", r.UserAgent()),
					slog.String("referer", r.Referer()),
					slog.Int64("content_length", r.ContentLength),
				),
			)

			next.ServeHTTP(wrapped, r.WithContext(ctx))

			duration := time.Since(start)
			level := slog.LevelInfo
			switch {
			case wrapped.statusCode >= 500:
				level = slog.LevelError
			case wrapped.statusCode >= 400, duration > slowRequestThreshold:
				level = slog.LevelWarn
			}

			l.Log(ctx, level, "request_completed",
				slog.Group("response",
					slog.Int("status", wrapped.statusCode),
					slog.Int("bytes", wrapped.bytesWritten),
					slog.Duration("duration_ms", duration),
				),
				slog.Bool("slow_request", duration > slowRequestThreshold),
			)
		})
	}
}

// Recovery turns a panic into a 500 with the request ID
func Recovery(l *slog.Logger) alice.Constructor {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					requestID := logger.RequestID(r.Context())

					l.ErrorContext(r.Context(), "panic recovered",
						slog.Any("error", err),
						slog.String("stack", string(debug.Stack())),
					)

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					w.Write([]byte(`{"error":"Internal Server Error","request_id":"` + requestID + `"}`))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

type rateLimiter struct {
	limiter  *rate.Limiter
	mu       sync.Mutex
	lastSeen time.Time
}

func (rl *rateLimiter) allow(now time.Time) bool {
	rl.mu.Lock()
	rl.lastSeen = now
	rl.mu.Unlock()
	return rl.limiter.Allow()
}

func (rl *rateLimiter) idleSince(now time.Time) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return now.Sub(rl.lastSeen)
}

// RateLimit allows requests per duration for each client IP. Idle limiters
// are swept until ctx is done.
func RateLimit(ctx context.Context, requests int, duration time.Duration, trustedProxies []string) alice.Constructor {
	limiters := &sync.Map{}

	go func() {
		ticker := time.NewTicker(limiterIdleTTL)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				limiters.Range(func(key, value any) bool {
					if value.(*rateLimiter).idleSince(now) > limiterIdleTTL {
						limiters.Delete(key)
					}
					return true
				})
			}
		}
	}()

	every := rate.Every(duration / time.Duration(requests))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r, trustedProxies)

			val, _ := limiters.LoadOrStore(ip, &rateLimiter{
				limiter:  rate.NewLimiter(every, requests),
				lastSeen: time.Now(),
			})

			if !val.(*rateLimiter).allow(time.Now()) {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CORS allows the storefront origins to call the API with the session header
func CORS(allowedOrigins []string, sessionHeader string) alice.Constructor {
	if sessionHeader == "" {
		sessionHeader = DefaultSessionHeader
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization", DefaultRequestIDHeader, sessionHeader},
		ExposedHeaders:   []string{DefaultRequestIDHeader, sessionHeader, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           86400,
	})
	return c.Handler
}

// SecureHeaders adds browser security headers
func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; img-src 'self' https: data:")

		if r.TLS != nil {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

// Timeout answers 504 when the handler outlives timeout. Writes made by the
// handler after that point are discarded.
func Timeout(timeout time.Duration) alice.Constructor {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			tw := &timeoutWriter{w: w, header: make(http.Header)}
			done := make(chan struct{})
			panicked := make(chan any, 1)
			go func() {
				defer func() {
					if p := recover(); p != nil {
						panicked <- p
					}
				}()
				next.ServeHTTP(tw, r.WithContext(ctx))
				close(done)
			}()

			select {
			case p := <-panicked:
				panic(p)
			case <-done:
				tw.flush()
			case <-ctx.Done():
				tw.mu.Lock()
				defer tw.mu.Unlock()
				tw.timedOut = true
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusGatewayTimeout)
				w.Write([]byte(`{"error":"Request timeout"}`))
			}
		})
	}
}

// timeoutWriter buffers the handler's response until it finishes in time
type timeoutWriter struct {
	w        http.ResponseWriter
	header   http.Header
	mu       sync.Mutex
	buf      []byte
	status   int
	timedOut bool
}

func (tw *timeoutWriter) Header() http.Header { return tw.header }

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.status == 0 {
		tw.status = code
	}
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	if tw.status == 0 {
		tw.status = http.StatusOK
	}
	tw.buf = append(tw.buf, b...)
	return len(b), nil
}

func (tw *timeoutWriter) flush() {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	dst := tw.w.Header()
	for k, v := range tw.header {
		dst[k] = v
	}
	if tw.status == 0 {
		tw.status = http.StatusOK
	}
	tw.w.WriteHeader(tw.status)
	tw.w.Write(tw.buf)
}

type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
	written      bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.ResponseWriter.WriteHeader(code)
		rw.written = true
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// ClientIP returns the caller address. Forwarding headers are honoured only
// when the direct peer is a trusted proxy ("*" trusts every peer).
func ClientIP(r *http.Request, trustedProxies []string) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if !slices.Contains(trustedProxies, "*") && !slices.Contains(trustedProxies, host) {
		return host
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return host
}

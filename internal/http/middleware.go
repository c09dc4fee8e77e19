package httpx

import (
	"bufio"
	"compress/gzip"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/chatgrid/realtime-api/internal/service"

	apperrors "github.com/chatgrid/realtime-api/internal/errors"
)

// Visitor session sources, in priority order: query parameter, custom
// header, cookie. The first one present wins; they are never merged.
const (
	SessionQueryParam = "sessionId"
	SessionHeader     = "X-Visitor-Session-Id"
	SessionCookie     = "visitor_session_id"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Hijack delegates to the wrapped writer so websocket upgrades work behind
// the logging wrapper.
func (w *respWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hj.Hijack()
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// CredentialsFromRequest gathers the raw credential material of a request
// for the resolver. It never validates anything itself.
func CredentialsFromRequest(r *http.Request) service.Credentials {
	var sessionCookie string
	if c, err := r.Cookie(SessionCookie); err == nil {
		sessionCookie = c.Value
	}
	return service.Credentials{
		AuthorizationHeader: r.Header.Get("Authorization"),
		CookieHeader:        r.Header.Get("Cookie"),
		SessionID:           r.URL.Query().Get(SessionQueryParam),
		SessionHeader:       r.Header.Get(SessionHeader),
		SessionCookie:       sessionCookie,
	}
}

// ResolveIdentity returns a middleware that attaches the resolved identity
// to the request context when any credential resolves, and lets the request
// through unauthenticated otherwise.
func ResolveIdentity(resolver *service.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := resolver.Resolve(r.Context(), CredentialsFromRequest(r)); id != nil {
				r = r.WithContext(SetIdentityInContext(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireIdentity returns a middleware that rejects unauthenticated
// requests. The response is a single generic 401 regardless of which
// credential type failed, so callers cannot probe the ladder.
func RequireIdentity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsAnonymous(r.Context()) {
				WriteError(w, ErrorParams{
					Code:    http.StatusUnauthorized,
					ErrCode: "authentication_required",
					Err:     errors.New("authentication required"),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRoles returns a middleware that rejects requests whose identity
// has none of the allowed roles. An empty allowed list passes everything.
// Must run after ResolveIdentity.
func RequireRoles(allowed ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, _ := GetIdentityFromContext(r.Context())
			if err := service.Authorize(id, allowed); err != nil {
				code := http.StatusForbidden
				errCode := "insufficient_permissions"
				if apperrors.IsUnauthorized(err) {
					code = http.StatusUnauthorized
					errCode = "authentication_required"
				}
				WriteError(w, ErrorParams{Code: code, ErrCode: errCode, Err: errors.New(httpErrMessage(errCode))})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func httpErrMessage(errCode string) string {
	if errCode == "authentication_required" {
		return "authentication required"
	}
	return "insufficient permissions"
}

// CompressionConfig holds configuration for the compression middleware.
type CompressionConfig struct {
	// Level is the gzip level, 1-9.
	Level int
}

// Compression returns a middleware that gzip-compresses JSON and text
// responses for clients that accept it. Websocket upgrades pass through
// untouched.
func Compression(cfg CompressionConfig) func(http.Handler) http.Handler {
	level := cfg.Level
	if level < gzip.BestSpeed || level > gzip.BestCompression {
		level = gzip.DefaultCompression
	}
	pool := sync.Pool{New: func() any {
		gw, _ := gzip.NewWriterLevel(io.Discard, level)
		return gw
	}}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") ||
				strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
				next.ServeHTTP(w, r)
				return
			}

			gw := pool.Get().(*gzip.Writer)
			gw.Reset(w)
			defer func() {
				_ = gw.Close()
				gw.Reset(io.Discard)
				pool.Put(gw)
			}()

			w.Header().Set("Content-Encoding", "gzip")
			w.Header().Del("Content-Length")
			next.ServeHTTP(&gzipResponseWriter{ResponseWriter: w, gw: gw}, r)
		})
	}
}

type gzipResponseWriter struct {
	http.ResponseWriter
	gw *gzip.Writer
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	return w.gw.Write(b)
}

package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/okian/auscript/pkg/logger"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

type ctxKey struct{}

// RequestID returns the id stored by Logging, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Logging assigns a request id (reusing an incoming X-Request-ID) and logs
// one line per request once the response is written.
func Logging(next http.Handler, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), ctxKey{}, id)

		wrapped := wrap(w)
		next.ServeHTTP(wrapped, r.WithContext(ctx))

		fields := []logger.Field{
			logger.String("request_id", id),
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", wrapped.statusCode),
			logger.Int("duration_ms", int(time.Since(start).Milliseconds())),
		}
		switch {
		case wrapped.statusCode >= http.StatusInternalServerError:
			l.Error(ctx, "request failed", fields...)
		case wrapped.statusCode >= http.StatusBadRequest:
			l.Warn(ctx, "request rejected", fields...)
		default:
			l.Info(ctx, "request served", fields...)
		}
	})
}

// Recover turns a handler panic into a 500 response.
func Recover(next http.Handler, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := wrap(w)
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler { //nolint:errorlint // sentinel panic value
				panic(rec)
			}
			l.Error(r.Context(), "handler panic", logger.Any("panic", rec), logger.String("path", r.URL.Path))
			if !wrapped.wroteHeader {
				http.Error(wrapped, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(wrapped, r)
	})
}

// Chain applies the standard stack: request logging, metrics, panic recovery.
// Recover sits innermost so a recovered panic is counted as a 500.
func Chain(next http.Handler, endpoint string, l logger.Logger) http.Handler {
	return Logging(Metrics(Recover(next, l), endpoint), l)
}

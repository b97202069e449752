package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"radiocalico/internal/logging"
	"radiocalico/internal/metrics"
)

// requestContext copies the chi request ID into the logging context.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLogger logs one line per request after it completes.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		attrs := []logging.Attr{
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", status),
			logging.Int("bytes", ww.BytesWritten()),
			logging.Duration("duration", time.Since(start)),
			logging.String("client_ip", clientIP(r)),
		}
		logger := logging.WithContext(r.Context(), s.log())
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("request failed", logging.Args(attrs...)...)
		case status >= http.StatusBadRequest:
			logger.Warn("request rejected", logging.Args(attrs...)...)
		default:
			logger.Info("request", logging.Args(attrs...)...)
		}
	})
}

func (s *Server) corsMiddleware() func(http.Handler) http.Handler {
	origins := s.cfg.Server.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         86400,
	})
}

// rateLimit limits requests per connection peer, or per forwarded client IP
// when proxy headers are trusted. A zero request budget disables limiting.
func (s *Server) rateLimit() func(http.Handler) http.Handler {
	if s.cfg.Server.RateLimitRequests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		s.cfg.Server.RateLimitRequests,
		s.cfg.RateLimitWindow(),
		httprate.WithKeyFuncs(rateLimitKey(s.cfg.Server.TrustProxyHeaders)),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.RecordRateLimitHit()
			s.writeError(w, http.StatusTooManyRequests, "too many requests")
		}),
	)
}

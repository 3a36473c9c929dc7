package trace

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	applog "budgetbot/internal/log"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// HeaderRequestID is honored on input and echoed on output.
const HeaderRequestID = "X-Request-ID"

// Middleware assigns request IDs and logs every completed request.
type Middleware struct {
	extractIP func(*http.Request) string
	logger    *applog.Logger

	total   atomic.Int64
	totalUS atomic.Int64
}

type Metrics struct {
	TotalRequests       int64
	AverageResponseTime time.Duration
}

func NewMiddleware(logger *applog.Logger, extractIP func(*http.Request) string) *Middleware {
	return &Middleware{
		extractIP: extractIP,
		logger:    logger.WithComponent(applog.ComponentTrace),
	}
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, requestID)

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		elapsed := time.Since(start)
		m.total.Add(1)
		m.totalUS.Add(elapsed.Microseconds())

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}
		m.logger.With(applog.FieldRequestID, requestID).
			LogHTTPEnd(ctx, r, rw.statusCode, elapsed.Milliseconds(), clientIP)
	})
}

// responseWriter captures the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// RequestIDFromRequest adapts GetRequestID for log.Middleware.
func RequestIDFromRequest(r *http.Request) string {
	return GetRequestID(r.Context())
}

func (m *Middleware) GetMetrics() Metrics {
	total := m.total.Load()
	var avg time.Duration
	if total > 0 {
		avg = time.Duration(m.totalUS.Load()/total) * time.Microsecond
	}
	return Metrics{TotalRequests: total, AverageResponseTime: avg}
}

package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/vaultline/ledger/internal/auth"
	"github.com/vaultline/ledger/internal/metrics"
)

// Context keys for request-scoped values.
type contextKey string

const (
	contextKeyIdentity contextKey = "identity"
	contextKeyRole     contextKey = "role"
)

// Identity returns the authenticated caller's identity, or "" before the
// authorization gate has run.
func Identity(ctx context.Context) string {
	v, _ := ctx.Value(contextKeyIdentity).(string)
	return v
}

// Role returns the authenticated caller's role, or "".
func Role(ctx context.Context) string {
	v, _ := ctx.Value(contextKeyRole).(string)
	return v
}

// Authorize is the single enforcement point in front of the ledger routes.
// It extracts the bearer token, delegates verification to the token service,
// and either attaches the caller's identity and role to the request context
// or rejects the call before any ledger logic runs.
func Authorize(tokens *auth.TokenService, log *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, http.StatusForbidden, auth.ErrMissingCredential.Error())
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				respondError(w, http.StatusForbidden, auth.ErrMissingCredential.Error())
				return
			}

			claims, err := tokens.Verify(parts[1])
			if err != nil {
				log.WithFields(logrus.Fields{
					"path":   r.URL.Path,
					"method": r.Method,
				}).WithError(err).Warn("token verification failed")
				respondError(w, http.StatusForbidden, auth.ErrInvalidCredential.Error())
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyIdentity, claims.Identity)
			ctx = context.WithValue(ctx, contextKeyRole, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// RequestLogger logs one line per request and feeds the duration histogram.
// The route template is used as the metric label so account ids don't blow
// up the cardinality.
func RequestLogger(log *logrus.Logger, m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			elapsed := time.Since(start)
			path := r.URL.Path
			if route := mux.CurrentRoute(r); route != nil {
				if tpl, err := route.GetPathTemplate(); err == nil {
					path = tpl
				}
			}

			if m != nil {
				m.RecordRequest(r.Method, path, elapsed)
			}
			log.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": elapsed.String(),
			}).Info("request handled")
		})
	}
}

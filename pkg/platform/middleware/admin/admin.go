package admin

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"mrzgate/pkg/platform/audit"
	"mrzgate/pkg/platform/middleware/metadata"
	"mrzgate/pkg/requestcontext"
)

// HeaderAdminToken carries the shared admin secret.
const HeaderAdminToken = "X-Admin-Token"

// AuditPublisher records rejected admin requests.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// RequireAdminToken rejects requests whose token does not match expectedToken.
// An empty expectedToken rejects everything.
func RequireAdminToken(expectedToken string, logger *slog.Logger, auditor AuditPublisher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(HeaderAdminToken)
			if expectedToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				ctx := r.Context()
				requestID := requestcontext.RequestID(ctx)
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestID,
				)
				if auditor != nil {
					_ = auditor.Emit(ctx, audit.Event{
						Action:    string(audit.EventAdminAuthFailed),
						Subject:   metadata.GetClientIP(ctx),
						Outcome:   "denied",
						Reason:    "invalid_admin_token",
						RequestID: requestID,
					})
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"admin token required"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

package admin

import (
	"log/slog"
	"net/http"
	"strings"

	dErrors "facepay/pkg/domain-errors"
	"facepay/pkg/platform/httputil"
	"facepay/pkg/requestcontext"
)

// TokenValidator validates a bearer token and returns the admin subject.
type TokenValidator interface {
	ValidateSubject(token string) (string, error)
}

// ValidatorFunc adapts a function to TokenValidator.
type ValidatorFunc func(token string) (string, error)

func (f ValidatorFunc) ValidateSubject(token string) (string, error) { return f(token) }

// RequireAdmin only lets requests with a valid "Authorization: Bearer" admin
// token through. A nil validator disables the routes (503).
func RequireAdmin(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if validator == nil {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "admin routes are not configured"))
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin token required"))
				return
			}

			subject, err := validator.ValidateSubject(token)
			if err != nil {
				logger.WarnContext(ctx, "admin token rejected",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithAdminSubject(ctx, subject)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

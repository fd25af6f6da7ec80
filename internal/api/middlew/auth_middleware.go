package middlew

import (
	"bin-option/internal/custom_err"
	"bin-option/internal/service"
	"bin-option/pkg/response"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

func RequireToken(validator service.TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := GetLogger(r.Context())

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.WriteJSONError(w, log, http.StatusUnauthorized, "Authorization header is required")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				log.Warn("invalid authorization header format")
				response.WriteJSONError(w, log, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}

			claims, err := validator.ValidateToken(parts[1])
			if err != nil {
				switch {
				case errors.Is(err, custom_err.ErrTokenExpired):
					response.WriteJSONError(w, log, http.StatusUnauthorized, "Token has expired")
				case errors.Is(err, custom_err.ErrTokenNotActive):
					response.WriteJSONError(w, log, http.StatusUnauthorized, "Token not yet active")
				case errors.Is(err, custom_err.ErrInvalidToken):
					response.WriteJSONError(w, log, http.StatusUnauthorized, "Invalid token")
				default:
					log.Error("failed to validate token", slog.String("error", err.Error()))
					response.WriteJSONError(w, log, http.StatusInternalServerError, "Internal error")
				}
				return
			}

			ctx := context.WithValue(r.Context(), subjectKey, claims.Subject)
			loggerWithSubject := log.With(slog.String("subject", claims.Subject))
			ctx = context.WithValue(ctx, loggerKey, loggerWithSubject)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSubject пустая строка, если RequireToken не подключен
func GetSubject(ctx context.Context) string {
	subject, _ := ctx.Value(subjectKey).(string)
	return subject
}

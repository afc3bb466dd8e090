package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"milsabores/internal/auth"
	"milsabores/internal/commons"
	apperrors "milsabores/internal/errors"
)

const CSRFHeader = "X-CSRF-Token"

// JWTAuth validates the bearer token and stores the claims, plus the raw
// credentials for forwarding to the sales backend, in the request context.
func JWTAuth(secret string, logger *zap.Logger) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				commons.WriteError(w, r, apperrors.NewServiceError(apperrors.ServiceUnauthorized, http.StatusUnauthorized, "authentication required", nil), logger)
				return
			}

			tokenStr := strings.TrimPrefix(header, "Bearer ")
			claims, err := auth.ParseToken(tokenStr, key)
			if err != nil {
				logger.Debug("rejected token", zap.Error(err))
				commons.WriteError(w, r, apperrors.NewServiceError(apperrors.ServiceUnauthorized, http.StatusUnauthorized, "session expired", nil), logger)
				return
			}

			ctx := auth.WithClaims(r.Context(), claims)
			ctx = auth.WithCredentials(ctx, auth.Credentials{
				BearerToken: tokenStr,
				CSRFToken:   r.Header.Get(CSRFHeader),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose token role is not one of roles.
func RequireRole(logger *zap.Logger, roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.ClaimsFromContext(r.Context())
			if !ok || !allowed[claims.Rol] {
				commons.WriteError(w, r, apperrors.NewForbiddenError("insufficient privileges"), logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"inkwell/internal/auth"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"
	"inkwell/internal/httputil"
)

// APIKeyVerifier authenticates a presented API key
type APIKeyVerifier interface {
	Verify(ctx context.Context, presented string) (*models.APIKey, error)
}

// Auth authenticates every request via either an X-API-Key header or a
// session bearer token. All failures produce the same 401 body so the
// response never reveals whether a credential exists, is revoked, or
// is expired.
func Auth(verifier auth.JWTVerifier, apiKeys APIKeyVerifier, userRepo repositories.UserRepository, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
				key, err := apiKeys.Verify(r.Context(), apiKey)
				if err != nil {
					respondUnauthorized(w)
					return
				}
				principal := models.Principal{UserID: key.UserID, Scheme: models.AuthSchemeAPIKey}
				next.ServeHTTP(w, httputil.WithPrincipal(r, principal))
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				respondUnauthorized(w)
				return
			}
			claims, err := verifier.VerifyToken(token)
			if err != nil {
				respondUnauthorized(w)
				return
			}

			mirrorUser(r.Context(), userRepo, claims, logger)

			principal := models.Principal{
				UserID: claims.Subject,
				Email:  claims.Email,
				Scheme: models.AuthSchemeSession,
			}
			next.ServeHTTP(w, httputil.WithPrincipal(r, principal))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// mirrorUser keeps the local user row in step with the identity
// provider. A failed upsert never fails the request.
func mirrorUser(ctx context.Context, userRepo repositories.UserRepository, claims *models.SessionClaims, logger *slog.Logger) {
	err := userRepo.Upsert(ctx, &models.User{
		ID:        claims.Subject,
		Email:     claims.Email,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		logger.Warn("user mirror upsert failed", "user_id", claims.Subject, "error", err)
	}
}

func respondUnauthorized(w http.ResponseWriter) {
	httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
}

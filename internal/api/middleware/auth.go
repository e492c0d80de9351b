package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/response"
)

type contextKey string

const userIDKey contextKey = "userID"

// ProfileEnsurer creates the profile of a first-time user.
type ProfileEnsurer interface {
	EnsureProfile(ctx context.Context, userID, email string) error
}

// WithUserID returns a context carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the authenticated user id stored by Auth.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// Auth validates the HS256 bearer token issued by the hosted auth provider.
// The "sub" claim is the user id; a profile on the default plan is created
// the first time a user is seen.
func Auth(secret string, profiles ProfileEnsurer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				response.RespondError(w, http.StatusInternalServerError, "Unauthorized", "Authentication not loaded")
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				response.RespondError(w, http.StatusUnauthorized, "Unauthorized", "Missing bearer token")
				return
			}
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				response.RespondError(w, http.StatusUnauthorized, "Unauthorized", "Invalid authorization header format")
				return
			}

			userID, email, err := parseToken(raw, secret)
			if err != nil {
				response.RespondError(w, http.StatusUnauthorized, "Unauthorized", "Invalid or expired token")
				return
			}

			if profiles != nil {
				if err := profiles.EnsureProfile(r.Context(), userID, email); err != nil {
					logger.ErrorContext(r.Context(), "failed to ensure profile", "user_id", userID, "error", err)
					response.RespondError(w, http.StatusInternalServerError, "failed to load profile", err.Error())
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func parseToken(raw, secret string) (userID, email string, err error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", "", err
	}
	if !token.Valid {
		return "", "", errors.New("token is not valid")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", "", errors.New("token has no subject")
	}
	email, _ = claims["email"].(string)
	return sub, email, nil
}

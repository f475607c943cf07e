package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/vedran77/notes/internal/auth"
)

type contextKey string

const UserIDKey contextKey = "user_id"

type TokenVerifier interface {
	Verify(token string) (uuid.UUID, error)
}

// Auth rejects requests without a valid bearer token and stores the token's
// user ID in the request context.
func Auth(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r)
			if !ok {
				writeUnauthorized(w, "Unauthorized - Missing token")
				return
			}

			userID, err := tokens.Verify(tokenStr)
			if err != nil {
				msg := "Unauthorized - Invalid token"
				if errors.Is(err, auth.ErrTokenExpired) {
					msg = "Unauthorized - Token expired"
				}
				writeUnauthorized(w, msg)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	tokenStr, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return "", false
	}
	tokenStr = strings.TrimSpace(tokenStr)
	return tokenStr, tokenStr != ""
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"` + message + `"}}`))
}

// GetUserID extracts user ID from request context
func GetUserID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(UserIDKey).(uuid.UUID)
	return id
}

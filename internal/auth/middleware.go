package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/umar/horizon-chat/internal/models"
)

type contextKey string

const ViewerKey contextKey = "viewer"

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// Middleware only lets through requests carrying a token for the session
// viewer. Anonymous sessions have no token to check.
func Middleware(secret string, viewer models.Viewer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !viewer.Anonymous {
				authHeader := r.Header.Get("Authorization")
				if authHeader == "" {
					writeError(w, http.StatusUnauthorized, "missing authorization header")
					return
				}

				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
					writeError(w, http.StatusUnauthorized, "invalid authorization header")
					return
				}

				claims, err := ValidateToken(parts[1], secret)
				if err != nil {
					writeError(w, http.StatusUnauthorized, "invalid or expired token")
					return
				}
				if claims.UserID != viewer.ID {
					writeError(w, http.StatusForbidden, "token belongs to another viewer")
					return
				}
			}

			ctx := context.WithValue(r.Context(), ViewerKey, viewer)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ViewerFrom(ctx context.Context) (models.Viewer, bool) {
	v, ok := ctx.Value(ViewerKey).(models.Viewer)
	return v, ok
}

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hongminglow/volunteer-hours/internal/auth"
	"github.com/hongminglow/volunteer-hours/internal/http/respond"
	"github.com/hongminglow/volunteer-hours/internal/models"
	"github.com/hongminglow/volunteer-hours/internal/storage"
)

type contextKey string

const userContextKey contextKey = "user"

// IdentitySource resolves a token subject to the current user record.
type IdentitySource interface {
	FindByID(ctx context.Context, id int64) (models.User, error)
}

// Authenticate requires a valid bearer token and places the user it names on
// the request context. The role comes from the store, not the token, so role
// changes apply to tokens already issued.
func Authenticate(tokens *auth.TokenManager, users IdentitySource, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw := strings.TrimPrefix(header, "Bearer ")
			if header == "" || raw == header || strings.TrimSpace(raw) == "" {
				respond.Error(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			claims, err := tokens.Parse(strings.TrimSpace(raw))
			if err != nil {
				logger.Debug("rejected token", "error", err)
				respond.Error(w, http.StatusUnauthorized, "invalid token")
				return
			}
			user, err := users.FindByID(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					logger.Warn("token for unknown user", "user_id", claims.UserID,
						"username", claims.Username, "role", claims.Role, "jti", claims.TokenID)
					respond.Error(w, http.StatusUnauthorized, "unknown user")
					return
				}
				logger.Error("load authenticated user", "user_id", claims.UserID, "error", err)
				respond.Error(w, http.StatusInternalServerError, "failed to load user")
				return
			}
			if user.Role != claims.Role {
				logger.Debug("role changed since token issue", "user_id", user.ID,
					"token_role", claims.Role, "role", user.Role, "jti", claims.TokenID)
			}
			if info, ok := r.Context().Value(requestInfoKey).(*requestInfo); ok {
				info.userID = user.ID
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), &user)))
		})
	}
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated user, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}

package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/adoptme/pet-adoption/backend/internal/auth"
	"github.com/adoptme/pet-adoption/backend/internal/common"
	"github.com/adoptme/pet-adoption/backend/internal/models"
)

// UserStore is the lookup needed by the admin gate. The role is always read
// fresh from the store, never trusted from the client.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// RequireAuth validates the session cookie and injects the decoded claims
// into the request context.
func RequireAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.TokenCookie)
			if err != nil || cookie.Value == "" {
				common.RespondWithError(w, http.StatusUnauthorized, "No token provided")
				return
			}

			claims, err := auth.ValidateToken(cookie.Value, secret)
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token.")
				return
			}

			ctx := context.WithValue(r.Context(), "user_id", claims.UserID)
			ctx = context.WithValue(ctx, "email", claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin loads the authenticated user and rejects anyone whose role is
// not admin. Must run after RequireAuth.
func RequireAdmin(users UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, _ := r.Context().Value("user_id").(string)
			if userID == "" {
				common.RespondWithError(w, http.StatusUnauthorized, "No token provided")
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, common.ErrNotFound) {
					common.RespondWithError(w, http.StatusForbidden, "Access Denied: Requires admin privileges.")
					return
				}
				common.RespondWithError(w, http.StatusInternalServerError, "Server error during admin verification.")
				return
			}
			if user.Role != models.RoleAdmin {
				common.RespondWithError(w, http.StatusForbidden, "Access Denied: Requires admin privileges.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

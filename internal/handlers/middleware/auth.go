package middleware

import (
	"context"
	"net/http"

	"github.com/abdurrahman998/tournament/internal/handlers/render"
	"github.com/abdurrahman998/tournament/internal/handlers/userctx"
	"github.com/abdurrahman998/tournament/internal/models"
)

type authService interface {
	GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error)
}

// AuthMiddleware rejects requests without a valid access token and puts the
// authenticated user into the request context.
func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := as.GetUserFromRequest(r.Context(), r)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuthMiddleware puts the user into the context when a valid token is
// present and lets the request through anonymously otherwise. Used on public
// listings that personalize output for authenticated viewers.
func OptionalAuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := as.GetUserFromRequest(r.Context(), r)
			if err == nil {
				r = r.WithContext(userctx.New(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

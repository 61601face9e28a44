package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/listenupapp/bookid-server/internal/auth"
	domainerrors "github.com/listenupapp/bookid-server/internal/errors"
	"github.com/listenupapp/bookid-server/internal/http/response"
)

// authMiddleware returns a middleware that validates Bearer tokens and stores
// the principal in context. If no token is present or it is invalid, the
// request continues anonymously; handlers use RequireUser to reject it.
func authMiddleware(tokens *auth.TokenService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.VerifyAccessToken(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				logger.Debug("rejected access token", slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			ctx := auth.WithPrincipal(r.Context(), claims.Principal())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser returns the authenticated principal from context.
// Returns 401 if the request carried no valid token.
func RequireUser(ctx context.Context) (auth.Principal, error) {
	p, ok := auth.PrincipalFrom(ctx)
	if !ok {
		return auth.Principal{}, domainerrors.Unauthorized("Authentication required")
	}
	return p, nil
}

// RequireManager validates the user is authenticated and may manage books.
func RequireManager(ctx context.Context) (auth.Principal, error) {
	p, err := RequireUser(ctx)
	if err != nil {
		return auth.Principal{}, err
	}
	if !p.CanManageBooks {
		return auth.Principal{}, domainerrors.Forbidden("Book management permission required")
	}
	return p, nil
}

// requireManager guards plain chi routes with the same rules as RequireManager.
func (s *Server) requireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := RequireManager(r.Context()); err != nil {
			response.Error(w, err, s.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

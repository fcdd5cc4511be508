package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/BradenHooton/novatech/internal/models"
	pkghttp "github.com/BradenHooton/novatech/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

// UserContextKey is the key for storing the authenticated user in context
const UserContextKey contextKey = "user"

// UserRepository is the credential lookup needed to authenticate a request
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Authenticator resolves a bearer token to a live user record
type Authenticator struct {
	tm    *TokenManager
	users UserRepository
}

// NewAuthenticator creates a new Authenticator
func NewAuthenticator(tm *TokenManager, users UserRepository) *Authenticator {
	return &Authenticator{tm: tm, users: users}
}

// Authenticate verifies the token and loads its subject.
// A valid token whose subject no longer exists fails with models.ErrUserNotFound.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := a.tm.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := a.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load token subject: %w", err)
	}

	return user, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}

	return strings.TrimSpace(parts[1]), true
}

// RequireAuth rejects requests without a valid bearer token with 401
// and injects the user into the request context
func RequireAuth(a *Authenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				pkghttp.WriteUnauthorized(w, "Not authenticated")
				return
			}

			user, err := a.Authenticate(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, models.ErrTokenExpired):
					pkghttp.WriteUnauthorized(w, "Token has expired")
				case errors.Is(err, models.ErrTokenInvalid):
					pkghttp.WriteUnauthorized(w, "Invalid token")
				case errors.Is(err, models.ErrUserNotFound):
					pkghttp.WriteUnauthorized(w, "User not found")
				default:
					pkghttp.WriteInternalError(w, "Internal server error")
				}
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole enforces role-based access control; must run after RequireAuth
func RequireRole(roles ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUserFromContext(r)
			if user == nil {
				pkghttp.WriteUnauthorized(w, "Not authenticated")
				return
			}

			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			pkghttp.WriteForbidden(w, "Insufficient permissions")
		})
	}
}

// GetUserFromContext extracts the authenticated user from request context
func GetUserFromContext(r *http.Request) *models.User {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

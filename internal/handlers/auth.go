package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/BradenHooton/novatech/internal/auth"
	"github.com/BradenHooton/novatech/internal/models"
	"github.com/BradenHooton/novatech/internal/services"
	pkghttp "github.com/BradenHooton/novatech/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password, identity string) (*services.AuthResponse, error)
	MasterLogin(ctx context.Context, email, passphrase1, passphrase2, identity string) (*services.AuthResponse, error)
	Me(ctx context.Context, userID string) (*services.UserResponse, error)
	UpdateCredentials(ctx context.Context, userID string, req services.CredentialsUpdate, identity string) (*services.AuthResponse, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service  AuthServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, ipConfig *pkghttp.IPConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		ipConfig: ipConfig,
	}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// MasterLoginRequest represents the request body for the master login
type MasterLoginRequest struct {
	Email           string `json:"email"`
	MasterPassword1 string `json:"master_password_1"`
	MasterPassword2 string `json:"master_password_2"`
}

// CredentialsRequest represents the request body for rotating email and/or password
type CredentialsRequest struct {
	CurrentPassword string `json:"current_password"`
	NewEmail        string `json:"new_email,omitempty"`
	NewPassword     string `json:"new_password,omitempty"`
}

// Login handles user login
// @Summary User login
// @Accept json
// @Param request body LoginRequest true "Login request"
// @Produce json
// @Success 200 {object} services.AuthResponse
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Failure 429 {object} pkghttp.ErrorResponse
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" {
		pkghttp.WriteBadRequest(w, "Email is required")
		return
	}

	identity := pkghttp.ClientIdentity(r, h.ipConfig)

	resp, err := h.service.Login(r.Context(), req.Email, req.Password, identity)
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			// same answer for an unknown email and a wrong password
			pkghttp.WriteUnauthorized(w, "Invalid credentials")
			return
		}
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// MasterLogin handles the operator bypass login
// @Summary Master login
// @Accept json
// @Param request body MasterLoginRequest true "Master login request"
// @Produce json
// @Success 200 {object} services.AuthResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Failure 403 {object} pkghttp.ErrorResponse
// @Failure 404 {object} pkghttp.ErrorResponse
// @Failure 429 {object} pkghttp.ErrorResponse
// @Router /api/auth/master-login [post]
func (h *AuthHandler) MasterLogin(w http.ResponseWriter, r *http.Request) {
	var req MasterLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" {
		pkghttp.WriteBadRequest(w, "Email is required")
		return
	}

	identity := pkghttp.ClientIdentity(r, h.ipConfig)

	resp, err := h.service.MasterLogin(r.Context(), req.Email, req.MasterPassword1, req.MasterPassword2, identity)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrMasterDisabled):
			pkghttp.WriteForbidden(w, "Master login is disabled")
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "Invalid master passwords")
		case errors.Is(err, models.ErrUserNotFound):
			pkghttp.WriteNotFound(w, "User not found")
		default:
			writeServiceError(w, err)
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// Me returns the authenticated user
// @Summary Current user
// @Security BearerAuth
// @Produce json
// @Success 200 {object} services.UserResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Router /api/auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromContext(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	resp, err := h.service.Me(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			pkghttp.WriteUnauthorized(w, "User not found")
			return
		}
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// UpdateCredentials changes the caller's email and/or password
// @Summary Update credentials
// @Security BearerAuth
// @Accept json
// @Param request body CredentialsRequest true "Credentials request"
// @Produce json
// @Success 200 {object} services.AuthResponse
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Failure 409 {object} pkghttp.ErrorResponse
// @Router /api/auth/credentials [put]
func (h *AuthHandler) UpdateCredentials(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromContext(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req CredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CurrentPassword == "" {
		pkghttp.WriteValidationError(w, "current_password", "current_password is required")
		return
	}

	resp, err := h.service.UpdateCredentials(r.Context(), user.ID, services.CredentialsUpdate{
		CurrentPassword: req.CurrentPassword,
		NewEmail:        req.NewEmail,
		NewPassword:     req.NewPassword,
	}, pkghttp.ClientIdentity(r, h.ipConfig))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "Current password is incorrect")
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "Email is already in use")
		case errors.Is(err, models.ErrUserNotFound):
			pkghttp.WriteUnauthorized(w, "User not found")
		default:
			writeServiceError(w, err)
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

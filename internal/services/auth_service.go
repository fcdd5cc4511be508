package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/BradenHooton/novatech/internal/auth"
	"github.com/BradenHooton/novatech/internal/models"
	"github.com/BradenHooton/novatech/internal/sanitize"
	"github.com/BradenHooton/novatech/internal/security"
	pkgauth "github.com/BradenHooton/novatech/pkg/auth"
	pkglogger "github.com/BradenHooton/novatech/pkg/logger"
)

// UserRepository is the credential store consumed by the auth flows
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	UpdateEmail(ctx context.Context, id, email string) error
}

// AuthConfig holds the login policies and the master login switch
type AuthConfig struct {
	LoginPolicy        security.RoutePolicy
	MasterLoginPolicy  security.RoutePolicy
	MasterLoginEnabled bool
	MasterPassword1    string
	MasterPassword2    string
}

// AuthService handles authentication business logic
type AuthService struct {
	repo        UserRepository
	tm          *auth.TokenManager
	guard       *security.Guard
	limiter     *security.Limiter
	config      AuthConfig
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new AuthService
func NewAuthService(
	repo UserRepository,
	tm *auth.TokenManager,
	guard *security.Guard,
	limiter *security.Limiter,
	config AuthConfig,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *AuthService {
	return &AuthService{
		repo:        repo,
		tm:          tm,
		guard:       guard,
		limiter:     limiter,
		config:      config,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

// AuthResponse represents the response from a successful login
type AuthResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	User        *UserResponse `json:"user"`
}

// CredentialsUpdate is a request to rotate the caller's email and/or password
type CredentialsUpdate struct {
	CurrentPassword string
	NewEmail        string
	NewPassword     string
}

// NewUserResponse converts a credential record into its public view
func NewUserResponse(u *models.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Login runs the standard login flow for a client identity:
// blacklist check, login rate limit, lookup, password verify.
// Wrong password and unknown email both fail with models.ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, email, password, identity string) (*AuthResponse, error) {
	if err := s.admit(identity, security.ClassLogin, s.config.LoginPolicy); err != nil {
		return nil, err
	}

	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if user == nil {
		// burn the same bcrypt time as a real comparison
		pkgauth.VerifyPassword(password, s.timingHash())
		s.fail(ctx, pkglogger.EventLogin, email, identity, "invalid_credentials")
		return nil, models.ErrUnauthorized
	}

	if !pkgauth.VerifyPassword(password, user.PasswordHash) {
		s.fail(ctx, pkglogger.EventLogin, email, identity, "invalid_credentials")
		return nil, models.ErrUnauthorized
	}

	return s.succeed(ctx, pkglogger.EventLogin, user, identity)
}

// MasterLogin authenticates as any existing account with the two operator passphrases.
// It skips the account's password hash entirely, so it is off unless configured.
func (s *AuthService) MasterLogin(ctx context.Context, email, passphrase1, passphrase2, identity string) (*AuthResponse, error) {
	if !s.config.MasterLoginEnabled {
		return nil, models.ErrMasterDisabled
	}
	if err := s.admit(identity, security.ClassMasterLogin, s.config.MasterLoginPolicy); err != nil {
		return nil, err
	}

	email = strings.ToLower(strings.TrimSpace(email))

	first := subtle.ConstantTimeCompare([]byte(passphrase1), []byte(s.config.MasterPassword1))
	second := subtle.ConstantTimeCompare([]byte(passphrase2), []byte(s.config.MasterPassword2))
	if first&second != 1 {
		s.fail(ctx, pkglogger.EventMasterLogin, email, identity, "invalid_master_passwords")
		return nil, models.ErrUnauthorized
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.fail(ctx, pkglogger.EventMasterLogin, email, identity, "user_not_found")
			return nil, models.ErrUserNotFound
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return s.succeed(ctx, pkglogger.EventMasterLogin, user, identity)
}

// Me returns the public view of the authenticated user
func (s *AuthService) Me(ctx context.Context, userID string) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return NewUserResponse(user), nil
}

// UpdateCredentials changes the caller's email and/or password after re-checking the
// current password, and returns a fresh token carrying the new email.
func (s *AuthService) UpdateCredentials(ctx context.Context, userID string, req CredentialsUpdate, identity string) (*AuthResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !pkgauth.VerifyPassword(req.CurrentPassword, user.PasswordHash) {
		s.auditLogger.LogAccountAction(ctx, pkglogger.AuditEvent{
			EventType:     pkglogger.EventCredentialsUpdate,
			UserID:        user.ID,
			Identity:      identity,
			FailureReason: "invalid_current_password",
		})
		return nil, models.ErrUnauthorized
	}

	var changed []string

	newEmail := strings.TrimSpace(req.NewEmail)
	if newEmail != "" {
		newEmail, err = sanitize.NormalizeEmail(newEmail)
		if err != nil {
			return nil, sanitize.NewFieldError("new_email", err)
		}
	}
	if newEmail != "" && newEmail != user.Email {
		existing, err := s.repo.GetByEmail(ctx, newEmail)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if existing != nil {
			return nil, models.ErrConflict
		}
		changed = append(changed, "email")
	}

	var newHash string
	if req.NewPassword != "" {
		if err := sanitize.CheckPassword(req.NewPassword); err != nil {
			return nil, sanitize.NewFieldError("new_password", err)
		}
		newHash, err = pkgauth.HashPassword(req.NewPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		changed = append(changed, "password")
	}

	if len(changed) == 0 {
		return nil, fmt.Errorf("%w: no changes requested", models.ErrBadRequest)
	}

	if newHash != "" {
		if err := s.repo.UpdatePasswordHash(ctx, user.ID, newHash); err != nil {
			return nil, fmt.Errorf("failed to update password: %w", err)
		}
		user.PasswordHash = newHash
	}
	if newEmail != "" && newEmail != user.Email {
		if err := s.repo.UpdateEmail(ctx, user.ID, newEmail); err != nil {
			return nil, fmt.Errorf("failed to update email: %w", err)
		}
		user.Email = newEmail
	}

	s.auditLogger.LogAccountAction(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventCredentialsUpdate,
		UserID:    user.ID,
		Identity:  identity,
		Success:   true,
		Metadata:  map[string]string{"changed": strings.Join(changed, ",")},
	})

	return s.issue(user)
}

// EnsureAdmin creates the bootstrap admin account when it does not exist yet
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		s.logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin user creation")
		return nil
	}

	email, err := sanitize.NormalizeEmail(email)
	if err != nil {
		return fmt.Errorf("invalid admin email: %w", err)
	}

	_, err = s.repo.GetByEmail(ctx, email)
	if err == nil {
		s.logger.Info("admin user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	if err := sanitize.CheckPassword(password); err != nil {
		return fmt.Errorf("admin password: %w", err)
	}

	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	user, err := s.repo.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	s.auditLogger.LogAccountAction(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventAdminBootstrap,
		UserID:    user.ID,
		Email:     user.Email,
		Success:   true,
	})
	return nil
}

// admit runs the blacklist check and then the per-route login budget
func (s *AuthService) admit(identity, class string, policy security.RoutePolicy) error {
	if s.guard.IsBlocked(identity) {
		return models.ErrTooManyAttempts
	}
	if !s.limiter.AllowPolicy(identity, class, policy) {
		return models.ErrRateLimitExceeded
	}
	return nil
}

func (s *AuthService) fail(ctx context.Context, event, email, identity, reason string) {
	blocked := s.guard.RecordFailure(identity)

	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType:     event,
		Email:         email,
		Identity:      identity,
		FailureReason: reason,
	})
	if blocked {
		s.auditLogger.LogBlacklisted(ctx, identity, s.guard.Attempts(identity))
	}
}

func (s *AuthService) succeed(ctx context.Context, event string, user *models.User, identity string) (*AuthResponse, error) {
	s.guard.Reset(identity)

	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: event,
		UserID:    user.ID,
		Email:     user.Email,
		Identity:  identity,
		Success:   true,
	})

	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*AuthResponse, error) {
	token, err := s.tm.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		s.logger.Error("failed to issue token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &AuthResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        NewUserResponse(user),
	}, nil
}

// timingHash is a throwaway digest compared against when the email is unknown
func (s *AuthService) timingHash() string {
	s.dummyOnce.Do(func() {
		hash, err := pkgauth.HashPassword("timing-equalizer-not-a-password")
		if err != nil {
			s.logger.Error("failed to build timing hash", slog.Any("error", err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

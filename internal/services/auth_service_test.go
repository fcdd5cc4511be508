package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BradenHooton/novatech/internal/auth"
	"github.com/BradenHooton/novatech/internal/models"
	"github.com/BradenHooton/novatech/internal/sanitize"
	"github.com/BradenHooton/novatech/internal/security"
	"github.com/BradenHooton/novatech/pkg/clock"
	pkgauth "github.com/BradenHooton/novatech/pkg/auth"
	pkglogger "github.com/BradenHooton/novatech/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPassword = "Correct#Horse9"
	testSecret   = "test-secret-32-characters-long!!"
	testIdentity = "203.0.113.7"
	master1      = "first-master-passphrase"
	master2      = "second-master-passphrase"
)

var (
	epoch = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	hashOnce   sync.Once
	cachedHash string
)

// testPasswordHash hashes testPassword once per test binary
func testPasswordHash(t *testing.T) string {
	t.Helper()
	hashOnce.Do(func() {
		hash, err := pkgauth.HashPassword(testPassword)
		if err != nil {
			panic(err)
		}
		cachedHash = hash
	})
	return cachedHash
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type authFixture struct {
	svc     *AuthService
	repo    *MockUserRepository
	guard   *security.Guard
	limiter *security.Limiter
	tm      *auth.TokenManager
	clock   *clock.Fake
	user    *models.User
}

func newAuthFixture(t *testing.T, opts ...func(*AuthConfig)) *authFixture {
	t.Helper()

	clk := clock.NewFake(epoch)
	user := &models.User{
		ID:           "user-1",
		Email:        "admin@novatech.example",
		PasswordHash: testPasswordHash(t),
		Role:         models.RoleAdmin,
		CreatedAt:    epoch.Add(-24 * time.Hour),
	}

	repo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			if email == user.Email {
				return user, nil
			}
			return nil, models.ErrNotFound
		},
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			if id == user.ID {
				return user, nil
			}
			return nil, models.ErrNotFound
		},
	}

	cfg := AuthConfig{
		LoginPolicy:        security.RoutePolicy{Limit: 10, Window: time.Minute},
		MasterLoginPolicy:  security.RoutePolicy{Limit: 5, Window: time.Minute},
		MasterLoginEnabled: true,
		MasterPassword1:    master1,
		MasterPassword2:    master2,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	f := &authFixture{
		repo:    repo,
		guard:   security.NewGuard(5, time.Hour, clk, discardLogger()),
		limiter: security.NewLimiter(clk, discardLogger()),
		tm:      auth.NewTokenManager(testSecret, 0, clk),
		clock:   clk,
		user:    user,
	}
	f.svc = NewAuthService(repo, f.tm, f.guard, f.limiter, cfg, discardLogger(), pkglogger.NewAuditLogger(discardLogger()))
	return f
}

func TestAuthService_LoginSuccess(t *testing.T) {
	f := newAuthFixture(t)

	resp, err := f.svc.Login(context.Background(), "  Admin@Novatech.Example ", testPassword, testIdentity)
	require.NoError(t, err)

	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, "user-1", resp.User.ID)
	assert.Equal(t, "admin@novatech.example", resp.User.Email)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)
	assert.Equal(t, "2026-03-01T09:00:00Z", resp.User.CreatedAt)

	claims, err := f.tm.Verify(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestAuthService_LoginEnumerationResistance(t *testing.T) {
	f := newAuthFixture(t)

	_, wrongPassword := f.svc.Login(context.Background(), f.user.Email, "Wrong#Pass1", testIdentity)
	_, unknownEmail := f.svc.Login(context.Background(), "nobody@novatech.example", testPassword, testIdentity)

	require.ErrorIs(t, wrongPassword, models.ErrUnauthorized)
	require.ErrorIs(t, unknownEmail, models.ErrUnauthorized)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
	assert.Equal(t, 2, f.guard.Attempts(testIdentity), "both count as failures")
}

func TestAuthService_LoginFourFailuresThenSuccessResets(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := f.svc.Login(ctx, f.user.Email, "Wrong#Pass1", testIdentity)
		require.ErrorIs(t, err, models.ErrUnauthorized)
	}
	require.Equal(t, 4, f.guard.Attempts(testIdentity))
	require.False(t, f.guard.IsBlocked(testIdentity))

	_, err := f.svc.Login(ctx, f.user.Email, testPassword, testIdentity)
	require.NoError(t, err)
	assert.Equal(t, 0, f.guard.Attempts(testIdentity), "guard back to clear")

	// a later failure starts a fresh sequence
	_, err = f.svc.Login(ctx, f.user.Email, "Wrong#Pass1", testIdentity)
	require.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Equal(t, 1, f.guard.Attempts(testIdentity))
}

func TestAuthService_LoginBlacklisted(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := f.svc.Login(ctx, f.user.Email, "Wrong#Pass1", testIdentity)
		require.ErrorIs(t, err, models.ErrUnauthorized)
	}

	_, err := f.svc.Login(ctx, f.user.Email, testPassword, testIdentity)
	assert.ErrorIs(t, err, models.ErrTooManyAttempts, "correct password is refused while blocked")

	_, err = f.svc.Login(ctx, f.user.Email, testPassword, "198.51.100.1")
	assert.NoError(t, err, "other identities are not affected")

	f.clock.Advance(time.Hour)
	_, err = f.svc.Login(ctx, f.user.Email, testPassword, testIdentity)
	assert.NoError(t, err)
}

func TestAuthService_LoginRateLimited(t *testing.T) {
	f := newAuthFixture(t, func(c *AuthConfig) {
		c.LoginPolicy = security.RoutePolicy{Limit: 3, Window: time.Minute}
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.svc.Login(ctx, f.user.Email, testPassword, testIdentity)
		require.NoError(t, err)
	}

	_, err := f.svc.Login(ctx, f.user.Email, testPassword, testIdentity)
	assert.ErrorIs(t, err, models.ErrRateLimitExceeded)
	assert.Equal(t, 0, f.guard.Attempts(testIdentity), "throttled attempts are not failures")

	f.clock.Advance(time.Minute)
	_, err = f.svc.Login(ctx, f.user.Email, testPassword, testIdentity)
	assert.NoError(t, err)
}

func TestAuthService_LoginCorruptDigest(t *testing.T) {
	f := newAuthFixture(t)
	f.user.PasswordHash = "$2a$12$corrupted"

	_, err := f.svc.Login(context.Background(), f.user.Email, testPassword, testIdentity)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthService_LoginRepositoryError(t *testing.T) {
	f := newAuthFixture(t)
	f.repo.GetByEmailFunc = func(ctx context.Context, email string) (*models.User, error) {
		return nil, errors.New("connection refused")
	}

	_, err := f.svc.Login(context.Background(), f.user.Email, testPassword, testIdentity)
	assert.ErrorIs(t, err, models.ErrInternalServer)
	assert.Equal(t, 0, f.guard.Attempts(testIdentity))
}

func TestAuthService_MasterLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newAuthFixture(t)
		f.guard.RecordFailure(testIdentity)

		resp, err := f.svc.MasterLogin(ctx, f.user.Email, master1, master2, testIdentity)
		require.NoError(t, err)
		assert.Equal(t, "user-1", resp.User.ID)
		assert.Equal(t, 0, f.guard.Attempts(testIdentity))
	})

	t.Run("wrong passphrase records failure", func(t *testing.T) {
		f := newAuthFixture(t)

		_, err := f.svc.MasterLogin(ctx, f.user.Email, master1, "nope", testIdentity)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
		assert.Equal(t, 1, f.guard.Attempts(testIdentity))
	})

	t.Run("unknown account", func(t *testing.T) {
		f := newAuthFixture(t)

		_, err := f.svc.MasterLogin(ctx, "ghost@novatech.example", master1, master2, testIdentity)
		assert.ErrorIs(t, err, models.ErrUserNotFound)
		assert.Equal(t, 1, f.guard.Attempts(testIdentity))
	})

	t.Run("disabled", func(t *testing.T) {
		f := newAuthFixture(t, func(c *AuthConfig) { c.MasterLoginEnabled = false })

		_, err := f.svc.MasterLogin(ctx, f.user.Email, master1, master2, testIdentity)
		assert.ErrorIs(t, err, models.ErrMasterDisabled)
	})

	t.Run("blacklisted", func(t *testing.T) {
		f := newAuthFixture(t)
		for i := 0; i < 5; i++ {
			f.guard.RecordFailure(testIdentity)
		}

		_, err := f.svc.MasterLogin(ctx, f.user.Email, master1, master2, testIdentity)
		assert.ErrorIs(t, err, models.ErrTooManyAttempts)
	})

	t.Run("rate limited separately from login", func(t *testing.T) {
		f := newAuthFixture(t)

		for i := 0; i < 5; i++ {
			_, err := f.svc.MasterLogin(ctx, f.user.Email, master1, master2, testIdentity)
			require.NoError(t, err)
		}
		_, err := f.svc.MasterLogin(ctx, f.user.Email, master1, master2, testIdentity)
		assert.ErrorIs(t, err, models.ErrRateLimitExceeded)

		_, err = f.svc.Login(ctx, f.user.Email, testPassword, testIdentity)
		assert.NoError(t, err)
	})
}

func TestAuthService_Me(t *testing.T) {
	f := newAuthFixture(t)

	me, err := f.svc.Me(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "admin@novatech.example", me.Email)

	_, err = f.svc.Me(context.Background(), "deleted-user")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestAuthService_UpdateCredentials(t *testing.T) {
	ctx := context.Background()

	t.Run("rotates email and password", func(t *testing.T) {
		f := newAuthFixture(t)
		var newHash, newEmail string
		f.repo.UpdatePasswordHashFunc = func(ctx context.Context, id, hash string) error {
			newHash = hash
			return nil
		}
		f.repo.UpdateEmailFunc = func(ctx context.Context, id, email string) error {
			newEmail = email
			return nil
		}

		resp, err := f.svc.UpdateCredentials(ctx, "user-1", CredentialsUpdate{
			CurrentPassword: testPassword,
			NewEmail:        "Office@Novatech.Example",
			NewPassword:     "Fresh#Secret42",
		}, testIdentity)
		require.NoError(t, err)

		assert.Equal(t, "office@novatech.example", newEmail)
		assert.True(t, pkgauth.VerifyPassword("Fresh#Secret42", newHash))
		assert.Equal(t, "office@novatech.example", resp.User.Email)

		claims, err := f.tm.Verify(resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "office@novatech.example", claims.Email)
	})

	t.Run("wrong current password", func(t *testing.T) {
		f := newAuthFixture(t)

		_, err := f.svc.UpdateCredentials(ctx, "user-1", CredentialsUpdate{
			CurrentPassword: "Wrong#Pass1",
			NewPassword:     "Fresh#Secret42",
		}, testIdentity)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("weak new password", func(t *testing.T) {
		f := newAuthFixture(t)

		_, err := f.svc.UpdateCredentials(ctx, "user-1", CredentialsUpdate{
			CurrentPassword: testPassword,
			NewPassword:     "alllowercase1!",
		}, testIdentity)
		assert.ErrorIs(t, err, sanitize.ErrWeakPassword)

		var fe *sanitize.FieldError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, "new_password", fe.Field)
	})

	t.Run("new password longer than 72 bytes", func(t *testing.T) {
		f := newAuthFixture(t)
		f.repo.UpdatePasswordHashFunc = func(ctx context.Context, id, hash string) error {
			t.Fatal("UpdatePasswordHash should not be called")
			return nil
		}

		_, err := f.svc.UpdateCredentials(ctx, "user-1", CredentialsUpdate{
			CurrentPassword: testPassword,
			NewPassword:     strings.Repeat("Aa1!", 20),
		}, testIdentity)
		assert.ErrorIs(t, err, sanitize.ErrPasswordLong)

		var fe *sanitize.FieldError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, "new_password", fe.Field)
	})

	t.Run("email already in use", func(t *testing.T) {
		f := newAuthFixture(t)
		f.repo.GetByEmailFunc = func(ctx context.Context, email string) (*models.User, error) {
			return &models.User{ID: "user-2", Email: email}, nil
		}

		_, err := f.svc.UpdateCredentials(ctx, "user-1", CredentialsUpdate{
			CurrentPassword: testPassword,
			NewEmail:        "taken@novatech.example",
		}, testIdentity)
		assert.ErrorIs(t, err, models.ErrConflict)
	})

	t.Run("invalid email", func(t *testing.T) {
		f := newAuthFixture(t)

		_, err := f.svc.UpdateCredentials(ctx, "user-1", CredentialsUpdate{
			CurrentPassword: testPassword,
			NewEmail:        "not-an-email",
		}, testIdentity)
		assert.ErrorIs(t, err, sanitize.ErrInvalidEmail)
	})

	t.Run("nothing to change", func(t *testing.T) {
		f := newAuthFixture(t)

		_, err := f.svc.UpdateCredentials(ctx, "user-1", CredentialsUpdate{
			CurrentPassword: testPassword,
			NewEmail:        f.user.Email,
		}, testIdentity)
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("creates missing admin", func(t *testing.T) {
		f := newAuthFixture(t)
		var created *models.User
		f.repo.CreateFunc = func(ctx context.Context, u *models.User) (*models.User, error) {
			created = u
			u.ID = "admin-1"
			return u, nil
		}

		require.NoError(t, f.svc.EnsureAdmin(ctx, "Boss@Novatech.Example", "Boss#Pass123"))
		require.NotNil(t, created)
		assert.Equal(t, "boss@novatech.example", created.Email)
		assert.Equal(t, models.RoleAdmin, created.Role)
		assert.True(t, pkgauth.VerifyPassword("Boss#Pass123", created.PasswordHash))
	})

	t.Run("existing admin is left alone", func(t *testing.T) {
		f := newAuthFixture(t)
		f.repo.CreateFunc = func(ctx context.Context, u *models.User) (*models.User, error) {
			t.Fatal("Create should not be called")
			return nil, nil
		}

		assert.NoError(t, f.svc.EnsureAdmin(ctx, f.user.Email, "Boss#Pass123"))
	})

	t.Run("unset is skipped", func(t *testing.T) {
		f := newAuthFixture(t)
		assert.NoError(t, f.svc.EnsureAdmin(ctx, "", ""))
	})

	t.Run("weak password rejected", func(t *testing.T) {
		f := newAuthFixture(t)
		err := f.svc.EnsureAdmin(ctx, "boss@novatech.example", "weak")
		assert.ErrorIs(t, err, sanitize.ErrWeakPassword)
	})

	t.Run("overlong password rejected", func(t *testing.T) {
		f := newAuthFixture(t)
		err := f.svc.EnsureAdmin(ctx, "boss@novatech.example", strings.Repeat("Aa1!", 20))
		assert.ErrorIs(t, err, sanitize.ErrPasswordLong)
	})
}

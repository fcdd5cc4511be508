package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/BradenHooton/novatech/internal/auth"
	"github.com/BradenHooton/novatech/internal/models"
	"github.com/BradenHooton/novatech/pkg/clock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-32-characters-long!!"

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestTokenManager() (*auth.TokenManager, *clock.Fake) {
	clk := clock.NewFake(epoch)
	return auth.NewTokenManager(testSecret, 0, clk), clk
}

func TestTokenManager_IssueVerifyRoundTrip(t *testing.T) {
	tm, _ := newTestTokenManager()

	token, err := tm.Issue("user-123", "admin@example.com", models.RoleAdmin)
	require.NoError(t, err)

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID())
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.NotEmpty(t, claims.ID)
	assert.True(t, epoch.Equal(claims.IssuedAt.Time))
	assert.True(t, epoch.Add(8*time.Hour).Equal(claims.ExpiresAt.Time))
}

func TestTokenManager_UniqueTokenIDs(t *testing.T) {
	tm, _ := newTestTokenManager()

	first, err := tm.Issue("user-123", "a@example.com", "admin")
	require.NoError(t, err)
	second, err := tm.Issue("user-123", "a@example.com", "admin")
	require.NoError(t, err)

	c1, err := tm.Verify(first)
	require.NoError(t, err)
	c2, err := tm.Verify(second)
	require.NoError(t, err)
	assert.NotEqual(t, c1.ID, c2.ID)
}

func TestTokenManager_Expiry(t *testing.T) {
	tm, clk := newTestTokenManager()

	token, err := tm.Issue("user-123", "a@example.com", "admin")
	require.NoError(t, err)

	clk.Advance(8*time.Hour - time.Second)
	_, err = tm.Verify(token)
	assert.NoError(t, err, "token should still be valid just before expiry")

	clk.Advance(2 * time.Second)
	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, models.ErrTokenExpired)
}

func TestTokenManager_TamperedSignature(t *testing.T) {
	tm, _ := newTestTokenManager()

	token, err := tm.Issue("user-123", "a@example.com", "admin")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = tm.Verify(tampered)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	tm, clk := newTestTokenManager()
	other := auth.NewTokenManager("another-secret-32-characters-long", 0, clk)

	token, err := other.Issue("user-123", "a@example.com", "admin")
	require.NoError(t, err)

	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)
}

func TestTokenManager_RejectsUnsupportedAlgorithm(t *testing.T) {
	tm, _ := newTestTokenManager()

	claims := &models.TokenClaims{
		Email: "a@example.com",
		Role:  "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(epoch.Add(time.Hour)),
		},
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tm.Verify(none)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = tm.Verify(hs512)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)
}

func TestTokenManager_Malformed(t *testing.T) {
	tm, _ := newTestTokenManager()

	for _, token := range []string{"", "abc", "a.b.c", "not.a.jwt.at.all"} {
		_, err := tm.Verify(token)
		assert.ErrorIs(t, err, models.ErrTokenInvalid, "token %q", token)
	}
}

func TestTokenManager_MissingExpiry(t *testing.T) {
	tm, _ := newTestTokenManager()

	claims := &models.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-123"},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)
}

package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSessionSecret  = "session-secret-for-tests"
	testProviderSecret = "provider-secret-for-tests"
)

func signIdentityToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestSessionToken_RoundTrip(t *testing.T) {
	svc := NewAuthService(testSessionSecret, testProviderSecret)

	token, err := svc.GenerateSessionToken("uid-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := svc.ValidateSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", userID)
}

func TestSessionToken_WrongSecretRejected(t *testing.T) {
	svc := NewAuthService(testSessionSecret, testProviderSecret)
	other := NewAuthService("a-different-secret", testProviderSecret)

	token, err := other.GenerateSessionToken("uid-1")
	require.NoError(t, err)

	_, err = svc.ValidateSessionToken(token)
	assert.Error(t, err)
}

func TestSessionToken_GarbageRejected(t *testing.T) {
	svc := NewAuthService(testSessionSecret, testProviderSecret)

	_, err := svc.ValidateSessionToken("not-a-jwt")
	assert.Error(t, err)
}

func TestVerifyIdentityToken_ExtractsClaims(t *testing.T) {
	svc := NewAuthService(testSessionSecret, testProviderSecret)

	signed := signIdentityToken(t, testProviderSecret, jwt.MapClaims{
		"sub":     "uid-1",
		"name":    "Jane Doe",
		"email":   "jane@x.com",
		"picture": "https://cdn.example.com/jane.png",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	identity, err := svc.VerifyIdentityToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", identity.Subject)
	assert.Equal(t, "Jane Doe", identity.DisplayName)
	assert.Equal(t, "jane@x.com", identity.Email)
	assert.Equal(t, "https://cdn.example.com/jane.png", identity.AvatarURL)
}

func TestVerifyIdentityToken_MissingOptionalClaims(t *testing.T) {
	svc := NewAuthService(testSessionSecret, testProviderSecret)

	signed := signIdentityToken(t, testProviderSecret, jwt.MapClaims{
		"sub": "uid-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	// Completeness is enforced by bootstrap, not token parsing.
	identity, err := svc.VerifyIdentityToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", identity.Subject)
	assert.Empty(t, identity.DisplayName)
	assert.Empty(t, identity.Email)
	assert.Empty(t, identity.AvatarURL)
}

func TestVerifyIdentityToken_MissingSubjectRejected(t *testing.T) {
	svc := NewAuthService(testSessionSecret, testProviderSecret)

	signed := signIdentityToken(t, testProviderSecret, jwt.MapClaims{
		"name": "No Subject",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	_, err := svc.VerifyIdentityToken(signed)
	assert.Error(t, err)
}

func TestVerifyIdentityToken_SessionSecretRejected(t *testing.T) {
	svc := NewAuthService(testSessionSecret, testProviderSecret)

	// A token signed with the session secret must not pass as a provider
	// identity token.
	signed := signIdentityToken(t, testSessionSecret, jwt.MapClaims{
		"sub": "uid-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := svc.VerifyIdentityToken(signed)
	assert.Error(t, err)
}

func TestVerifyIdentityToken_ExpiredRejected(t *testing.T) {
	svc := NewAuthService(testSessionSecret, testProviderSecret)

	signed := signIdentityToken(t, testProviderSecret, jwt.MapClaims{
		"sub": "uid-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	_, err := svc.VerifyIdentityToken(signed)
	assert.Error(t, err)
}

package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, claims, err := issuer.GenerateToken(UserSession{ID: "u1", Name: "Asha", Email: "asha@sdm.dev"})
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, "u1", claims.Subject)

	parsed, err := issuer.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "asha@sdm.dev", parsed.User.Email)
	assert.Equal(t, claims.ID, parsed.ID)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, _, err := NewTokenIssuer("one", time.Hour).GenerateToken(UserSession{ID: "u1"})
	require.NoError(t, err)

	_, err = NewTokenIssuer("two", time.Hour).ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := issuer.GenerateToken(UserSession{ID: "u1"})
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret", time.Minute).ValidateToken(token)
	assert.Error(t, err)
}

func TestDecodeTokenIgnoresSignature(t *testing.T) {
	token, claims, err := NewTokenIssuer("secret", time.Hour).GenerateToken(UserSession{ID: "u9"})
	require.NoError(t, err)

	decoded, err := DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, claims.ID, decoded.ID)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.True(t, VerifyPassword("hunter22", hash))
	assert.False(t, VerifyPassword("hunter23", hash))
}

func TestValidatePasswordStrength(t *testing.T) {
	assert.Error(t, ValidatePasswordStrength("short"))
	assert.NoError(t, ValidatePasswordStrength("sixchr"))
	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	assert.Error(t, ValidatePasswordStrength(string(long)))
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("dev@sdm.tech"))
	assert.True(t, IsValidEmail("  dev@sdm.tech "))
	assert.False(t, IsValidEmail("dev@sdm"))
	assert.False(t, IsValidEmail("not-an-email"))
	assert.Equal(t, "dev@sdm.tech", NormalizeEmail(" Dev@SDM.tech "))
}

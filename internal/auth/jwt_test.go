package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/ephemeral-chat/internal/config"
)

func signHS256(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestValidate_HS256RoundTrip(t *testing.T) {
	t.Parallel()

	v, err := NewValidator(config.JWT{Alg: "HS256", HSSecret: "secret"})
	require.NoError(t, err)

	tok := signHS256(t, "secret", jwt.MapClaims{
		"sub":  "alice",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	claims, err := v.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.UserID)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestValidate_WrongSecret(t *testing.T) {
	t.Parallel()

	v, err := NewValidator(config.JWT{Alg: "HS256", HSSecret: "right"})
	require.NoError(t, err)

	tok := signHS256(t, "wrong", jwt.MapClaims{"sub": "alice"})
	_, err = v.Validate(tok)
	assert.Error(t, err)
}

func TestValidate_Expired(t *testing.T) {
	t.Parallel()

	v, err := NewValidator(config.JWT{Alg: "HS256", HSSecret: "secret"})
	require.NoError(t, err)

	tok := signHS256(t, "secret", jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	_, err = v.Validate(tok)
	assert.Error(t, err)
}

func TestValidate_UserIDClaimFallback(t *testing.T) {
	t.Parallel()

	v, err := NewValidator(config.JWT{Alg: "HS256", HSSecret: "secret"})
	require.NoError(t, err)

	claims, err := v.Validate(signHS256(t, "secret", jwt.MapClaims{"user_id": "bob"}))
	require.NoError(t, err)
	assert.Equal(t, "bob", claims.UserID)
}

func TestValidate_MissingSubject(t *testing.T) {
	t.Parallel()

	v, err := NewValidator(config.JWT{Alg: "HS256", HSSecret: "secret"})
	require.NoError(t, err)

	_, err = v.Validate(signHS256(t, "secret", jwt.MapClaims{"role": "admin"}))
	assert.Error(t, err)
}

func TestNewValidator_RejectsUnknownAlg(t *testing.T) {
	t.Parallel()
	_, err := NewValidator(config.JWT{Alg: "none"})
	assert.Error(t, err)
}

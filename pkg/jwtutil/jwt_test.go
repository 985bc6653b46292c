package jwtutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	j := NewJWTUtil("super-secret")

	token, err := j.GenerateToken("user-1", "admin@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := j.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "admin@example.com", claims.Email)
}

func TestValidate_Rejects(t *testing.T) {
	j := NewJWTUtil("super-secret")

	expired, err := j.GenerateToken("user-1", "a@b.c", -time.Minute)
	require.NoError(t, err)
	_, err = j.ValidateToken(expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	foreign, err := NewJWTUtil("other-secret").GenerateToken("user-1", "a@b.c", time.Hour)
	require.NoError(t, err)
	_, err = j.ValidateToken(foreign)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	_, err = j.ValidateToken("garbage")
	assert.Error(t, err)

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	})
	signed, err := noExp.SignedString([]byte("super-secret"))
	require.NoError(t, err)
	_, err = j.ValidateToken(signed)
	assert.Error(t, err)
}

func TestDisabled(t *testing.T) {
	j := NewJWTUtil("")
	assert.False(t, j.Enabled())

	_, err := j.GenerateToken("u", "e", time.Hour)
	assert.ErrorIs(t, err, ErrNoSigningKey)

	_, err = j.ValidateToken("x")
	assert.ErrorIs(t, err, ErrNoSigningKey)
}

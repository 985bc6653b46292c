package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSigningKey is returned when the utility has no secret configured
var ErrNoSigningKey = errors.New("JWT signing key not provided")

// UserClaims are the claims carried by the auth provider's access tokens
type UserClaims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the token subject
func (c *UserClaims) UserID() string {
	return c.Subject
}

// JWTUtil verifies (and, for local development and tests, issues) access tokens
type JWTUtil struct {
	signingKey []byte
}

// NewJWTUtil creates a JWT utility for the given HMAC secret
func NewJWTUtil(signingKey string) *JWTUtil {
	return &JWTUtil{signingKey: []byte(signingKey)}
}

// Enabled reports whether a signing key is configured
func (j *JWTUtil) Enabled() bool {
	return len(j.signingKey) > 0
}

// GenerateToken creates an HS256 token for the user valid for ttl
func (j *JWTUtil) GenerateToken(userID, email string, ttl time.Duration) (string, error) {
	if !j.Enabled() {
		return "", ErrNoSigningKey
	}

	now := time.Now()
	claims := UserClaims{
		Email: email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.signingKey)
}

// ValidateToken validates and parses the JWT token
func (j *JWTUtil) ValidateToken(tokenString string) (*UserClaims, error) {
	if !j.Enabled() {
		return nil, ErrNoSigningKey
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&UserClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return j.signingKey, nil
		},
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

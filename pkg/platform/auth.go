package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ErrInvalidCredentials is returned when the auth API rejects email/password
var ErrInvalidCredentials = errors.New("invalid login credentials")

// User is the identity attached to an access token
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the response of a successful password sign-in
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// ExpiresAt reports when the access token stops being valid
func (s *Session) ExpiresAt(now time.Time) time.Time {
	return now.Add(time.Duration(s.ExpiresIn) * time.Second)
}

// SignInWithPassword exchanges email and password for a session
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	c.Logger.Info("Requesting password sign-in", zap.String("email", email))

	payload, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.AnonKey)

	body, err := c.do(req)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusBadRequest || apiErr.Status == http.StatusUnauthorized) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(body, &session); err != nil {
		c.Logger.Error("Failed to parse sign-in response", zap.Error(err))
		return nil, err
	}
	if session.AccessToken == "" {
		return nil, ErrInvalidCredentials
	}

	c.Logger.Info("Sign-in successful", zap.String("user_id", session.User.ID))
	return &session, nil
}

// GetUser asks the auth API who owns the access token.
// It is the remote alternative to verifying the token signature locally.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("apikey", c.AnonKey)

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, errors.New("token has no user")
	}
	return &user, nil
}

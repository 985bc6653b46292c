// Package platform talks to the hosted backend that owns authentication and
// object storage for the storefront.
package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/m7modfayez/sakr-sports/pkg/config"
	"go.uber.org/zap"
)

// ErrNotConfigured is returned when the platform URL or keys are missing
var ErrNotConfigured = errors.New("platform client is not configured")

// Client is an HTTP client for the hosted platform's auth and storage APIs
type Client struct {
	BaseURL        string
	AnonKey        string
	ServiceRoleKey string
	Bucket         string
	HTTPClient     *http.Client
	Logger         *zap.Logger
}

// ErrorResponse covers the error shapes returned by the auth and storage APIs
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"message"`
	Msg              string `json:"msg"`
	StatusCode       any    `json:"statusCode"`
}

func (e ErrorResponse) text() string {
	for _, s := range []string{e.ErrorDescription, e.Message, e.Msg, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// APIError is returned for non-2xx responses
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("platform request failed: %d %s", e.Status, e.Message)
}

// NewClient creates a platform client
func NewClient(baseURL, anonKey, serviceRoleKey, bucket string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL:        strings.TrimRight(baseURL, "/"),
		AnonKey:        anonKey,
		ServiceRoleKey: serviceRoleKey,
		Bucket:         bucket,
		HTTPClient:     &http.Client{Timeout: timeout},
		Logger:         logger,
	}
}

// NewClientFromConfig creates a platform client from service configuration
func NewClientFromConfig(cfg *config.PlatformConfig, logger *zap.Logger) *Client {
	return NewClient(cfg.URL, cfg.AnonKey, cfg.ServiceRoleKey, cfg.Bucket, cfg.Timeout, logger)
}

// do sends the request and returns the body of a 2xx response
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Logger.Error("Platform request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.Logger.Error("Failed to read platform response", zap.Error(err))
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var errorResp ErrorResponse
		msg := string(body)
		if err := json.Unmarshal(body, &errorResp); err == nil && errorResp.text() != "" {
			msg = errorResp.text()
		}
		c.Logger.Warn("Platform returned error status",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
			zap.String("error", msg))
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}

	return body, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if c.BaseURL == "" {
		return nil, ErrNotConfigured
	}
	return http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
}

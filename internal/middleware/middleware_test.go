package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/m7modfayez/sakr-sports/pkg/config"
	"github.com/m7modfayez/sakr-sports/pkg/jwtutil"
	"github.com/m7modfayez/sakr-sports/pkg/logger"
	"github.com/m7modfayez/sakr-sports/prometheus"
	prom "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-provider-secret"

func newGateServer(t *testing.T) (*echo.Echo, *jwtutil.JWTUtil) {
	t.Helper()

	jwt := jwtutil.NewJWTUtil(testSecret)
	store := NewCookieStore(config.SessionConfig{Secret: "cookie-secret", MaxAge: 3600})
	gate := NewSessionGate(store, "sakr_session", JWTVerifier(jwt))

	e := echo.New()
	e.Use(RequestIDMiddleware)
	e.Use(gate.Middleware())

	ok := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	e.GET("/dashboard", ok)
	e.GET("/dashboard/categories", ok)
	e.GET("/login", ok)
	e.GET("/products", ok)
	e.POST("/session", func(c echo.Context) error {
		if err := gate.Login(c, c.FormValue("token")); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	})
	e.POST("/logout", func(c echo.Context) error {
		if err := gate.Logout(c); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	})

	writes := e.Group("/api", APIAuthMiddleware(gate))
	writes.POST("/products", func(c echo.Context) error {
		identity, _ := IdentityFrom(c)
		return c.String(http.StatusCreated, identity.UserID)
	})

	return e, jwt
}

func do(e *echo.Echo, method, target string, cookies []*http.Cookie, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, e *echo.Echo, token string) []*http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/session?token="+token, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func TestSessionGate_RedirectsAnonymousDashboard(t *testing.T) {
	e, _ := newGateServer(t)

	for _, path := range []string{"/dashboard", "/dashboard/categories"} {
		rec := do(e, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation), path)
	}

	rec := do(e, http.MethodGet, "/products", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/login", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionGate_AuthenticatedFlow(t *testing.T) {
	e, jwt := newGateServer(t)

	token, err := jwt.GenerateToken("user-1", "admin@example.com", time.Hour)
	require.NoError(t, err)
	cookies := login(t, e, token)

	rec := do(e, http.MethodGet, "/dashboard", cookies, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/login", cookies, nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get(echo.HeaderLocation))

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	out := httptest.NewRecorder()
	e.ServeHTTP(out, req)
	require.Equal(t, http.StatusNoContent, out.Code)

	cleared := out.Result().Cookies()
	require.NotEmpty(t, cleared)
	assert.True(t, cleared[0].MaxAge < 0)
}

func TestSessionGate_RejectsExpiredOrForeignTokens(t *testing.T) {
	e, jwt := newGateServer(t)

	expired, err := jwt.GenerateToken("user-1", "admin@example.com", -time.Minute)
	require.NoError(t, err)
	rec := do(e, http.MethodGet, "/dashboard", login(t, e, expired), nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	foreign, err := jwtutil.NewJWTUtil("someone-else").GenerateToken("user-1", "x@example.com", time.Hour)
	require.NoError(t, err)
	rec = do(e, http.MethodGet, "/dashboard", login(t, e, foreign), nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	// cookie not signed by our store
	rec = do(e, http.MethodGet, "/dashboard", []*http.Cookie{{Name: "sakr_session", Value: "garbage"}}, nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestAPIAuth(t *testing.T) {
	e, jwt := newGateServer(t)

	rec := do(e, http.MethodPost, "/api/products", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing authorization token")

	rec = do(e, http.MethodPost, "/api/products", nil, map[string]string{"Authorization": "Token abc"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, http.MethodPost, "/api/products", nil, map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := jwt.GenerateToken("user-7", "admin@example.com", time.Hour)
	require.NoError(t, err)

	rec = do(e, http.MethodPost, "/api/products", nil, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "user-7", rec.Body.String())

	rec = do(e, http.MethodPost, "/api/products", login(t, e, token), nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	e := echo.New()
	e.Use(RequestIDMiddleware)
	e.GET("/", func(c echo.Context) error {
		assert.NotNil(t, logger.FromContext(c))
		assert.Equal(t, c.Get("request_id"), c.Request().Header.Get(echo.HeaderXRequestID))
		assert.IsType(t, &zap.Logger{}, logger.FromStdContext(c.Request().Context()))
		return c.NoContent(http.StatusOK)
	})

	rec := do(e, http.MethodGet, "/", nil, nil)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = do(e, http.MethodGet, "/", nil, map[string]string{echo.HeaderXRequestID: "upstream-id"})
	assert.Equal(t, "upstream-id", rec.Header().Get(echo.HeaderXRequestID))
}

func TestMetricsMiddleware(t *testing.T) {
	e := echo.New()
	e.Use(MetricsMiddleware)
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	before := prom.ToFloat64(prometheus.HttpRequestsTotal.WithLabelValues(http.MethodGet, "/health", "200"))
	do(e, http.MethodGet, "/health", nil, nil)
	after := prom.ToFloat64(prometheus.HttpRequestsTotal.WithLabelValues(http.MethodGet, "/health", "200"))

	assert.Equal(t, before+1, after)
}

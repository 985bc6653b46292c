package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/m7modfayez/sakr-sports/pkg/config"
	"github.com/m7modfayez/sakr-sports/pkg/jwtutil"
	"github.com/m7modfayez/sakr-sports/pkg/logger"
	"github.com/m7modfayez/sakr-sports/pkg/platform"
	"github.com/m7modfayez/sakr-sports/prometheus"
	"go.uber.org/zap"
)

const (
	identityKey    = "identity"
	accessTokenKey = "access_token"

	// LoginPath and DashboardPath are the two ends of the gate redirects
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

// Identity is the signed-in administrator
type Identity struct {
	UserID string
	Email  string
}

// TokenVerifier resolves an access token to an identity
type TokenVerifier func(ctx context.Context, token string) (*Identity, error)

// JWTVerifier checks tokens locally against the auth provider's signing secret
func JWTVerifier(j *jwtutil.JWTUtil) TokenVerifier {
	return func(_ context.Context, token string) (*Identity, error) {
		claims, err := j.ValidateToken(token)
		if err != nil {
			return nil, err
		}
		return &Identity{UserID: claims.UserID(), Email: claims.Email}, nil
	}
}

// RemoteVerifier asks the auth provider who owns the token
func RemoteVerifier(client *platform.Client) TokenVerifier {
	return func(ctx context.Context, token string) (*Identity, error) {
		user, err := client.GetUser(ctx, token)
		if err != nil {
			return nil, err
		}
		return &Identity{UserID: user.ID, Email: user.Email}, nil
	}
}

// NewCookieStore creates the signed cookie store holding dashboard sessions
func NewCookieStore(cfg config.SessionConfig) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// SessionGate loads the session identity on every request and guards the dashboard
type SessionGate struct {
	store  sessions.Store
	name   string
	verify TokenVerifier
}

// NewSessionGate creates a gate reading the named session from store
func NewSessionGate(store sessions.Store, name string, verify TokenVerifier) *SessionGate {
	return &SessionGate{store: store, name: name, verify: verify}
}

// Middleware resolves the session and applies the dashboard and login redirects
func (g *SessionGate) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := g.resolve(c)
			if identity != nil {
				c.Set(identityKey, identity)
				c.Set("user_id", identity.UserID)
				c.Set("email", identity.Email)
			}

			path := c.Request().URL.Path
			switch {
			case identity == nil && isDashboardPath(path):
				return c.Redirect(http.StatusSeeOther, LoginPath)
			case identity != nil && path == LoginPath:
				return c.Redirect(http.StatusSeeOther, DashboardPath)
			}

			return next(c)
		}
	}
}

func (g *SessionGate) resolve(c echo.Context) *Identity {
	token := g.token(c)
	if token == "" {
		return nil
	}

	identity, err := g.verify(c.Request().Context(), token)
	if err != nil {
		logger.FromContext(c).Debug("Session token rejected", zap.Error(err))
		prometheus.RecordAuthError("invalid_session")
		return nil
	}
	return identity
}

func (g *SessionGate) token(c echo.Context) string {
	sess, err := g.store.Get(c.Request(), g.name)
	if err != nil {
		// a cookie signed with an old secret decodes to a fresh session
		logger.FromContext(c).Debug("Discarding unreadable session cookie", zap.Error(err))
		return ""
	}
	token, _ := sess.Values[accessTokenKey].(string)
	return token
}

// Verify resolves a bearer token with the gate's verifier
func (g *SessionGate) Verify(ctx context.Context, token string) (*Identity, error) {
	return g.verify(ctx, token)
}

// Login stores the access token in the session cookie
func (g *SessionGate) Login(c echo.Context, accessToken string) error {
	if accessToken == "" {
		return errors.New("empty access token")
	}
	sess, _ := g.store.Get(c.Request(), g.name)
	sess.Values[accessTokenKey] = accessToken
	return sess.Save(c.Request(), c.Response())
}

// Logout expires the session cookie
func (g *SessionGate) Logout(c echo.Context) error {
	sess, _ := g.store.Get(c.Request(), g.name)
	delete(sess.Values, accessTokenKey)
	opts := sessions.Options{Path: "/"}
	if sess.Options != nil {
		opts = *sess.Options
	}
	opts.MaxAge = -1
	sess.Options = &opts
	return sess.Save(c.Request(), c.Response())
}

// AddFlash queues a one-time message for the next rendered page
func (g *SessionGate) AddFlash(c echo.Context, msg string) {
	sess, _ := g.store.Get(c.Request(), g.name)
	sess.AddFlash(msg)
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		logger.FromContext(c).Warn("Failed to save flash message", zap.Error(err))
	}
}

// Flashes pops the queued messages
func (g *SessionGate) Flashes(c echo.Context) []string {
	sess, err := g.store.Get(c.Request(), g.name)
	if err != nil {
		return nil
	}
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		logger.FromContext(c).Warn("Failed to clear flash messages", zap.Error(err))
	}

	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// IdentityFrom returns the identity the gate attached to the request
func IdentityFrom(c echo.Context) (*Identity, bool) {
	identity, ok := c.Get(identityKey).(*Identity)
	return identity, ok
}

func isDashboardPath(path string) bool {
	return path == DashboardPath || strings.HasPrefix(path, DashboardPath+"/")
}

package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/m7modfayez/sakr-sports/internal/catalog"
	"github.com/m7modfayez/sakr-sports/internal/middleware"
	"github.com/m7modfayez/sakr-sports/pkg/logger"
	"github.com/m7modfayez/sakr-sports/pkg/platform"
	"github.com/m7modfayez/sakr-sports/prometheus"
	"go.uber.org/zap"
)

// LoginPage renders the sign-in form
func (h *PageHandler) LoginPage(c echo.Context) error {
	return c.Render(http.StatusOK, "login.html", h.page(c, "تسجيل الدخول"))
}

// Login exchanges the submitted credentials for a session
func (h *PageHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.AuthAttemptsCounter.Inc()

	var form catalog.LoginForm
	err := c.Bind(&form)
	if err == nil {
		form.Email = strings.TrimSpace(form.Email)
		err = c.Validate(&form)
	}
	if err != nil {
		prometheus.RecordAuthError("invalid_form")
		return h.loginFailed(c, http.StatusBadRequest, form, catalog.FieldErrors(err), "")
	}

	session, err := h.auth.SignInWithPassword(c.Request().Context(), form.Email, form.Password)
	switch {
	case errors.Is(err, platform.ErrInvalidCredentials):
		log.Warn("Sign-in rejected", zap.String("email", form.Email))
		prometheus.RecordAuthError("invalid_credentials")
		return h.loginFailed(c, http.StatusUnauthorized, form, nil, "البريد الإلكتروني أو كلمة المرور غير صحيحة")
	case err != nil:
		log.Error("Sign-in failed", zap.String("email", form.Email), zap.Error(err))
		prometheus.RecordAuthError("provider_error")
		return h.loginFailed(c, http.StatusBadGateway, form, nil, msgUnexpected)
	}

	if err := h.gate.Login(c, session.AccessToken); err != nil {
		log.Error("Failed to save session", zap.Error(err))
		prometheus.RecordAuthError("session_error")
		return h.loginFailed(c, http.StatusInternalServerError, form, nil, msgUnexpected)
	}

	prometheus.AuthSuccessCounter.Inc()
	log.Info("Administrator signed in", zap.String("user_id", session.User.ID))
	return c.Redirect(http.StatusSeeOther, middleware.DashboardPath)
}

func (h *PageHandler) loginFailed(c echo.Context, status int, form catalog.LoginForm, errs map[string]string, msg string) error {
	data := h.page(c, "تسجيل الدخول")
	form.Password = ""
	data.LoginForm = form
	if errs != nil {
		data.Errors = errs
	}
	data.Error = msg
	return c.Render(status, "login.html", data)
}

// Logout clears the session
func (h *PageHandler) Logout(c echo.Context) error {
	if err := h.gate.Logout(c); err != nil {
		logger.FromContext(c).Warn("Failed to clear session", zap.Error(err))
	}
	return c.Redirect(http.StatusSeeOther, middleware.LoginPath)
}

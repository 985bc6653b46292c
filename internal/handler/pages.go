package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/m7modfayez/sakr-sports/internal/catalog"
	"github.com/m7modfayez/sakr-sports/internal/middleware"
	"github.com/m7modfayez/sakr-sports/internal/model"
	"github.com/m7modfayez/sakr-sports/internal/repository"
	"github.com/m7modfayez/sakr-sports/pkg/config"
	"github.com/m7modfayez/sakr-sports/pkg/logger"
	"github.com/m7modfayez/sakr-sports/pkg/platform"
	"go.uber.org/zap"
)

const (
	msgUnexpected  = "حدث خطأ غير متوقع، حاول مرة أخرى"
	msgInvalidForm = "بيانات النموذج غير صالحة"
)

// Authenticator signs administrators in against the auth provider
type Authenticator interface {
	SignInWithPassword(ctx context.Context, email, password string) (*platform.Session, error)
}

// ImageUploader stores an uploaded product image and returns its public URL
type ImageUploader interface {
	Upload(ctx context.Context, objectPath, contentType string, body io.Reader) (string, error)
}

// PageHandler serves the server-rendered storefront, login and dashboard pages
type PageHandler struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	gate       *middleware.SessionGate
	auth       Authenticator
	uploader   ImageUploader
	store      config.StoreConfig
}

// NewPageHandler creates a PageHandler
func NewPageHandler(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	gate *middleware.SessionGate,
	auth Authenticator,
	uploader ImageUploader,
	store config.StoreConfig,
) *PageHandler {
	return &PageHandler{
		products:   products,
		categories: categories,
		gate:       gate,
		auth:       auth,
		uploader:   uploader,
		store:      store,
	}
}

// pageData is the view model shared by every template
type pageData struct {
	Title   string
	Store   config.StoreConfig
	Admin   *middleware.Identity
	Flashes []string
	Error   string
	Errors  map[string]string
	Query   string

	Products      []model.Product
	Categories    []model.Category
	CategoryNames map[string]string
	Product       *model.Product
	Category      *model.Category

	ProductForm  catalog.ProductForm
	CategoryForm catalog.CategoryForm
	ContactForm  catalog.ContactForm
	LoginForm    catalog.LoginForm

	WhatsApp string
}

func (h *PageHandler) page(c echo.Context, title string) pageData {
	data := pageData{
		Title:   title,
		Store:   h.store,
		Flashes: h.gate.Flashes(c),
		Errors:  map[string]string{},
	}
	if identity, ok := middleware.IdentityFrom(c); ok {
		data.Admin = identity
	}
	return data
}

func (h *PageHandler) message(c echo.Context, status int, title, msg string) error {
	data := h.page(c, title)
	data.Error = msg
	return c.Render(status, "message.html", data)
}

func (h *PageHandler) notFound(c echo.Context, msg string) error {
	return h.message(c, http.StatusNotFound, "غير موجود", msg)
}

// failed logs an unexpected error and renders the generic error page
func (h *PageHandler) failed(c echo.Context, what string, err error) error {
	logger.FromContext(c).Error("Failed to "+what, zap.Error(err))
	return h.message(c, http.StatusInternalServerError, "خطأ", msgUnexpected)
}

func categoryNames(categories []model.Category) map[string]string {
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return names
}

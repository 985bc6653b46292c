package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/m7modfayez/sakr-sports/internal/catalog"
	"github.com/m7modfayez/sakr-sports/internal/repository"
	"github.com/m7modfayez/sakr-sports/pkg/logger"
	"github.com/m7modfayez/sakr-sports/prometheus"
	"github.com/m7modfayez/sakr-sports/web"
	"go.uber.org/zap"
)

const (
	homeProductCount    = 4
	catalogProductCount = 8
)

// Home renders the landing page
func (h *PageHandler) Home(c echo.Context) error {
	data := h.page(c, "الرئيسية")
	if err := h.loadHome(c, &data); err != nil {
		return h.failed(c, "load home page", err)
	}
	return c.Render(http.StatusOK, "home.html", data)
}

func (h *PageHandler) loadHome(c echo.Context, data *pageData) error {
	ctx := c.Request().Context()

	categories, err := h.categories.List(ctx)
	if err != nil {
		return err
	}
	products, err := h.products.List(ctx, repository.ProductFilter{Random: true, Limit: homeProductCount})
	if err != nil {
		return err
	}

	data.Categories = categories
	data.Products = products
	return nil
}

// Contact handles the home page contact form. Submissions are only logged.
func (h *PageHandler) Contact(c echo.Context) error {
	log := logger.FromContext(c)

	var form catalog.ContactForm
	err := c.Bind(&form)
	if err == nil {
		form.Name = strings.TrimSpace(form.Name)
		form.Email = strings.TrimSpace(form.Email)
		form.Message = strings.TrimSpace(form.Message)
		err = c.Validate(&form)
	}
	if err != nil {
		data := h.page(c, "الرئيسية")
		data.ContactForm = form
		data.Errors = catalog.FieldErrors(err)
		if err := h.loadHome(c, &data); err != nil {
			return h.failed(c, "load home page", err)
		}
		return c.Render(http.StatusBadRequest, "home.html", data)
	}

	log.Info("Contact form submitted",
		zap.String("name", form.Name),
		zap.String("email", form.Email),
		zap.String("phone", form.Phone),
		zap.String("subject", form.Subject),
		zap.Int("message_length", len(form.Message)))

	h.gate.AddFlash(c, "شكراً لتواصلك معنا، سنرد عليك قريباً")
	return c.Redirect(http.StatusSeeOther, "/#contact")
}

// Products renders the catalog. Without a query it shows a random selection;
// with ?q= it searches every product.
func (h *PageHandler) Products(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))

	filter := repository.ProductFilter{Random: true, Limit: catalogProductCount}
	if query != "" {
		filter = repository.ProductFilter{}
	}

	products, err := h.products.List(c.Request().Context(), filter)
	if err != nil {
		return h.failed(c, "list products", err)
	}

	data := h.page(c, "المنتجات")
	data.Query = query
	data.Products = catalog.FilterProducts(products, query, catalog.ScopeFull)
	return c.Render(http.StatusOK, "products.html", data)
}

// ProductDetail renders one product
func (h *PageHandler) ProductDetail(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	product, err := h.products.FindByID(ctx, id)
	if errors.Is(err, repository.ErrProductNotFound) {
		return h.notFound(c, "المنتج غير موجود")
	}
	if err != nil {
		return h.failed(c, "get product", err)
	}
	prometheus.RecordProductView(product.ID)

	data := h.page(c, product.Title)
	data.Product = product

	if product.CategoryID != nil {
		category, err := h.categories.FindByID(ctx, *product.CategoryID)
		switch {
		case err == nil:
			data.Category = category
		case !errors.Is(err, repository.ErrCategoryNotFound):
			logger.FromContext(c).Warn("Failed to load product category",
				zap.String("product_id", product.ID),
				zap.Error(err))
		}
	}

	data.WhatsApp = web.WhatsAppLink(h.store.WhatsAppPhone, product.Title, product.Price, h.pageURL(c))
	return c.Render(http.StatusOK, "product.html", data)
}

func (h *PageHandler) pageURL(c echo.Context) string {
	base := strings.TrimRight(h.store.PublicURL, "/")
	if base == "" {
		base = c.Scheme() + "://" + c.Request().Host
	}
	return base + c.Request().URL.Path
}

// Categories renders the category index with ?q= name search
func (h *PageHandler) Categories(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))

	categories, err := h.categories.List(c.Request().Context())
	if err != nil {
		return h.failed(c, "list categories", err)
	}

	data := h.page(c, "الأقسام")
	data.Query = query
	data.Categories = catalog.FilterCategories(categories, query)
	return c.Render(http.StatusOK, "categories.html", data)
}

// CategoryDetail renders a category and its products
func (h *PageHandler) CategoryDetail(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	category, err := h.categories.FindByID(ctx, id)
	if errors.Is(err, repository.ErrCategoryNotFound) {
		return h.notFound(c, "القسم غير موجود")
	}
	if err != nil {
		return h.failed(c, "get category", err)
	}

	products, err := h.products.List(ctx, repository.ProductFilter{CategoryID: category.ID})
	if err != nil {
		return h.failed(c, "list category products", err)
	}

	data := h.page(c, category.Name)
	data.Category = category
	data.Products = products
	return c.Render(http.StatusOK, "category.html", data)
}

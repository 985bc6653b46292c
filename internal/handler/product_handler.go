package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/m7modfayez/sakr-sports/internal/model"
	"github.com/m7modfayez/sakr-sports/internal/repository"
	"github.com/m7modfayez/sakr-sports/pkg/logger"
	"github.com/m7modfayez/sakr-sports/prometheus"
	"go.uber.org/zap"
)

// ProductHandler serves the /api/products JSON endpoints
type ProductHandler struct {
	products repository.ProductRepository
}

// NewProductHandler creates a ProductHandler
func NewProductHandler(products repository.ProductRepository) *ProductHandler {
	return &ProductHandler{products: products}
}

// resourceID reads the id from the path, falling back to ?id=
func resourceID(c echo.Context) string {
	if id := strings.TrimSpace(c.Param("id")); id != "" {
		return id
	}
	return strings.TrimSpace(c.QueryParam("id"))
}

func failure(verb, resource string, err error) echo.Map {
	return echo.Map{"error": "Failed to " + verb + " " + resource + ": " + err.Error()}
}

// ListProducts handles GET /api/products. With ?id= it returns one product.
func (h *ProductHandler) ListProducts(c echo.Context) error {
	if c.QueryParam("id") != "" {
		return h.GetProduct(c)
	}

	log := logger.FromContext(c)

	filter := repository.ProductFilter{
		CategoryID: strings.TrimSpace(c.QueryParam("category_id")),
	}
	switch c.QueryParam("random") {
	case "true", "1":
		filter.Random = true
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			log.Warn("Invalid limit parameter", zap.String("value", raw))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid limit"})
		}
		filter.Limit = limit
	}

	products, err := h.products.List(c.Request().Context(), filter)
	if err != nil {
		log.Error("Failed to list products", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, failure("fetch", "products", err))
	}

	log.Info("Products retrieved successfully",
		zap.Int("count", len(products)),
		zap.String("category_id", filter.CategoryID),
		zap.Bool("random", filter.Random))
	return c.JSON(http.StatusOK, products)
}

// GetProduct handles GET /api/products/:id
func (h *ProductHandler) GetProduct(c echo.Context) error {
	log := logger.FromContext(c)
	id := resourceID(c)

	product, err := h.products.FindByID(c.Request().Context(), id)
	if errors.Is(err, repository.ErrProductNotFound) {
		log.Info("Product not found", zap.String("product_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
	}
	if err != nil {
		log.Error("Failed to get product", zap.String("product_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, failure("fetch", "product", err))
	}

	return c.JSON(http.StatusOK, product)
}

// CreateProduct handles POST /api/products
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	log := logger.FromContext(c)

	body, err := decodePayload(c)
	if err != nil {
		log.Warn("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	title, ok := body.str("title")
	if !ok || strings.TrimSpace(title) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Title is required"})
	}
	price, ok := body.number("price")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Valid price is required"})
	}
	images, ok := body.strings("image_urls")
	if !ok || len(images) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "At least one image is required"})
	}

	product := model.Product{
		Title:     title,
		Price:     price,
		ImageURLs: model.StringList(images),
		Specs:     model.StringList{},
	}
	if description, ok := body.str("description"); ok {
		product.Description = description
	}
	if specs, ok := body.strings("specs"); ok {
		product.Specs = model.StringList(specs)
	}
	if body.has("price_before_discount") && !body.isNull("price_before_discount") {
		before, ok := body.number("price_before_discount")
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Valid price_before_discount is required"})
		}
		product.PriceBeforeDiscount = &before
	}
	if categoryID, ok := body.categoryRef(); ok && categoryID != "" {
		product.CategoryID = &categoryID
	}

	if err := h.products.Create(c.Request().Context(), &product); err != nil {
		log.Error("Failed to create product", zap.String("title", title), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, failure("create", "product", err))
	}

	prometheus.RecordProductOperation("create")
	log.Info("Product created successfully",
		zap.String("product_id", product.ID),
		zap.String("title", product.Title),
		zap.Int("images", len(product.ImageURLs)))
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/products/:id and PUT /api/products?id=.
// Only members present in the body are applied.
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	log := logger.FromContext(c)

	id := resourceID(c)
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Product ID is required"})
	}

	body, err := decodePayload(c)
	if err != nil {
		log.Warn("Invalid request data", zap.String("product_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	update, msg := productUpdateFrom(body)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	product, err := h.products.Update(c.Request().Context(), id, update)
	if errors.Is(err, repository.ErrProductNotFound) {
		log.Info("Product not found for update", zap.String("product_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
	}
	if err != nil {
		log.Error("Failed to update product", zap.String("product_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, failure("update", "product", err))
	}

	prometheus.RecordProductOperation("update")
	log.Info("Product updated successfully", zap.String("product_id", id))
	return c.JSON(http.StatusOK, product)
}

// productUpdateFrom maps a PUT body to a partial update.
// A non-empty message means the body is invalid.
func productUpdateFrom(body payload) (repository.ProductUpdate, string) {
	var u repository.ProductUpdate

	if body.has("title") {
		title, ok := body.str("title")
		if !ok || strings.TrimSpace(title) == "" {
			return u, "Title is required"
		}
		u.Title = &title
	}
	if body.has("description") {
		description, ok := body.str("description")
		if !ok && !body.isNull("description") {
			return u, "Invalid request data"
		}
		u.Description = &description
	}
	if body.has("price") {
		price, ok := body.number("price")
		if !ok {
			return u, "Valid price is required"
		}
		u.Price = &price
	}
	if body.has("price_before_discount") {
		if body.isNull("price_before_discount") {
			u.ClearPriceBeforeDiscount = true
		} else {
			before, ok := body.number("price_before_discount")
			if !ok {
				return u, "Valid price_before_discount is required"
			}
			u.PriceBeforeDiscount = &before
		}
	}
	if body.has("image_urls") {
		images, ok := body.strings("image_urls")
		if !ok || len(images) == 0 {
			return u, "image_urls must be a non-empty array"
		}
		u.ImageURLs = images
	}
	if body.isNull("specs") {
		u.Specs = []string{}
	} else if specs, ok := body.strings("specs"); ok {
		u.Specs = specs
	}
	if body.has("category_id") {
		categoryID, ok := body.categoryRef()
		if !ok {
			return u, "Invalid request data"
		}
		if categoryID == "" {
			u.ClearCategory = true
		} else {
			u.CategoryID = &categoryID
		}
	}

	return u, ""
}

// DeleteProduct handles DELETE /api/products/:id and DELETE /api/products?id=
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	log := logger.FromContext(c)

	id := resourceID(c)
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Product ID is required"})
	}

	err := h.products.Delete(c.Request().Context(), id)
	if errors.Is(err, repository.ErrProductNotFound) {
		log.Info("Product not found for deletion", zap.String("product_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
	}
	if err != nil {
		log.Error("Failed to delete product", zap.String("product_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, failure("delete", "product", err))
	}

	prometheus.RecordProductOperation("delete")
	log.Info("Product deleted successfully", zap.String("product_id", id))
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

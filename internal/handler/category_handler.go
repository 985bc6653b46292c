package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/m7modfayez/sakr-sports/internal/model"
	"github.com/m7modfayez/sakr-sports/internal/repository"
	"github.com/m7modfayez/sakr-sports/pkg/logger"
	"github.com/m7modfayez/sakr-sports/prometheus"
	"go.uber.org/zap"
)

// CategoryHandler serves the /api/categories JSON endpoints
type CategoryHandler struct {
	categories repository.CategoryRepository
}

// NewCategoryHandler creates a CategoryHandler
func NewCategoryHandler(categories repository.CategoryRepository) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// ListCategories handles GET /api/categories. With ?id= it returns one category.
func (h *CategoryHandler) ListCategories(c echo.Context) error {
	if c.QueryParam("id") != "" {
		return h.GetCategory(c)
	}

	log := logger.FromContext(c)

	categories, err := h.categories.List(c.Request().Context())
	if err != nil {
		log.Error("Failed to retrieve categories", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, failure("fetch", "categories", err))
	}

	log.Info("Categories retrieved successfully", zap.Int("count", len(categories)))
	return c.JSON(http.StatusOK, categories)
}

// GetCategory handles GET /api/categories/:id
func (h *CategoryHandler) GetCategory(c echo.Context) error {
	log := logger.FromContext(c)
	id := resourceID(c)

	category, err := h.categories.FindByID(c.Request().Context(), id)
	if errors.Is(err, repository.ErrCategoryNotFound) {
		log.Info("Category not found", zap.String("category_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Category not found"})
	}
	if err != nil {
		log.Error("Failed to get category", zap.String("category_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, failure("fetch", "category", err))
	}

	return c.JSON(http.StatusOK, category)
}

// CreateCategory handles POST /api/categories
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	log := logger.FromContext(c)

	body, err := decodePayload(c)
	if err != nil {
		log.Warn("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	name, ok := body.str("name")
	if !ok || strings.TrimSpace(name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Category name is required"})
	}
	icon, ok := body.str("icon")
	if !ok || strings.TrimSpace(icon) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Category icon is required"})
	}

	category := model.Category{Name: name, Icon: icon}
	if err := h.categories.Create(c.Request().Context(), &category); err != nil {
		log.Error("Failed to create category", zap.String("name", name), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, failure("create", "category", err))
	}

	prometheus.RecordCategoryOperation("create")
	log.Info("Category created successfully",
		zap.String("category_id", category.ID),
		zap.String("name", category.Name))
	return c.JSON(http.StatusCreated, category)
}

// UpdateCategory handles PUT /api/categories/:id and PUT /api/categories?id=
func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	log := logger.FromContext(c)

	id := resourceID(c)
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Category ID is required"})
	}

	body, err := decodePayload(c)
	if err != nil {
		log.Warn("Invalid request data", zap.String("category_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	var update repository.CategoryUpdate
	if body.has("name") {
		name, ok := body.str("name")
		if !ok || strings.TrimSpace(name) == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Category name is required"})
		}
		update.Name = &name
	}
	if body.has("icon") {
		icon, ok := body.str("icon")
		if !ok || strings.TrimSpace(icon) == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Category icon is required"})
		}
		update.Icon = &icon
	}

	category, err := h.categories.Update(c.Request().Context(), id, update)
	if errors.Is(err, repository.ErrCategoryNotFound) {
		log.Info("Category not found for update", zap.String("category_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Category not found"})
	}
	if err != nil {
		log.Error("Failed to update category", zap.String("category_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, failure("update", "category", err))
	}

	prometheus.RecordCategoryOperation("update")
	log.Info("Category updated successfully", zap.String("category_id", id))
	return c.JSON(http.StatusOK, category)
}

// DeleteCategory handles DELETE /api/categories/:id and DELETE /api/categories?id=
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	log := logger.FromContext(c)

	id := resourceID(c)
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Category ID is required"})
	}

	err := h.categories.Delete(c.Request().Context(), id)
	if errors.Is(err, repository.ErrCategoryNotFound) {
		log.Info("Category not found for deletion", zap.String("category_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Category not found"})
	}
	if err != nil {
		log.Error("Failed to delete category", zap.String("category_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, failure("delete", "category", err))
	}

	prometheus.RecordCategoryOperation("delete")
	log.Info("Category deleted successfully", zap.String("category_id", id))
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

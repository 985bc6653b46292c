package handler

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/m7modfayez/sakr-sports/internal/catalog"
	"github.com/m7modfayez/sakr-sports/internal/middleware"
	"github.com/m7modfayez/sakr-sports/internal/model"
	"github.com/m7modfayez/sakr-sports/internal/repository"
	"github.com/m7modfayez/sakr-sports/pkg/logger"
	"github.com/m7modfayez/sakr-sports/pkg/platform"
	"github.com/m7modfayez/sakr-sports/prometheus"
	"go.uber.org/zap"
)

const (
	imagesField          = "images"
	dashboardCategories  = middleware.DashboardPath + "/categories"
	msgImagesOnly        = "يمكن رفع ملفات الصور فقط"
	msgUploadFailed      = "تعذر رفع الصور، حاول مرة أخرى"
	msgProductNotFound   = "المنتج غير موجود"
	msgCategoryNotFound  = "القسم غير موجود"
	msgProductSaved      = "تم حفظ المنتج بنجاح"
	msgProductDeleted    = "تم حذف المنتج"
	msgCategorySaved     = "تم حفظ القسم بنجاح"
	msgCategoryDeleted   = "تم حذف القسم"
	blankSpecInputsOnNew = 3
)

// Dashboard renders the product table with the create form
func (h *PageHandler) Dashboard(c echo.Context) error {
	data := h.page(c, "لوحة التحكم")
	data.ProductForm = catalog.ProductForm{CategoryID: catalog.NoCategory, Specs: make([]string, blankSpecInputsOnNew)}
	return h.renderDashboard(c, http.StatusOK, data)
}

func (h *PageHandler) renderDashboard(c echo.Context, status int, data pageData) error {
	ctx := c.Request().Context()
	data.Query = strings.TrimSpace(c.QueryParam("q"))

	products, err := h.products.List(ctx, repository.ProductFilter{})
	if err != nil {
		return h.failed(c, "list products", err)
	}
	categories, err := h.categories.List(ctx)
	if err != nil {
		return h.failed(c, "list categories", err)
	}

	data.Products = catalog.FilterProducts(products, data.Query, catalog.ScopeTitle)
	data.Categories = categories
	data.CategoryNames = categoryNames(categories)
	return c.Render(status, "dashboard.html", data)
}

// EditProduct renders the edit form of one product
func (h *PageHandler) EditProduct(c echo.Context) error {
	product, err := h.products.FindByID(c.Request().Context(), c.Param("id"))
	if errors.Is(err, repository.ErrProductNotFound) {
		return h.notFound(c, msgProductNotFound)
	}
	if err != nil {
		return h.failed(c, "get product", err)
	}

	data := h.page(c, "تعديل المنتج")
	data.ProductForm = catalog.ProductFormFrom(product)
	return h.renderProductEdit(c, http.StatusOK, product, data)
}

func (h *PageHandler) renderProductEdit(c echo.Context, status int, product *model.Product, data pageData) error {
	categories, err := h.categories.List(c.Request().Context())
	if err != nil {
		return h.failed(c, "list categories", err)
	}
	data.Product = product
	data.Categories = categories
	return c.Render(status, "product_edit.html", data)
}

// CreateProduct handles the dashboard create form
func (h *PageHandler) CreateProduct(c echo.Context) error {
	return h.submitProduct(c, nil)
}

// UpdateProduct handles the dashboard edit form
func (h *PageHandler) UpdateProduct(c echo.Context) error {
	product, err := h.products.FindByID(c.Request().Context(), c.Param("id"))
	if errors.Is(err, repository.ErrProductNotFound) {
		return h.notFound(c, msgProductNotFound)
	}
	if err != nil {
		return h.failed(c, "get product", err)
	}
	return h.submitProduct(c, product)
}

// submitProduct validates the form, uploads new images and saves the product.
// existing is nil for a new product.
func (h *PageHandler) submitProduct(c echo.Context, existing *model.Product) error {
	log := logger.FromContext(c)
	ctx := c.Request().Context()

	var form catalog.ProductForm
	errs := map[string]string{}
	if err := c.Bind(&form); err != nil {
		log.Warn("Invalid product form", zap.Error(err))
		errs["_form"] = msgInvalidForm
	}
	form.Normalize()

	if err := c.Validate(&form); err != nil {
		for field, msg := range catalog.FieldErrors(err) {
			errs[field] = msg
		}
	}

	files, err := imageFiles(c)
	if err != nil {
		errs[imagesField] = err.Error()
	} else if len(form.ExistingImages)+len(files) == 0 {
		errs[imagesField] = catalog.ErrNoImages.Error()
	}

	if len(errs) > 0 {
		return h.productFormFailed(c, existing, form, errs)
	}

	uploaded, err := h.uploadImages(ctx, files)
	if err != nil {
		log.Error("Failed to upload product images", zap.Int("files", len(files)), zap.Error(err))
		errs[imagesField] = msgUploadFailed
		return h.productFormFailed(c, existing, form, errs)
	}
	images := append(append([]string{}, form.ExistingImages...), uploaded...)

	if existing == nil {
		product, err := form.ToProduct(images)
		if err != nil {
			return h.productFormFailed(c, existing, form, map[string]string{"_form": msgInvalidForm})
		}
		if err := h.products.Create(ctx, product); err != nil {
			return h.failed(c, "create product", err)
		}
		prometheus.RecordProductOperation("create")
		log.Info("Product created from dashboard", zap.String("product_id", product.ID))
	} else {
		update, err := form.ToUpdate(images)
		if err != nil {
			return h.productFormFailed(c, existing, form, map[string]string{"_form": msgInvalidForm})
		}
		_, err = h.products.Update(ctx, existing.ID, update)
		if errors.Is(err, repository.ErrProductNotFound) {
			return h.notFound(c, msgProductNotFound)
		}
		if err != nil {
			return h.failed(c, "update product", err)
		}
		prometheus.RecordProductOperation("update")
		log.Info("Product updated from dashboard", zap.String("product_id", existing.ID))
	}

	h.gate.AddFlash(c, msgProductSaved)
	return c.Redirect(http.StatusSeeOther, middleware.DashboardPath)
}

func (h *PageHandler) productFormFailed(c echo.Context, existing *model.Product, form catalog.ProductForm, errs map[string]string) error {
	if len(form.Specs) == 0 {
		form.Specs = []string{""}
	}
	if existing == nil {
		data := h.page(c, "لوحة التحكم")
		data.ProductForm = form
		data.Errors = errs
		return h.renderDashboard(c, http.StatusBadRequest, data)
	}

	data := h.page(c, "تعديل المنتج")
	data.ProductForm = form
	data.Errors = errs
	return h.renderProductEdit(c, http.StatusBadRequest, existing, data)
}

// imageFiles returns the uploaded image files, rejecting anything that is not an image
func imageFiles(c echo.Context) ([]*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New(msgInvalidForm)
	}

	var files []*multipart.FileHeader
	for _, fh := range form.File[imagesField] {
		if fh.Size == 0 && fh.Filename == "" {
			continue
		}
		if !strings.HasPrefix(fh.Header.Get(echo.HeaderContentType), "image/") {
			return nil, errors.New(msgImagesOnly)
		}
		files = append(files, fh)
	}
	return files, nil
}

func (h *PageHandler) uploadImages(ctx context.Context, files []*multipart.FileHeader) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, fh := range files {
		url, err := h.uploadImage(ctx, fh)
		if err != nil {
			return nil, fmt.Errorf("upload %s: %w", fh.Filename, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (h *PageHandler) uploadImage(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	return h.uploader.Upload(ctx, platform.NewObjectPath(fh.Filename), fh.Header.Get(echo.HeaderContentType), f)
}

// DeleteProduct handles the dashboard delete button
func (h *PageHandler) DeleteProduct(c echo.Context) error {
	id := c.Param("id")

	err := h.products.Delete(c.Request().Context(), id)
	if errors.Is(err, repository.ErrProductNotFound) {
		return h.notFound(c, msgProductNotFound)
	}
	if err != nil {
		return h.failed(c, "delete product", err)
	}

	prometheus.RecordProductOperation("delete")
	logger.FromContext(c).Info("Product deleted from dashboard", zap.String("product_id", id))
	h.gate.AddFlash(c, msgProductDeleted)
	return c.Redirect(http.StatusSeeOther, middleware.DashboardPath)
}

// DashboardCategories renders the category table with the create form
func (h *PageHandler) DashboardCategories(c echo.Context) error {
	return h.renderDashboardCategories(c, http.StatusOK, h.page(c, "إدارة الأقسام"))
}

func (h *PageHandler) renderDashboardCategories(c echo.Context, status int, data pageData) error {
	data.Query = strings.TrimSpace(c.QueryParam("q"))

	categories, err := h.categories.List(c.Request().Context())
	if err != nil {
		return h.failed(c, "list categories", err)
	}
	data.Categories = catalog.FilterCategories(categories, data.Query)
	return c.Render(status, "dashboard_categories.html", data)
}

// EditCategory renders the edit form of one category
func (h *PageHandler) EditCategory(c echo.Context) error {
	category, err := h.categories.FindByID(c.Request().Context(), c.Param("id"))
	if errors.Is(err, repository.ErrCategoryNotFound) {
		return h.notFound(c, msgCategoryNotFound)
	}
	if err != nil {
		return h.failed(c, "get category", err)
	}

	data := h.page(c, "تعديل القسم")
	data.Category = category
	data.CategoryForm = catalog.CategoryForm{Name: category.Name, Icon: category.Icon}
	return c.Render(http.StatusOK, "category_edit.html", data)
}

// CreateCategory handles the dashboard category create form
func (h *PageHandler) CreateCategory(c echo.Context) error {
	form, errs := bindCategoryForm(c)
	if len(errs) > 0 {
		data := h.page(c, "إدارة الأقسام")
		data.CategoryForm = form
		data.Errors = errs
		return h.renderDashboardCategories(c, http.StatusBadRequest, data)
	}

	category := model.Category{Name: form.Name, Icon: form.Icon}
	if err := h.categories.Create(c.Request().Context(), &category); err != nil {
		return h.failed(c, "create category", err)
	}

	prometheus.RecordCategoryOperation("create")
	logger.FromContext(c).Info("Category created from dashboard", zap.String("category_id", category.ID))
	h.gate.AddFlash(c, msgCategorySaved)
	return c.Redirect(http.StatusSeeOther, dashboardCategories)
}

// UpdateCategory handles the dashboard category edit form
func (h *PageHandler) UpdateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	form, errs := bindCategoryForm(c)
	if len(errs) > 0 {
		category, err := h.categories.FindByID(ctx, id)
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return h.notFound(c, msgCategoryNotFound)
		}
		if err != nil {
			return h.failed(c, "get category", err)
		}
		data := h.page(c, "تعديل القسم")
		data.Category = category
		data.CategoryForm = form
		data.Errors = errs
		return c.Render(http.StatusBadRequest, "category_edit.html", data)
	}

	_, err := h.categories.Update(ctx, id, repository.CategoryUpdate{Name: &form.Name, Icon: &form.Icon})
	if errors.Is(err, repository.ErrCategoryNotFound) {
		return h.notFound(c, msgCategoryNotFound)
	}
	if err != nil {
		return h.failed(c, "update category", err)
	}

	prometheus.RecordCategoryOperation("update")
	logger.FromContext(c).Info("Category updated from dashboard", zap.String("category_id", id))
	h.gate.AddFlash(c, msgCategorySaved)
	return c.Redirect(http.StatusSeeOther, dashboardCategories)
}

func bindCategoryForm(c echo.Context) (catalog.CategoryForm, map[string]string) {
	var form catalog.CategoryForm
	if err := c.Bind(&form); err != nil {
		return form, map[string]string{"_form": msgInvalidForm}
	}
	form.Normalize()
	if err := c.Validate(&form); err != nil {
		return form, catalog.FieldErrors(err)
	}
	return form, nil
}

// DeleteCategory handles the dashboard category delete button
func (h *PageHandler) DeleteCategory(c echo.Context) error {
	id := c.Param("id")

	err := h.categories.Delete(c.Request().Context(), id)
	if errors.Is(err, repository.ErrCategoryNotFound) {
		return h.notFound(c, msgCategoryNotFound)
	}
	if err != nil {
		return h.failed(c, "delete category", err)
	}

	prometheus.RecordCategoryOperation("delete")
	logger.FromContext(c).Info("Category deleted from dashboard", zap.String("category_id", id))
	h.gate.AddFlash(c, msgCategoryDeleted)
	return c.Redirect(http.StatusSeeOther, dashboardCategories)
}

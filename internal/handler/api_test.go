package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/m7modfayez/sakr-sports/internal/model"
	"github.com/m7modfayez/sakr-sports/internal/repository"
	"github.com/m7modfayez/sakr-sports/internal/testutil"
	"github.com/stretchr/testify/suite"
)

type APISuite struct {
	suite.Suite

	e          *echo.Echo
	images     *testutil.ImageStore
	products   repository.ProductRepository
	categories repository.CategoryRepository
}

func (s *APISuite) SetupTest() {
	db := testutil.NewDB(s.T())
	s.images = testutil.NewImageStore()
	s.products = repository.NewProductRepository(db, "sakr", s.images)
	s.categories = repository.NewCategoryRepository(db, "sakr")

	ph := NewProductHandler(s.products)
	ch := NewCategoryHandler(s.categories)

	s.e = echo.New()
	s.e.GET("/api/products", ph.ListProducts)
	s.e.GET("/api/products/:id", ph.GetProduct)
	s.e.POST("/api/products", ph.CreateProduct)
	s.e.PUT("/api/products", ph.UpdateProduct)
	s.e.PUT("/api/products/:id", ph.UpdateProduct)
	s.e.DELETE("/api/products", ph.DeleteProduct)
	s.e.DELETE("/api/products/:id", ph.DeleteProduct)

	s.e.GET("/api/categories", ch.ListCategories)
	s.e.GET("/api/categories/:id", ch.GetCategory)
	s.e.POST("/api/categories", ch.CreateCategory)
	s.e.PUT("/api/categories", ch.UpdateCategory)
	s.e.PUT("/api/categories/:id", ch.UpdateCategory)
	s.e.DELETE("/api/categories", ch.DeleteCategory)
}

func (s *APISuite) request(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *APISuite) errorOf(rec *httptest.ResponseRecorder) string {
	var body map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	msg, _ := body["error"].(string)
	return msg
}

func (s *APISuite) createProduct(body string) model.Product {
	rec := s.request(http.MethodPost, "/api/products", body)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var p model.Product
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func (s *APISuite) TestCreateProduct_Validation() {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing title", `{"price": 10, "image_urls": ["a"]}`, "Title is required"},
		{"blank title", `{"title": "  ", "price": 10, "image_urls": ["a"]}`, "Title is required"},
		{"non-string title", `{"title": 5, "price": 10, "image_urls": ["a"]}`, "Title is required"},
		{"missing price", `{"title": "Ball", "image_urls": ["a"]}`, "Valid price is required"},
		{"non-numeric price", `{"title": "Ball", "price": "abc", "image_urls": ["a"]}`, "Valid price is required"},
		{"empty string price", `{"title": "Ball", "price": "", "image_urls": ["a"]}`, "Valid price is required"},
		{"missing images", `{"title": "Ball", "price": 10}`, "At least one image is required"},
		{"empty images", `{"title": "Ball", "price": 10, "image_urls": []}`, "At least one image is required"},
		{"images not array", `{"title": "Ball", "price": 10, "image_urls": "a"}`, "At least one image is required"},
		{"bad discount", `{"title": "Ball", "price": 10, "image_urls": ["a"], "price_before_discount": "x"}`, "Valid price_before_discount is required"},
		{"malformed json", `{"title": `, "Invalid request data"},
		{"array body", `[1, 2]`, "Invalid request data"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := s.request(http.MethodPost, "/api/products", tt.body)
			s.Equal(http.StatusBadRequest, rec.Code)
			s.Equal(tt.want, s.errorOf(rec))
		})
	}
}

func (s *APISuite) TestCreateProduct_NormalizesOptionalFields() {
	p := s.createProduct(`{"title": "Ball", "price": "12.5", "image_urls": ["a"], "category_id": "none"}`)

	s.NotEmpty(p.ID)
	s.Equal(12.5, p.Price)
	s.Equal("", p.Description)
	s.NotNil(p.Specs)
	s.Empty(p.Specs)
	s.Nil(p.CategoryID)
	s.Nil(p.PriceBeforeDiscount)

	cat := uuid.NewString()
	p = s.createProduct(`{"title": "Net", "price": 3, "price_before_discount": "5", "image_urls": ["a", "b"], "specs": ["x"], "category_id": "` + cat + `"}`)
	s.Require().NotNil(p.PriceBeforeDiscount)
	s.Equal(5.0, *p.PriceBeforeDiscount)
	s.Require().NotNil(p.CategoryID)
	s.Equal(cat, *p.CategoryID)
	s.Equal(model.StringList{"x"}, p.Specs)
}

func (s *APISuite) TestGetProduct() {
	p := s.createProduct(`{"title": "Ball", "price": 10, "image_urls": ["a"]}`)

	rec := s.request(http.MethodGet, "/api/products/"+p.ID, "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"title":"Ball"`)

	rec = s.request(http.MethodGet, "/api/products?id="+p.ID, "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), p.ID)

	rec = s.request(http.MethodGet, "/api/products/"+uuid.NewString(), "")
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("Product not found", s.errorOf(rec))

	rec = s.request(http.MethodGet, "/api/products?id=unknown", "")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *APISuite) TestListProducts_RandomLimitAndCategory() {
	cat := uuid.NewString()
	for i := 0; i < 5; i++ {
		s.createProduct(`{"title": "P", "price": 1, "image_urls": ["a"]}`)
	}
	s.createProduct(`{"title": "InCat", "price": 1, "image_urls": ["a"], "category_id": "` + cat + `"}`)

	rec := s.request(http.MethodGet, "/api/products?random=true&limit=3", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var list []model.Product
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &list))
	s.LessOrEqual(len(list), 3)

	rec = s.request(http.MethodGet, "/api/products?category_id="+cat, "")
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &list))
	s.Require().Len(list, 1)
	s.Equal("InCat", list[0].Title)

	rec = s.request(http.MethodGet, "/api/products", "")
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &list))
	s.Len(list, 6)

	for _, bad := range []string{"abc", "0", "-2"} {
		rec = s.request(http.MethodGet, "/api/products?limit="+bad, "")
		s.Equal(http.StatusBadRequest, rec.Code, bad)
		s.Equal("Invalid limit", s.errorOf(rec))
	}
}

func (s *APISuite) TestListProducts_EmptyIsArray() {
	rec := s.request(http.MethodGet, "/api/products", "")
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`[]`, rec.Body.String())
}

func (s *APISuite) TestUpdateProduct_OnlyPriceLeavesOtherFields() {
	cat := uuid.NewString()
	p := s.createProduct(`{"title": "Jersey", "description": "home kit", "price": 100, "image_urls": ["a", "b"], "specs": ["cotton"], "category_id": "` + cat + `"}`)

	rec := s.request(http.MethodPut, "/api/products?id="+p.ID, `{"price": 80}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var got model.Product
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
	s.Equal(80.0, got.Price)
	s.Equal("Jersey", got.Title)
	s.Equal("home kit", got.Description)
	s.Equal(model.StringList{"a", "b"}, got.ImageURLs)
	s.Equal(model.StringList{"cotton"}, got.Specs)
	s.Require().NotNil(got.CategoryID)
	s.Equal(cat, *got.CategoryID)
}

func (s *APISuite) TestUpdateProduct_ExplicitNullClears() {
	cat := uuid.NewString()
	p := s.createProduct(`{"title": "Cap", "price": 10, "price_before_discount": 15, "image_urls": ["a"], "category_id": "` + cat + `"}`)

	rec := s.request(http.MethodPut, "/api/products/"+p.ID, `{"price_before_discount": null, "category_id": null}`)
	s.Require().Equal(http.StatusOK, rec.Code)

	var got model.Product
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
	s.Nil(got.PriceBeforeDiscount)
	s.Nil(got.CategoryID)
	s.Equal(10.0, got.Price)
}

func (s *APISuite) TestUpdateProduct_Validation() {
	p := s.createProduct(`{"title": "Cap", "price": 10, "image_urls": ["a"]}`)

	tests := []struct {
		name   string
		target string
		body   string
		status int
		want   string
	}{
		{"missing id", "/api/products", `{"price": 1}`, http.StatusBadRequest, "Product ID is required"},
		{"empty images", "/api/products/" + p.ID, `{"image_urls": []}`, http.StatusBadRequest, "image_urls must be a non-empty array"},
		{"null images", "/api/products/" + p.ID, `{"image_urls": null}`, http.StatusBadRequest, "image_urls must be a non-empty array"},
		{"blank title", "/api/products/" + p.ID, `{"title": ""}`, http.StatusBadRequest, "Title is required"},
		{"bad price", "/api/products/" + p.ID, `{"price": "ten"}`, http.StatusBadRequest, "Valid price is required"},
		{"malformed", "/api/products/" + p.ID, `{`, http.StatusBadRequest, "Invalid request data"},
		{"unknown id", "/api/products/" + uuid.NewString(), `{"price": 1}`, http.StatusNotFound, "Product not found"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := s.request(http.MethodPut, tt.target, tt.body)
			s.Equal(tt.status, rec.Code)
			s.Equal(tt.want, s.errorOf(rec))
		})
	}
}

func (s *APISuite) TestDeleteProduct_RemovesStoredImagesFirst() {
	p := s.createProduct(`{"title": "Kit", "price": 10, "image_urls": ["` +
		testutil.ImageURL("a.jpg") + `", "https://cdn.example.com/b.jpg", "` + testutil.ImageURL("c.png") + `"]}`)

	rec := s.request(http.MethodDelete, "/api/products?id="+p.ID, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"success": true}`, rec.Body.String())
	s.Equal([][]string{{"products/a.jpg", "products/c.png"}}, s.images.Removed())

	rec = s.request(http.MethodGet, "/api/products/"+p.ID, "")
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.request(http.MethodDelete, "/api/products/"+p.ID, "")
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.request(http.MethodDelete, "/api/products", "")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Product ID is required", s.errorOf(rec))
}

func (s *APISuite) TestDeleteProduct_ImageFailureStillDeletes() {
	s.images.Err = errors.New("storage unavailable")
	p := s.createProduct(`{"title": "Kit", "price": 10, "image_urls": ["` + testutil.ImageURL("a.jpg") + `"]}`)

	rec := s.request(http.MethodDelete, "/api/products/"+p.ID, "")
	s.Equal(http.StatusOK, rec.Code)

	rec = s.request(http.MethodGet, "/api/products/"+p.ID, "")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *APISuite) TestCategories() {
	rec := s.request(http.MethodPost, "/api/categories", `{"name": "Football"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Category icon is required", s.errorOf(rec))

	rec = s.request(http.MethodPost, "/api/categories", `{"icon": "⚽"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Category name is required", s.errorOf(rec))

	rec = s.request(http.MethodPost, "/api/categories", `{"name": "Football", "icon": "⚽"}`)
	s.Require().Equal(http.StatusCreated, rec.Code)
	var cat model.Category
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &cat))

	rec = s.request(http.MethodPut, "/api/categories?id="+cat.ID, `{"icon": "🥅"}`)
	s.Require().Equal(http.StatusOK, rec.Code)
	var updated model.Category
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &updated))
	s.Equal("Football", updated.Name)
	s.Equal("🥅", updated.Icon)

	rec = s.request(http.MethodPut, "/api/categories/"+cat.ID, `{"name": ""}`)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.request(http.MethodPut, "/api/categories", `{"name": "x"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Category ID is required", s.errorOf(rec))

	rec = s.request(http.MethodGet, "/api/categories?id="+cat.ID, "")
	s.Equal(http.StatusOK, rec.Code)

	rec = s.request(http.MethodGet, "/api/categories/"+uuid.NewString(), "")
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("Category not found", s.errorOf(rec))

	rec = s.request(http.MethodGet, "/api/categories", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "Football")

	rec = s.request(http.MethodDelete, "/api/categories?id="+cat.ID, "")
	s.Equal(http.StatusOK, rec.Code)

	rec = s.request(http.MethodDelete, "/api/categories?id="+cat.ID, "")
	s.Equal(http.StatusNotFound, rec.Code)
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

// failingProducts is a repository whose store is down
type failingProducts struct {
	repository.ProductRepository
	err error
}

func (f failingProducts) List(context.Context, repository.ProductFilter) ([]model.Product, error) {
	return nil, f.err
}

func (f failingProducts) Create(context.Context, *model.Product) error {
	return f.err
}

func TestProductHandler_StoreFailureIs500(t *testing.T) {
	h := NewProductHandler(failingProducts{err: errors.New("connection refused")})
	e := echo.New()
	e.GET("/api/products", h.ListProducts)
	e.POST("/api/products", h.CreateProduct)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Failed to fetch products: connection refused") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"title":"a","price":1,"image_urls":["x"]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Failed to create product: connection refused") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

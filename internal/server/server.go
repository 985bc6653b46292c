// Package server assembles the Echo instance: middleware chain, JSON API,
// storefront pages and the admin dashboard.
package server

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/m7modfayez/sakr-sports/internal/catalog"
	"github.com/m7modfayez/sakr-sports/internal/handler"
	mid "github.com/m7modfayez/sakr-sports/internal/middleware"
	"github.com/m7modfayez/sakr-sports/internal/repository"
	"github.com/m7modfayez/sakr-sports/pkg/config"
	"github.com/m7modfayez/sakr-sports/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// uploads carry several product photos
const bodyLimit = "25M"

// Deps are the collaborators the routes are wired to
type Deps struct {
	DB         *gorm.DB
	Products   repository.ProductRepository
	Categories repository.CategoryRepository
	Gate       *mid.SessionGate
	Auth       handler.Authenticator
	Uploader   handler.ImageUploader
	Store      config.StoreConfig
	Renderer   echo.Renderer
}

// New builds the Echo instance with every route registered
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = catalog.NewValidator()
	e.Renderer = d.Renderer

	e.Use(echomw.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)
	e.Use(logger.Middleware())
	e.Use(echomw.BodyLimit(bodyLimit))
	e.Use(d.Gate.Middleware())

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/health", handler.HealthCheck(d.DB))

	registerAPI(e, d)
	registerPages(e, d)

	return e
}

func registerAPI(e *echo.Echo, d Deps) {
	products := handler.NewProductHandler(d.Products)
	categories := handler.NewCategoryHandler(d.Categories)
	requireAuth := mid.APIAuthMiddleware(d.Gate)

	productAPI := e.Group("/api/products")
	productAPI.GET("", products.ListProducts)
	productAPI.GET("/:id", products.GetProduct)
	productAPI.POST("", products.CreateProduct, requireAuth)
	productAPI.PUT("", products.UpdateProduct, requireAuth)
	productAPI.PUT("/:id", products.UpdateProduct, requireAuth)
	productAPI.DELETE("", products.DeleteProduct, requireAuth)
	productAPI.DELETE("/:id", products.DeleteProduct, requireAuth)

	categoryAPI := e.Group("/api/categories")
	categoryAPI.GET("", categories.ListCategories)
	categoryAPI.GET("/:id", categories.GetCategory)
	categoryAPI.POST("", categories.CreateCategory, requireAuth)
	categoryAPI.PUT("", categories.UpdateCategory, requireAuth)
	categoryAPI.PUT("/:id", categories.UpdateCategory, requireAuth)
	categoryAPI.DELETE("", categories.DeleteCategory, requireAuth)
	categoryAPI.DELETE("/:id", categories.DeleteCategory, requireAuth)
}

func registerPages(e *echo.Echo, d Deps) {
	pages := handler.NewPageHandler(d.Products, d.Categories, d.Gate, d.Auth, d.Uploader, d.Store)

	e.GET("/", pages.Home)
	e.POST("/contact", pages.Contact)
	e.GET("/products", pages.Products)
	e.GET("/products/:id", pages.ProductDetail)
	e.GET("/categories", pages.Categories)
	e.GET("/categories/:id", pages.CategoryDetail)

	e.GET(mid.LoginPath, pages.LoginPage)
	e.POST(mid.LoginPath, pages.Login)
	e.POST("/logout", pages.Logout)

	// the session gate redirects anonymous requests under /dashboard
	dashboard := e.Group(mid.DashboardPath)
	dashboard.GET("", pages.Dashboard)
	dashboard.POST("/products", pages.CreateProduct)
	dashboard.GET("/products/:id/edit", pages.EditProduct)
	dashboard.POST("/products/:id", pages.UpdateProduct)
	dashboard.POST("/products/:id/delete", pages.DeleteProduct)
	dashboard.GET("/categories", pages.DashboardCategories)
	dashboard.POST("/categories", pages.CreateCategory)
	dashboard.GET("/categories/:id/edit", pages.EditCategory)
	dashboard.POST("/categories/:id", pages.UpdateCategory)
	dashboard.POST("/categories/:id/delete", pages.DeleteCategory)
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/m7modfayez/sakr-sports/internal/model"
	"github.com/m7modfayez/sakr-sports/pkg/logger"
	"github.com/m7modfayez/sakr-sports/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProductFilter narrows a product listing
type ProductFilter struct {
	CategoryID string
	Random     bool
	Limit      int
}

// ProductUpdate holds the fields of a partial update. Nil means unchanged.
type ProductUpdate struct {
	Title               *string
	Description         *string
	Price               *float64
	PriceBeforeDiscount *float64
	// ClearPriceBeforeDiscount sets the column to NULL and wins over PriceBeforeDiscount
	ClearPriceBeforeDiscount bool
	ImageURLs                []string
	Specs                    []string
	CategoryID               *string
	ClearCategory            bool
}

// Empty reports whether the update changes nothing
func (u ProductUpdate) Empty() bool {
	return len(u.columns()) == 0
}

func (u ProductUpdate) columns() map[string]any {
	cols := map[string]any{}
	if u.Title != nil {
		cols["title"] = *u.Title
	}
	if u.Description != nil {
		cols["description"] = *u.Description
	}
	if u.Price != nil {
		cols["price"] = *u.Price
	}
	if u.ClearPriceBeforeDiscount {
		cols["price_before_discount"] = nil
	} else if u.PriceBeforeDiscount != nil {
		cols["price_before_discount"] = *u.PriceBeforeDiscount
	}
	if u.ImageURLs != nil {
		cols["image_urls"] = model.StringList(u.ImageURLs)
	}
	if u.Specs != nil {
		cols["specs"] = model.StringList(u.Specs)
	}
	if u.ClearCategory {
		cols["category_id"] = nil
	} else if u.CategoryID != nil {
		cols["category_id"] = *u.CategoryID
	}
	return cols
}

// ImageStore removes product images from object storage
type ImageStore interface {
	PathFromURL(rawURL string) (string, error)
	Remove(ctx context.Context, paths []string) error
}

// ProductRepository is the tenant-scoped data access for products
type ProductRepository interface {
	List(ctx context.Context, filter ProductFilter) ([]model.Product, error)
	FindByID(ctx context.Context, id string) (*model.Product, error)
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, id string, update ProductUpdate) (*model.Product, error)
	Delete(ctx context.Context, id string) error
}

type productRepository struct {
	db     *gorm.DB
	appID  string
	images ImageStore
}

// NewProductRepository returns a ProductRepository bound to one tenant.
// images may be nil, in which case stored images are left in place on delete.
func NewProductRepository(db *gorm.DB, appID string, images ImageStore) ProductRepository {
	return &productRepository{db: db, appID: appID, images: images}
}

func (r *productRepository) scoped(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Where("app_id = ?", r.appID)
}

func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	defer prometheus.TrackDBOperation("product_list")(time.Now())

	query := r.scoped(ctx)
	if filter.CategoryID != "" {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.Random {
		query = query.Order("RANDOM()")
	} else {
		query = query.Order("created_at DESC")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	products := []model.Product{}
	if err := query.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (r *productRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	defer prometheus.TrackDBOperation("product_get")(time.Now())

	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrProductNotFound
	}

	var product model.Product
	err := r.scoped(ctx).Where("id = ?", id).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find product %s: %w", id, err)
	}
	return &product, nil
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	defer prometheus.TrackDBOperation("product_insert")(time.Now())

	product.ID = ""
	product.AppID = r.appID
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *productRepository) Update(ctx context.Context, id string, update ProductUpdate) (*model.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrProductNotFound
	}

	cols := update.columns()
	if len(cols) == 0 {
		return r.FindByID(ctx, id)
	}

	defer prometheus.TrackDBOperation("product_update")(time.Now())

	result := r.scoped(ctx).Model(&model.Product{}).Where("id = ?", id).Updates(cols)
	if result.Error != nil {
		return nil, fmt.Errorf("update product %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrProductNotFound
	}

	return r.FindByID(ctx, id)
}

// Delete removes the product row. Its stored images are removed first on a
// best-effort basis: failures are logged and never block the row deletion.
func (r *productRepository) Delete(ctx context.Context, id string) error {
	log := logger.FromStdContext(ctx)

	if _, err := uuid.Parse(id); err != nil {
		return ErrProductNotFound
	}

	var product model.Product
	err := r.scoped(ctx).Select("id", "image_urls").Where("id = ?", id).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("load product %s: %w", id, err)
	}

	r.removeImages(ctx, log, product.ImageURLs)

	defer prometheus.TrackDBOperation("product_delete")(time.Now())

	result := r.scoped(ctx).Where("id = ?", id).Delete(&model.Product{})
	if result.Error != nil {
		return fmt.Errorf("delete product %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepository) removeImages(ctx context.Context, log *zap.Logger, urls []string) {
	if len(urls) == 0 {
		return
	}
	if r.images == nil {
		log.Warn("No image store configured, leaving product images in place", zap.Int("count", len(urls)))
		return
	}

	paths := make([]string, 0, len(urls))
	for _, u := range urls {
		p, err := r.images.PathFromURL(u)
		if err != nil {
			log.Warn("Could not extract object path from image URL", zap.String("url", u), zap.Error(err))
			continue
		}
		log.Debug("Extracted object path", zap.String("url", u), zap.String("path", p))
		paths = append(paths, p)
	}
	if len(paths) == 0 {
		return
	}

	if err := r.images.Remove(ctx, paths); err != nil {
		log.Error("Error deleting product images", zap.Strings("paths", paths), zap.Error(err))
		prometheus.RecordImageRemoval("failed", len(paths))
		return
	}
	prometheus.RecordImageRemoval("removed", len(paths))
}

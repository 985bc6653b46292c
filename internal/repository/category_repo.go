package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/m7modfayez/sakr-sports/internal/model"
	"github.com/m7modfayez/sakr-sports/prometheus"
	"gorm.io/gorm"
)

// CategoryUpdate holds the fields of a partial update. Nil means unchanged.
type CategoryUpdate struct {
	Name *string
	Icon *string
}

// CategoryRepository is the tenant-scoped data access for categories
type CategoryRepository interface {
	List(ctx context.Context) ([]model.Category, error)
	FindByID(ctx context.Context, id string) (*model.Category, error)
	Create(ctx context.Context, category *model.Category) error
	Update(ctx context.Context, id string, update CategoryUpdate) (*model.Category, error)
	Delete(ctx context.Context, id string) error
}

type categoryRepository struct {
	db    *gorm.DB
	appID string
}

// NewCategoryRepository returns a CategoryRepository bound to one tenant
func NewCategoryRepository(db *gorm.DB, appID string) CategoryRepository {
	return &categoryRepository{db: db, appID: appID}
}

func (r *categoryRepository) scoped(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Where("app_id = ?", r.appID)
}

func (r *categoryRepository) List(ctx context.Context) ([]model.Category, error) {
	defer prometheus.TrackDBOperation("category_list")(time.Now())

	categories := []model.Category{}
	if err := r.scoped(ctx).Order("created_at DESC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (r *categoryRepository) FindByID(ctx context.Context, id string) (*model.Category, error) {
	defer prometheus.TrackDBOperation("category_get")(time.Now())

	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrCategoryNotFound
	}

	var category model.Category
	err := r.scoped(ctx).Where("id = ?", id).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find category %s: %w", id, err)
	}
	return &category, nil
}

func (r *categoryRepository) Create(ctx context.Context, category *model.Category) error {
	defer prometheus.TrackDBOperation("category_insert")(time.Now())

	category.ID = ""
	category.AppID = r.appID
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *categoryRepository) Update(ctx context.Context, id string, update CategoryUpdate) (*model.Category, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrCategoryNotFound
	}

	cols := map[string]any{}
	if update.Name != nil {
		cols["name"] = *update.Name
	}
	if update.Icon != nil {
		cols["icon"] = *update.Icon
	}
	if len(cols) == 0 {
		return r.FindByID(ctx, id)
	}

	defer prometheus.TrackDBOperation("category_update")(time.Now())

	result := r.scoped(ctx).Model(&model.Category{}).Where("id = ?", id).Updates(cols)
	if result.Error != nil {
		return nil, fmt.Errorf("update category %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrCategoryNotFound
	}

	return r.FindByID(ctx, id)
}

// Delete removes the category. Products pointing at it keep their category_id.
func (r *categoryRepository) Delete(ctx context.Context, id string) error {
	defer prometheus.TrackDBOperation("category_delete")(time.Now())

	if _, err := uuid.Parse(id); err != nil {
		return ErrCategoryNotFound
	}

	result := r.scoped(ctx).Where("id = ?", id).Delete(&model.Category{})
	if result.Error != nil {
		return fmt.Errorf("delete category %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product represents a catalog item shown on the storefront
type Product struct {
	ID                  string     `json:"id" gorm:"type:uuid;primaryKey"`
	Title               string     `json:"title" gorm:"type:varchar(255);not null"`
	Description         string     `json:"description" gorm:"type:text;not null;default:''"`
	Price               float64    `json:"price" gorm:"not null"`
	PriceBeforeDiscount *float64   `json:"price_before_discount"`
	ImageURLs           StringList `json:"image_urls" gorm:"column:image_urls;type:jsonb;not null"`
	Specs               StringList `json:"specs" gorm:"type:jsonb;not null"`
	CategoryID          *string    `json:"category_id" gorm:"type:uuid;index"`
	AppID               string     `json:"app_id" gorm:"index;not null;comment:'Tenant this product belongs to'"`
	CreatedAt           time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// BeforeCreate assigns a UUID when the caller did not
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.ImageURLs == nil {
		p.ImageURLs = StringList{}
	}
	if p.Specs == nil {
		p.Specs = StringList{}
	}
	return nil
}

// FirstImage returns the cover image or an empty string
func (p *Product) FirstImage() string {
	if len(p.ImageURLs) == 0 {
		return ""
	}
	return p.ImageURLs[0]
}

// Category groups products; Icon is usually an emoji
type Category struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	Icon      string    `json:"icon" gorm:"type:varchar(32);not null"`
	AppID     string    `json:"app_id" gorm:"index;not null;comment:'Tenant this category belongs to'"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID when the caller did not
func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

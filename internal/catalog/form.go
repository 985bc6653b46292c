package catalog

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/m7modfayez/sakr-sports/internal/model"
	"github.com/m7modfayez/sakr-sports/internal/repository"
)

// NoCategory is the select value meaning "product has no category"
const NoCategory = "none"

// Validator adapts go-playground/validator to echo.Validator.
// Field names in errors are the struct's form tags.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates the validator used by the dashboard and public forms
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Validate implements echo.Validator
func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// FieldErrors maps a validation error to per-field messages shown next to the inputs
func FieldErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		if err != nil {
			out["_form"] = err.Error()
		}
		return out
	}

	for _, fe := range verrs {
		field := fe.Field()
		if i := strings.IndexByte(field, '['); i >= 0 {
			field = field[:i]
		}
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = message(field, fe)
	}
	return out
}

func message(field string, fe validator.FieldError) string {
	switch field {
	case "title":
		return "الاسم مطلوب"
	case "specs":
		return "أضف ميزة واحدة على الأقل"
	}

	switch fe.Tag() {
	case "required":
		return "هذا الحقل مطلوب"
	case "email":
		return "البريد الإلكتروني غير صالح"
	case "numeric":
		return "يجب إدخال رقم صحيح"
	case "min":
		return "القيمة قصيرة جداً"
	default:
		return "قيمة غير صالحة"
	}
}

// ProductForm is the dashboard product editor
type ProductForm struct {
	Title               string   `form:"title" validate:"required,min=2"`
	Description         string   `form:"description"`
	Price               string   `form:"price" validate:"required,numeric"`
	PriceBeforeDiscount string   `form:"price_before_discount" validate:"omitempty,numeric"`
	CategoryID          string   `form:"category_id"`
	Specs               []string `form:"specs" validate:"min=1,dive,required"`
	ExistingImages      []string `form:"existing_images"`
}

// Normalize trims input and drops blank specs and images
func (f *ProductForm) Normalize() {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
	f.Price = strings.TrimSpace(f.Price)
	f.PriceBeforeDiscount = strings.TrimSpace(f.PriceBeforeDiscount)
	f.CategoryID = strings.TrimSpace(f.CategoryID)
	f.Specs = nonBlank(f.Specs)
	f.ExistingImages = nonBlank(f.ExistingImages)
}

// ErrNoImages is returned when a product would be saved without any image
var ErrNoImages = errors.New("يجب إضافة صورة واحدة على الأقل")

// ToProduct builds a new product from a validated form and its image URLs
func (f *ProductForm) ToProduct(imageURLs []string) (*model.Product, error) {
	if len(imageURLs) == 0 {
		return nil, ErrNoImages
	}
	price, err := strconv.ParseFloat(f.Price, 64)
	if err != nil {
		return nil, err
	}

	p := &model.Product{
		Title:       f.Title,
		Description: f.Description,
		Price:       price,
		ImageURLs:   model.StringList(imageURLs),
		Specs:       model.StringList(f.Specs),
	}
	if f.PriceBeforeDiscount != "" {
		before, err := strconv.ParseFloat(f.PriceBeforeDiscount, 64)
		if err != nil {
			return nil, err
		}
		p.PriceBeforeDiscount = &before
	}
	if id := f.categoryID(); id != "" {
		p.CategoryID = &id
	}
	return p, nil
}

// ToUpdate builds a full update from a validated edit form.
// The form always carries every field, so empty optional ones clear the column.
func (f *ProductForm) ToUpdate(imageURLs []string) (repository.ProductUpdate, error) {
	p, err := f.ToProduct(imageURLs)
	if err != nil {
		return repository.ProductUpdate{}, err
	}

	u := repository.ProductUpdate{
		Title:       &p.Title,
		Description: &p.Description,
		Price:       &p.Price,
		ImageURLs:   []string(p.ImageURLs),
		Specs:       []string(p.Specs),
	}
	if p.PriceBeforeDiscount != nil {
		u.PriceBeforeDiscount = p.PriceBeforeDiscount
	} else {
		u.ClearPriceBeforeDiscount = true
	}
	if p.CategoryID != nil {
		u.CategoryID = p.CategoryID
	} else {
		u.ClearCategory = true
	}
	return u, nil
}

func (f *ProductForm) categoryID() string {
	if f.CategoryID == "" || f.CategoryID == NoCategory {
		return ""
	}
	return f.CategoryID
}

// ProductFormFrom fills an edit form from a stored product
func ProductFormFrom(p *model.Product) ProductForm {
	f := ProductForm{
		Title:          p.Title,
		Description:    p.Description,
		Price:          strconv.FormatFloat(p.Price, 'f', -1, 64),
		CategoryID:     NoCategory,
		Specs:          append([]string(nil), p.Specs...),
		ExistingImages: append([]string(nil), p.ImageURLs...),
	}
	if p.PriceBeforeDiscount != nil {
		f.PriceBeforeDiscount = strconv.FormatFloat(*p.PriceBeforeDiscount, 'f', -1, 64)
	}
	if p.CategoryID != nil {
		f.CategoryID = *p.CategoryID
	}
	if len(f.Specs) == 0 {
		f.Specs = []string{""}
	}
	return f
}

// CategoryForm is the dashboard category editor
type CategoryForm struct {
	Name string `form:"name" validate:"required"`
	Icon string `form:"icon" validate:"required"`
}

// Normalize trims input
func (f *CategoryForm) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Icon = strings.TrimSpace(f.Icon)
}

// LoginForm is the admin sign-in form
type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// ContactForm is the public contact form on the home page
type ContactForm struct {
	Name    string `form:"name" validate:"required"`
	Email   string `form:"email" validate:"required,email"`
	Phone   string `form:"phone"`
	Subject string `form:"subject"`
	Message string `form:"message" validate:"required,min=5"`
}

func nonBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

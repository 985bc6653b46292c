// Package web holds the server-rendered storefront and dashboard templates.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"math"
	"net/url"
	"path"
	"strconv"

	"github.com/labstack/echo/v4"
)

//go:embed templates
var files embed.FS

// Renderer is an echo.Renderer over the embedded page templates.
// Each page is parsed together with the layout and partials.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page under templates/pages
func NewRenderer() (*Renderer, error) {
	pageFiles, err := fs.Glob(files, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(pageFiles))}
	for _, file := range pageFiles {
		t, err := template.New(path.Base(file)).Funcs(Funcs()).ParseFS(files,
			"templates/layout.html",
			"templates/partials/*.html",
			file,
		)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		r.pages[path.Base(file)] = t
	}
	return r, nil
}

// Render implements echo.Renderer
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

// Funcs are the helpers available to every template
func Funcs() template.FuncMap {
	return template.FuncMap{
		"price":    FormatPrice,
		"discount": DiscountPercent,
		"deref": func(v *float64) float64 {
			if v == nil {
				return 0
			}
			return *v
		},
		"whatsapp": WhatsAppLink,
		"lookup": func(names map[string]string, id *string) string {
			if id == nil {
				return ""
			}
			return names[*id]
		},
		"inc": func(i int) int { return i + 1 },
	}
}

// FormatPrice renders a price without trailing zeros
func FormatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// DiscountPercent is the rounded saving of price against the pre-discount price.
// It is zero when there is no real discount.
func DiscountPercent(price float64, before *float64) int {
	if before == nil || *before <= price || *before <= 0 {
		return 0
	}
	return int(math.Round((*before - price) / *before * 100))
}

// WhatsAppLink builds the wa.me inquiry link shown on the product page
func WhatsAppLink(phone, title string, price float64, pageURL string) string {
	if phone == "" {
		return ""
	}
	msg := "السلام عليكم، عايز تفاصيل عن " + title + " بسعر " + FormatPrice(price) + " جنيه 👋\n\n" + pageURL
	return "https://wa.me/" + phone + "?text=" + url.QueryEscape(msg)
}

package catalog

import (
	"strings"

	"github.com/m7modfayez/sakr-sports/internal/model"
)

// SearchScope selects which product fields a query matches against
type SearchScope int

const (
	// ScopeFull matches title, description and specs (storefront listing)
	ScopeFull SearchScope = iota
	// ScopeTitle matches the title only (dashboard table)
	ScopeTitle
)

// FilterProducts keeps products containing query, case-insensitively.
// An empty query returns the input unchanged.
func FilterProducts(products []model.Product, query string, scope SearchScope) []model.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return products
	}

	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if productMatches(p, q, scope) {
			out = append(out, p)
		}
	}
	return out
}

func productMatches(p model.Product, q string, scope SearchScope) bool {
	if strings.Contains(strings.ToLower(p.Title), q) {
		return true
	}
	if scope == ScopeTitle {
		return false
	}
	if strings.Contains(strings.ToLower(p.Description), q) {
		return true
	}
	for _, s := range p.Specs {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

// FilterCategories keeps categories whose name contains query
func FilterCategories(categories []model.Category, query string) []model.Category {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return categories
	}

	out := make([]model.Category, 0, len(categories))
	for _, c := range categories {
		if strings.Contains(strings.ToLower(c.Name), q) {
			out = append(out, c)
		}
	}
	return out
}

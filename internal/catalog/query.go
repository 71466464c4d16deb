package catalog

import (
	"fmt"
	"sort"
	"strings"

	"storefront/internal/models"
	"storefront/internal/repository"
)

// AllCategories is the category value that disables category filtering.
const AllCategories = "all"

// Query is a catalog listing request as received from a caller.
type Query struct {
	Text     string
	Category string
	Sort     string
}

// ParseSort maps a sort value to a sort key. Unknown or empty values fall back to
// newest first.
func ParseSort(value string) repository.SortKey {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "price-asc", "price_asc", "price-ascending", "price_ascending":
		return repository.SortPriceAsc
	case "price-desc", "price_desc", "price-descending", "price_descending":
		return repository.SortPriceDesc
	default:
		return repository.SortNewest
	}
}

func (q Query) Normalize() repository.ProductQuery {
	category := strings.TrimSpace(q.Category)
	if strings.EqualFold(category, AllCategories) {
		category = ""
	}
	return repository.ProductQuery{
		Text:     strings.TrimSpace(q.Text),
		Category: category,
		Sort:     ParseSort(q.Sort),
	}
}

// cacheKey quotes each value so separators inside the text cannot collide.
func cacheKey(q repository.ProductQuery) string {
	return fmt.Sprintf("q=%q|c=%q|s=%q", strings.ToLower(q.Text), q.Category, q.Sort)
}

// Matches reports whether p belongs in the result of q. inStock plays no part:
// out-of-stock products stay listed.
func Matches(p models.Product, q repository.ProductQuery) bool {
	if q.Category != "" && p.Category != q.Category {
		return false
	}
	text := strings.ToLower(q.Text)
	if text == "" {
		return true
	}
	for _, field := range []string{p.Name, p.Description, p.Category, p.Code()} {
		if strings.Contains(strings.ToLower(field), text) {
			return true
		}
	}
	return false
}

// SortProducts orders products in place; ties are broken by id.
func SortProducts(products []models.Product, key repository.SortKey) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		switch key {
		case repository.SortPriceAsc:
			if !a.Price.Equal(b.Price) {
				return a.Price.LessThan(b.Price)
			}
		case repository.SortPriceDesc:
			if !a.Price.Equal(b.Price) {
				return a.Price.GreaterThan(b.Price)
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	})
}

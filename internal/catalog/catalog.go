// Package catalog is the pure filter/sort/comparison engine. It never calls
// out; everything here is a deterministic transform over the loaded products.
package catalog

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"shopsense-backend/internal/models"
)

var numberRe = regexp.MustCompile(`\d+(\.\d+)?`)

// FirstNumber extracts the first integer-or-decimal token embedded in s.
func FirstNumber(s string) (float64, bool) {
	m := numberRe.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Apply derives the displayed product list: brand filter, then advanced
// minimum-threshold filters, then sort. The default sort preserves input
// order; price sorts are stable.
func Apply(products []models.Product, filters models.Filters) []models.Product {
	filtered := make([]models.Product, 0, len(products))
	for _, p := range products {
		if filters.Brand != models.BrandAll && p.Brand != filters.Brand {
			continue
		}
		if !meetsThresholds(p, filters.Advanced) {
			continue
		}
		filtered = append(filtered, p)
	}

	switch filters.SortBy {
	case models.SortPriceAsc:
		sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Price < filtered[j].Price })
	case models.SortPriceDesc:
		sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Price > filtered[j].Price })
	}

	return filtered
}

// meetsThresholds keeps a product only when, for every active attribute, some
// spec's feature text contains the attribute name and that feature's first
// numeric token is at least the threshold.
func meetsThresholds(p models.Product, advanced map[string]float64) bool {
	for name, min := range advanced {
		spec, ok := findSpec(p, name)
		if !ok {
			return false
		}
		val, ok := FirstNumber(spec.Feature)
		if !ok || val < min {
			return false
		}
	}
	return true
}

func findSpec(p models.Product, attr string) (models.Spec, bool) {
	needle := strings.ToLower(attr)
	for _, s := range p.Specs {
		if strings.Contains(strings.ToLower(s.Feature), needle) {
			return s, true
		}
	}
	return models.Spec{}, false
}

// Select gathers the products whose names are in the comparison selection,
// preserving product-list order.
func Select(products []models.Product, names []string) []models.Product {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	var out []models.Product
	for _, p := range products {
		if wanted[p.Name] {
			out = append(out, p)
		}
	}
	return out
}

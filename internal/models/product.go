package models

// Spec is a single product feature and the explanation shown alongside it.
type Spec struct {
	Feature     string `json:"feature"`
	Explanation string `json:"explanation"`
}

// Product is one normalized catalog entry. Name is the identity key within a
// session; the session store deduplicates by name when a search result lands.
type Product struct {
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Specs       []Spec  `json:"specs"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	ProductURL  string  `json:"productUrl,omitempty"`
}

// FilterableAttribute describes a numeric facet discoverable inside product specs.
type FilterableAttribute struct {
	Name string `json:"name"`
	Unit string `json:"unit,omitempty"`
}

// SearchResult is what the product search pipeline hands back to the orchestrator.
type SearchResult struct {
	Products             []Product             `json:"products"`
	FilterableAttributes []FilterableAttribute `json:"filterableAttributes"`
}

// Sort orders accepted by Filters.SortBy.
const (
	SortDefault   = "default"
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
)

// BrandAll is the sentinel brand value meaning "no brand filter".
const BrandAll = "all"

// Filters holds the user-adjustable view constraints. Advanced maps an
// attribute name to a minimum threshold.
type Filters struct {
	Brand    string             `json:"brand"`
	SortBy   string             `json:"sortBy"`
	Advanced map[string]float64 `json:"advanced"`
}

// DefaultFilters is the state filters reset to after every successful search.
func DefaultFilters() Filters {
	return Filters{Brand: BrandAll, SortBy: SortDefault, Advanced: map[string]float64{}}
}

// ValidSortBy reports whether s is one of the accepted sort orders.
func ValidSortBy(s string) bool {
	switch s {
	case SortDefault, SortPriceAsc, SortPriceDesc:
		return true
	}
	return false
}

package catalog

import "strings"

// Filter selects products by store tab and search text.
type Filter struct {
	// Type is a product type name, or "" / "all" for every type.
	Type   string
	Search string
}

func (f Filter) Match(p Product) bool {
	if t := strings.ToLower(strings.TrimSpace(f.Type)); t != "" && t != "all" {
		if string(p.Type) != t {
			return false
		}
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.Description), q)
}

// Apply returns the matching products in their original order.
func (f Filter) Apply(products []Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// FreeMeditations returns the free meditation tracks offered in the side panel.
func FreeMeditations(products []Product) []Product {
	var out []Product
	for _, p := range products {
		if p.Type == TypeMeditation && p.IsFree() {
			out = append(out, p)
		}
	}
	return out
}

package view

import (
	"strings"

	"github.com/abgdnv/catalogdesk/internal/store"
)

// Filter keeps the products whose name or category contains term,
// ignoring case. An empty term keeps everything.
func Filter(products []store.Product, term string) []store.Product {
	out := make([]store.Product, 0, len(products))
	needle := strings.ToLower(term)
	for _, p := range products {
		if needle == "" ||
			strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Category), needle) {
			out = append(out, p)
		}
	}
	return out
}

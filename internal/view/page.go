package view

import "github.com/abgdnv/catalogdesk/internal/store"

// Page is one slice of the filtered and sorted products.
type Page struct {
	Items         []store.Product `json:"items"`
	Number        int             `json:"page"`
	TotalPages    int             `json:"totalPages"`
	TotalMatching int             `json:"totalMatching"`
	PageSize      int             `json:"pageSize"`
	HasPrevious   bool            `json:"hasPrevious"`
	HasNext       bool            `json:"hasNext"`
}

// TotalPages is ceil(n/size) but never less than 1.
func TotalPages(n, size int) int {
	if size <= 0 || n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// Paginate cuts page number out of products. Numbers below 1 are read as 1.
// A number past the last page yields an empty page that keeps the number.
func Paginate(products []store.Product, number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = 1
	}
	total := TotalPages(len(products), size)

	items := []store.Product{}
	start := (number - 1) * size
	if start < len(products) {
		end := min(start+size, len(products))
		items = append(items, products[start:end]...)
	}

	pager := Pager{Page: number, TotalPages: total}
	return Page{
		Items:         items,
		Number:        number,
		TotalPages:    total,
		TotalMatching: len(products),
		PageSize:      size,
		HasPrevious:   pager.CanPrevious(),
		HasNext:       pager.CanNext(),
	}
}

// Pager is the "page N of M" control. Disabled transitions leave it unchanged.
type Pager struct {
	Page       int
	TotalPages int
}

func (p Pager) CanPrevious() bool { return p.Page > 1 }

func (p Pager) CanNext() bool { return p.Page < p.TotalPages }

func (p Pager) Previous() Pager {
	if !p.CanPrevious() {
		return p
	}
	p.Page--
	return p
}

func (p Pager) Next() Pager {
	if !p.CanNext() {
		return p
	}
	p.Page++
	return p
}

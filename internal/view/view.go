// Package view derives the display projection of the product collection:
// filter, then sort, then paginate. It never mutates its input.
package view

import (
	"fmt"

	"github.com/abgdnv/catalogdesk/internal/store"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const DefaultPageSize = 5

// State is the dashboard's search, sort and page selection.
// Changing search or sort keeps the page number as is.
type State struct {
	Search string `json:"search"`
	Sort   Sort   `json:"sort"`
	Page   int    `json:"page"`
}

// NewState returns the initial dashboard state: no search, no sort, page 1.
func NewState() State {
	return State{Sort: Sort{Direction: Asc}, Page: 1}
}

func (s State) SetSearch(term string) State {
	s.Search = term
	return s
}

func (s State) ToggleSort(key SortKey) State {
	s.Sort = s.Sort.Toggle(key)
	return s
}

// Next advances the page unless it is already at totalPages.
func (s State) Next(totalPages int) State {
	s.Page = Pager{Page: s.Page, TotalPages: totalPages}.Next().Page
	return s
}

// Previous steps back unless the page is already 1.
func (s State) Previous() State {
	s.Page = Pager{Page: s.Page}.Previous().Page
	return s
}

// View renders pages with a fixed page size and collation locale.
type View struct {
	pageSize int
	tag      language.Tag
}

// New validates the locale tag. A non-positive pageSize falls back to DefaultPageSize.
func New(pageSize int, locale string) (*View, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &View{pageSize: pageSize, tag: tag}, nil
}

func (v *View) PageSize() int { return v.pageSize }

// Render runs the pipeline over a snapshot.
func (v *View) Render(products []store.Product, st State) Page {
	// collate.Collator is not safe for concurrent use.
	col := collate.New(v.tag)
	matching := Filter(products, st.Search)
	sorted := SortProducts(matching, st.Sort, col)
	return Paginate(sorted, st.Page, v.pageSize)
}

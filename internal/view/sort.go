package view

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/abgdnv/catalogdesk/internal/store"
	"golang.org/x/text/collate"
)

// SortKey names the product field used for ordering.
type SortKey string

const (
	SortNone          SortKey = ""
	SortByID          SortKey = "id"
	SortByName        SortKey = "name"
	SortByCategory    SortKey = "category"
	SortByDescription SortKey = "description"
)

// ParseSortKey accepts an empty string or "none" as SortNone.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case SortByID, SortByName, SortByCategory, SortByDescription:
		return k, nil
	case SortNone, "none":
		return SortNone, nil
	default:
		return SortNone, fmt.Errorf("unknown sort key %q", s)
	}
}

// Direction is the ordering direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection defaults an empty string to Asc.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case Asc, Desc:
		return d, nil
	case "":
		return Asc, nil
	default:
		return Asc, fmt.Errorf("unknown sort direction %q", s)
	}
}

// Sort is the active sort key and direction.
type Sort struct {
	Key       SortKey   `json:"key"`
	Direction Direction `json:"direction"`
}

// Toggle returns the sort after the user picks key: the active ascending key
// flips to descending, anything else starts ascending.
func (s Sort) Toggle(key SortKey) Sort {
	if s.Key == key && s.Direction == Asc {
		return Sort{Key: key, Direction: Desc}
	}
	return Sort{Key: key, Direction: Asc}
}

// SortProducts returns a stably sorted copy of products.
// Text keys are compared with col; id compares numerically.
func SortProducts(products []store.Product, s Sort, col *collate.Collator) []store.Product {
	out := slices.Clone(products)
	if s.Key == SortNone {
		return out
	}

	compare := comparator(s.Key, col)
	if s.Direction == Desc {
		asc := compare
		compare = func(a, b store.Product) int { return asc(b, a) }
	}
	slices.SortStableFunc(out, compare)
	return out
}

func comparator(key SortKey, col *collate.Collator) func(a, b store.Product) int {
	switch key {
	case SortByID:
		return func(a, b store.Product) int { return compareIDs(a.ID, b.ID) }
	case SortByName:
		return func(a, b store.Product) int { return col.CompareString(a.Name, b.Name) }
	case SortByCategory:
		return func(a, b store.Product) int { return col.CompareString(a.Category, b.Category) }
	case SortByDescription:
		return func(a, b store.Product) int { return col.CompareString(a.Description, b.Description) }
	default:
		return func(store.Product, store.Product) int { return 0 }
	}
}

// compareIDs orders numeric ids by value, then non-numeric ids as plain strings.
func compareIDs(a, b string) int {
	na, aok := numericID(a)
	nb, bok := numericID(b)
	switch {
	case aok && bok:
		return cmp.Compare(na, nb)
	case aok:
		return -1
	case bok:
		return 1
	default:
		return cmp.Compare(a, b)
	}
}

func numericID(id string) (float64, bool) {
	f, err := strconv.ParseFloat(id, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

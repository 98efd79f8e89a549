// Package export renders the product collection for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/abgdnv/catalogdesk/internal/store"
)

const (
	ContentType = "text/csv"
	FileName    = "products.csv"
)

var header = []string{"ID", "Name", "Category", "Description"}

// WriteCSV writes a header row and one row per product, in the given order.
// Fields containing commas, quotes or newlines are quoted.
func WriteCSV(w io.Writer, products []store.Product) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, p := range products {
		if err := cw.Write([]string{p.ID, p.Name, p.Category, p.Description}); err != nil {
			return fmt.Errorf("write csv row %s: %w", p.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

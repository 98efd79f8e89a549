package config

import (
	"fmt"
	"log"
	"strings"

	"golang.org/x/text/language"
)

const (
	IDStrategyTimestamp = "timestamp"
	IDStrategyUUID      = "uuid"
)

const (
	defaultPageSize = 5
	defaultLocale   = "en"
)

// CatalogConfig holds the behaviour knobs of the product table.
type CatalogConfig struct {
	PageSize         int    `koanf:"pagesize"`
	Locale           string `koanf:"locale"`
	IDStrategy       string `koanf:"idstrategy"`
	StrictCategories bool   `koanf:"strictcategories"`
}

// String returns a string representation of the catalog configuration.
func (c *CatalogConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Catalog ---\n")
	b.WriteString(fmt.Sprintf("  pageSize: %d\n", c.PageSize))
	b.WriteString(fmt.Sprintf("  locale: %s\n", c.Locale))
	b.WriteString(fmt.Sprintf("  idStrategy: %s\n", c.IDStrategy))
	b.WriteString(fmt.Sprintf("  strictCategories: %t\n", c.StrictCategories))
	return b.String()
}

func (c *CatalogConfig) Validate() error {
	if c.PageSize <= 0 {
		log.Println("Using default value for catalog.pageSize")
		c.PageSize = defaultPageSize
	}
	if c.Locale == "" {
		log.Println("Using default value for catalog.locale")
		c.Locale = defaultLocale
	}
	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("invalid catalog locale %q: %w", c.Locale, err)
	}
	switch c.IDStrategy {
	case "":
		c.IDStrategy = IDStrategyTimestamp
	case IDStrategyTimestamp, IDStrategyUUID:
	default:
		return fmt.Errorf("unknown id strategy: %s", c.IDStrategy)
	}
	return nil
}

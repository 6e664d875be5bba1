package database

import (
	"io"

	"github.com/openswoop/banner9/pkg/scrape"
)

// Database stores a scraped catalog.
type Database interface {
	io.Closer
	SaveCatalog(*scrape.Catalog) error
}

// Package catalog looks up albums, tracks and artists in the third-party
// music catalog.
package catalog

import (
	"context"
	"errors"

	"spinlog/internal/models"
)

var (
	// ErrNotFound is returned when the catalog has no entity for a reference.
	ErrNotFound = errors.New("catalog item not found")
	// ErrUnsupportedType is returned for item types the catalog cannot resolve.
	ErrUnsupportedType = errors.New("unsupported catalog item type")
)

// Item is the display data of one catalog entity.
type Item struct {
	Ref        models.CatalogRef
	Name       string
	ArtistName string
	Image      string
}

// Catalog resolves references and searches by free text.
type Catalog interface {
	Lookup(ctx context.Context, ref models.CatalogRef) (Item, error)
	Search(ctx context.Context, query string, itemType models.ItemType, limit int) ([]Item, error)
}

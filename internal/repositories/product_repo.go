package repositories

import (
	"time"

	"github.com/shopspring/decimal"

	"katalog/internal/models"
)

// ProductFilters carries the optional range filters applied to listing
// and search queries. Nil fields are skipped.
type ProductFilters struct {
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	StartDate *time.Time
	EndDate   *time.Time
}

// Page is one page of products plus pagination metadata.
type Page struct {
	Items   []models.Product `json:"items"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	PerPage int              `json:"per_page"`
}

// LastPage returns the number of the final page for the current page
// size, at least 1.
func (p *Page) LastPage() int {
	if p.PerPage <= 0 {
		return 1
	}
	last := int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
	if last < 1 {
		return 1
	}
	return last
}

// ProductRepository defines the interface for product data access.
//
// Single-record lookups report a missing or soft-deleted row as
// (nil, nil): absence is a result, not an error. Storage failures
// propagate unwrapped into successes, and every mutation runs inside a
// transaction.
type ProductRepository interface {
	// GetAllPaginated returns one page of active products, newest
	// first, with the range filters applied.
	GetAllPaginated(filters ProductFilters, page, perPage int) (*Page, error)
	// FindByID fetches a single active-or-inactive (but not deleted)
	// product. Results are cached for a bounded TTL keyed by id; a
	// cache miss always falls through to a live lookup.
	FindByID(id string) (*models.Product, error)
	// FindByIDAnyState is the audit-only lookup: it includes
	// soft-deleted rows and never touches the cache. Not for ordinary
	// request flows.
	FindByIDAnyState(id string) (*models.Product, error)
	// Create persists a new product and fills in its generated id and
	// timestamps.
	Create(product *models.Product) error
	// Update persists changes and synchronously evicts the cache entry
	// before returning, so no reader can observe the pre-write
	// snapshot after a successful update.
	Update(product *models.Product) error
	// Delete evicts the cache entry and then soft-deletes the row, in
	// that order, inside one transaction.
	Delete(product *models.Product) error
	// Search is GetAllPaginated plus the keyword predicate.
	Search(keyword string, filters ProductFilters, page, perPage int) (*Page, error)
}

package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a catalog listing owned by a user.
type Product struct {
	ID            string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	UserID        string          `json:"user_id" gorm:"type:varchar(36);not null;index" validate:"required,uuid"`
	User          *User           `json:"user,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Title         string          `json:"title" gorm:"type:varchar(255)" validate:"required,min=3,max=255"`
	Description   string          `json:"description" gorm:"type:text" validate:"required,min=10,max=10000"`
	Price         decimal.Decimal `json:"price" gorm:"type:decimal(10,2)"`
	DateAvailable time.Time       `json:"date_available" gorm:"type:date;index"`
	IsActive      bool            `json:"is_active" gorm:"default:true;index"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `json:"-" gorm:"index"`
}

// Active restricts a query to listings visible to the public: the
// active flag is set and the row is not soft-deleted (GORM already
// excludes soft-deleted rows from every non-Unscoped query).
func Active(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true)
}

// SearchKeyword matches products whose title or description satisfies a
// full-text match against the keyword, or whose title contains the
// keyword as a case-insensitive substring. Both clauses are kept and
// OR-combined: full-text matching alone misses short or partial-word
// queries. An empty keyword leaves the query untouched.
//
// Full text uses the engine's native operator on PostgreSQL; on other
// dialects (the in-memory SQLite used in tests has no tsvector) the
// first clause degrades to a LIKE over both columns. Every value is
// bound through placeholders.
func SearchKeyword(keyword string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if keyword == "" {
			return db
		}
		pattern := "%" + strings.ToLower(keyword) + "%"
		if db.Dialector.Name() == "postgres" {
			return db.Where(
				"to_tsvector('english', title || ' ' || description) @@ plainto_tsquery('english', ?) OR LOWER(title) LIKE ?",
				keyword, pattern,
			)
		}
		return db.Where(
			"LOWER(description) LIKE ? OR LOWER(title) LIKE ?",
			pattern, pattern,
		)
	}
}

// PriceRange restricts a query by price bounds. Either bound may be nil
// independently; with both nil the query is untouched.
func PriceRange(min, max *decimal.Decimal) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if min != nil {
			db = db.Where("price >= ?", *min)
		}
		if max != nil {
			db = db.Where("price <= ?", *max)
		}
		return db
	}
}

// DateRange restricts a query by the date_available column, analogous
// to PriceRange.
func DateRange(start, end *time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if start != nil {
			db = db.Where("date_available >= ?", *start)
		}
		if end != nil {
			db = db.Where("date_available <= ?", *end)
		}
		return db
	}
}

package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"katalog/internal/models"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db    *gorm.DB
	cache ProductCache
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB, cache ProductCache) *GORMProductRepository {
	return &GORMProductRepository{
		db:    db,
		cache: cache,
	}
}

// listingQuery is the base for every listing/search query: the owner
// preloaded for display, active rows only, newest first. GORM's
// soft-delete support keeps deleted rows out without an explicit
// clause.
func (r *GORMProductRepository) listingQuery(filters ProductFilters) *gorm.DB {
	return r.db.Model(&models.Product{}).
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "username", "role", "created_at", "updated_at")
		}).
		Scopes(
			models.Active,
			models.PriceRange(filters.MinPrice, filters.MaxPrice),
			models.DateRange(filters.StartDate, filters.EndDate),
		)
}

// paginate runs the count plus one offset/limit page. It takes a query
// builder rather than a built query: GORM mutates the statement on
// terminal calls, so Count and Find each get a fresh chain.
func (r *GORMProductRepository) paginate(build func() *gorm.DB, page, perPage int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 15
	}

	var total int64
	if err := build().Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	var products []models.Product
	err := build().Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return &Page{
		Items:   products,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}, nil
}

// GetAllPaginated returns one page of active products, newest first.
func (r *GORMProductRepository) GetAllPaginated(filters ProductFilters, page, perPage int) (*Page, error) {
	return r.paginate(func() *gorm.DB {
		return r.listingQuery(filters)
	}, page, perPage)
}

// Search returns one page of active products matching the keyword.
func (r *GORMProductRepository) Search(keyword string, filters ProductFilters, page, perPage int) (*Page, error) {
	return r.paginate(func() *gorm.DB {
		return r.listingQuery(filters).Scopes(models.SearchKeyword(keyword))
	}, page, perPage)
}

// FindByID retrieves a single product, serving repeated lookups from
// the cache for up to ProductCacheTTL. Missing and soft-deleted rows
// yield (nil, nil).
func (r *GORMProductRepository) FindByID(id string) (*models.Product, error) {
	if cached, ok := r.cache.Get(id); ok {
		return cached, nil
	}

	var product models.Product
	err := r.db.Preload("User", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "name", "username", "role", "created_at", "updated_at")
	}).First(&product, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}

	r.cache.Set(id, &product, ProductCacheTTL)
	return &product, nil
}

// FindByIDAnyState is the audit-only lookup: soft-deleted rows are
// included and the cache is bypassed entirely.
func (r *GORMProductRepository) FindByIDAnyState(id string) (*models.Product, error) {
	var product models.Product
	err := r.db.Unscoped().First(&product, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Create persists a new product inside a transaction, generating its
// id when absent.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(product).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update persists changes inside a transaction and evicts the cache
// entry once the transaction has committed, so readers never observe
// the pre-write snapshot after Update returns.
func (r *GORMProductRepository) Update(product *models.Product) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		// Select("*") writes every field, zero values included; Save
		// is avoided because it silently creates the row when the
		// update matches nothing.
		res := tx.Model(&models.Product{}).
			Where("id = ?", product.ID).
			Select("*").
			Omit("created_at").
			Updates(product)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("product with ID %s not found for update", product.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	r.cache.Evict(product.ID)
	return nil
}

// Delete evicts the cache entry and then soft-deletes the row inside a
// transaction. Eviction comes first so a racing read cannot repopulate
// the cache with the soon-to-be-deleted snapshot it would have found
// there.
func (r *GORMProductRepository) Delete(product *models.Product) error {
	r.cache.Evict(product.ID)
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Product{}, "id = ?", product.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("product with ID %s not found for deletion", product.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

package repositories_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"katalog/internal/models"
	"katalog/internal/repositories"
)

// setupRepo opens a fresh in-memory SQLite database for one test. The
// DSN is derived from the test name so parallel packages never share
// state through SQLite's shared cache.
func setupRepo(t *testing.T) (*repositories.GORMProductRepository, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.Product{})
	assert.NoError(t, err)

	owner := &models.User{ID: "user-1", Name: "Owner One", Username: "owner1", Email: "owner1@example.com", Password: "x", Role: models.RoleUser}
	assert.NoError(t, db.Create(owner).Error)

	return repositories.NewGORMProductRepository(db, repositories.NewMemoryProductCache()), db
}

func seedProduct(t *testing.T, repo *repositories.GORMProductRepository, title, price string, createdAt time.Time) *models.Product {
	t.Helper()

	product := &models.Product{
		UserID:        "user-1",
		Title:         title,
		Description:   "<p>A perfectly ordinary description.</p>",
		Price:         decimal.RequireFromString(price),
		DateAvailable: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		IsActive:      true,
		CreatedAt:     createdAt,
	}
	assert.NoError(t, repo.Create(product))
	return product
}

func seedCatalog(t *testing.T, repo *repositories.GORMProductRepository) {
	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	seedProduct(t, repo, "Laravel Book", "50.00", base)
	seedProduct(t, repo, "PHP Guide", "30.00", base.Add(time.Minute))
	seedProduct(t, repo, "Widget", "200.00", base.Add(2*time.Minute))
}

func titles(page *repositories.Page) []string {
	out := make([]string, 0, len(page.Items))
	for _, p := range page.Items {
		out = append(out, p.Title)
	}
	return out
}

func TestSearch_Keyword(t *testing.T) {
	repo, _ := setupRepo(t)
	seedCatalog(t, repo)

	page, err := repo.Search("Guide", repositories.ProductFilters{}, 1, 15)
	assert.NoError(t, err)
	assert.Equal(t, []string{"PHP Guide"}, titles(page))
	assert.Equal(t, int64(1), page.Total)

	// Title substring matching is case-insensitive.
	page, err = repo.Search("guide", repositories.ProductFilters{}, 1, 15)
	assert.NoError(t, err)
	assert.Equal(t, []string{"PHP Guide"}, titles(page))

	// An empty keyword filters nothing.
	page, err = repo.Search("", repositories.ProductFilters{}, 1, 15)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
}

func TestSearch_MetacharacterKeywordIsBoundNotInterpolated(t *testing.T) {
	repo, db := setupRepo(t)
	seedCatalog(t, repo)

	page, err := repo.Search(`'; DROP TABLE products; --`, repositories.ProductFilters{}, 1, 15)
	assert.NoError(t, err)
	assert.Empty(t, page.Items)

	// Unrelated stored rows survive untouched.
	var count int64
	assert.NoError(t, db.Model(&models.Product{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)

	// A quote-heavy keyword is matched as data.
	page, err = repo.Search(`O'Brien" OR "1"="1`, repositories.ProductFilters{}, 1, 15)
	assert.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestGetAllPaginated_PriceRange(t *testing.T) {
	repo, _ := setupRepo(t)
	seedCatalog(t, repo)

	min := decimal.RequireFromString("40")
	max := decimal.RequireFromString("100")

	page, err := repo.GetAllPaginated(repositories.ProductFilters{MinPrice: &min, MaxPrice: &max}, 1, 15)
	assert.NoError(t, err)
	assert.Equal(t, []string{"Laravel Book"}, titles(page))
	for _, p := range page.Items {
		assert.True(t, p.Price.GreaterThanOrEqual(min))
		assert.True(t, p.Price.LessThanOrEqual(max))
	}

	// No bounds, no price filtering.
	page, err = repo.GetAllPaginated(repositories.ProductFilters{}, 1, 15)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)

	// Each bound works on its own.
	page, err = repo.GetAllPaginated(repositories.ProductFilters{MinPrice: &min}, 1, 15)
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"Laravel Book", "Widget"}, titles(page))

	page, err = repo.GetAllPaginated(repositories.ProductFilters{MaxPrice: &max}, 1, 15)
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"Laravel Book", "PHP Guide"}, titles(page))
}

func TestGetAllPaginated_DateRange(t *testing.T) {
	repo, _ := setupRepo(t)

	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	early := seedProduct(t, repo, "Early Bird", "10.00", base)
	late := seedProduct(t, repo, "Late Riser", "10.00", base.Add(time.Minute))

	earlyDate := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	lateDate := time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC)
	assert.NoError(t, repo.Update(&models.Product{ID: early.ID, UserID: early.UserID, Title: early.Title, Description: early.Description, Price: early.Price, DateAvailable: earlyDate, IsActive: true}))
	assert.NoError(t, repo.Update(&models.Product{ID: late.ID, UserID: late.UserID, Title: late.Title, Description: late.Description, Price: late.Price, DateAvailable: lateDate, IsActive: true}))

	start := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	page, err := repo.GetAllPaginated(repositories.ProductFilters{StartDate: &start}, 1, 15)
	assert.NoError(t, err)
	assert.Equal(t, []string{"Late Riser"}, titles(page))

	end := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	page, err = repo.GetAllPaginated(repositories.ProductFilters{EndDate: &end}, 1, 15)
	assert.NoError(t, err)
	assert.Equal(t, []string{"Early Bird"}, titles(page))
}

func TestGetAllPaginated_OrderingAndPagination(t *testing.T) {
	repo, _ := setupRepo(t)
	seedCatalog(t, repo)

	page, err := repo.GetAllPaginated(repositories.ProductFilters{}, 1, 2)
	assert.NoError(t, err)
	assert.Equal(t, []string{"Widget", "PHP Guide"}, titles(page)) // newest first
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.LastPage())

	page, err = repo.GetAllPaginated(repositories.ProductFilters{}, 2, 2)
	assert.NoError(t, err)
	assert.Equal(t, []string{"Laravel Book"}, titles(page))
}

func TestGetAllPaginated_ExcludesInactive(t *testing.T) {
	repo, _ := setupRepo(t)
	seedCatalog(t, repo)

	hidden := &models.Product{
		UserID:        "user-1",
		Title:         "Hidden Item",
		Description:   "<p>Not ready for the public yet.</p>",
		Price:         decimal.RequireFromString("5.00"),
		DateAvailable: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		IsActive:      false,
	}
	assert.NoError(t, repo.Create(hidden))

	page, err := repo.GetAllPaginated(repositories.ProductFilters{}, 1, 15)
	assert.NoError(t, err)
	assert.NotContains(t, titles(page), "Hidden Item")
}

func TestFindByID_CachesWithinTTL(t *testing.T) {
	repo, db := setupRepo(t)
	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	product := seedProduct(t, repo, "Cache Me", "42.00", base)

	first, err := repo.FindByID(product.ID)
	assert.NoError(t, err)
	assert.NotNil(t, first)

	// Mutate behind the repository's back: the cached snapshot is
	// served until a write through the repository evicts it.
	assert.NoError(t, db.Model(&models.Product{}).Where("id = ?", product.ID).Update("title", "Changed Underneath").Error)

	second, err := repo.FindByID(product.ID)
	assert.NoError(t, err)
	assert.Equal(t, first.Title, second.Title)
}

func TestUpdate_EvictsCache(t *testing.T) {
	repo, _ := setupRepo(t)
	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	product := seedProduct(t, repo, "Before Update", "42.00", base)

	// Warm the cache.
	_, err := repo.FindByID(product.ID)
	assert.NoError(t, err)

	product.Title = "After Update"
	assert.NoError(t, repo.Update(product))

	// A read immediately after a successful update never sees the
	// pre-write snapshot.
	fresh, err := repo.FindByID(product.ID)
	assert.NoError(t, err)
	assert.Equal(t, "After Update", fresh.Title)
}

func TestFindByID_Missing(t *testing.T) {
	repo, _ := setupRepo(t)

	product, err := repo.FindByID("does-not-exist")
	assert.NoError(t, err)
	assert.Nil(t, product)
}

func TestDelete_SoftDeletesAndAuditLookup(t *testing.T) {
	repo, _ := setupRepo(t)
	seedCatalog(t, repo)

	page, err := repo.GetAllPaginated(repositories.ProductFilters{}, 1, 15)
	assert.NoError(t, err)
	victim := page.Items[0]

	// Warm the cache, then delete.
	_, err = repo.FindByID(victim.ID)
	assert.NoError(t, err)
	assert.NoError(t, repo.Delete(&victim))

	// Gone from listings, search and ordinary lookup.
	page, err = repo.GetAllPaginated(repositories.ProductFilters{}, 1, 15)
	assert.NoError(t, err)
	assert.NotContains(t, titles(page), victim.Title)

	searchPage, err := repo.Search(victim.Title, repositories.ProductFilters{}, 1, 15)
	assert.NoError(t, err)
	assert.Empty(t, searchPage.Items)

	missing, err := repo.FindByID(victim.ID)
	assert.NoError(t, err)
	assert.Nil(t, missing)

	// Still retrievable through the audit-only path.
	audit, err := repo.FindByIDAnyState(victim.ID)
	assert.NoError(t, err)
	assert.NotNil(t, audit)
	assert.Equal(t, victim.Title, audit.Title)
	assert.True(t, audit.DeletedAt.Valid)
}

func TestUpdate_MissingRow(t *testing.T) {
	repo, _ := setupRepo(t)

	err := repo.Update(&models.Product{ID: "ghost", UserID: "user-1", Title: "Ghost", Description: "<p>Does not exist.</p>", Price: decimal.RequireFromString("1.00")})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found for update")

	err = repo.Delete(&models.Product{ID: "ghost"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found for deletion")
}

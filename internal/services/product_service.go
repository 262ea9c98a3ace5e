package services

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"katalog/internal/models"
	"katalog/internal/policy"
	"katalog/internal/repositories"
	"katalog/pkg/rabbitmq"
	"katalog/pkg/sanitize"
)

// ProductEventPublisher publishes product lifecycle events to the
// message broker. *rabbitmq.Client satisfies it; a nil publisher
// disables publishing.
type ProductEventPublisher interface {
	PublishProductEvent(routingKey string, body []byte) error
}

// CreateProductInput is the validated payload for creating a product.
// Bounds are enforced at the request boundary; the service only stamps
// ownership and sanitizes.
type CreateProductInput struct {
	Title         string
	Description   string
	Price         decimal.Decimal
	DateAvailable time.Time
	IsActive      *bool
}

// UpdateProductInput is the validated payload for a partial update.
// Nil fields are left untouched.
type UpdateProductInput struct {
	Title         *string
	Description   *string
	Price         *decimal.Decimal
	DateAvailable *time.Time
	IsActive      *bool
}

// ProductService is the single entry point for product operations. It
// composes sanitization, ownership stamping, authorization and
// logging on top of the repository.
type ProductService struct {
	repo   repositories.ProductRepository
	events ProductEventPublisher
	logger *slog.Logger
}

// NewProductService creates a new ProductService. events may be nil to
// disable lifecycle event publishing; a nil logger falls back to
// slog.Default().
func NewProductService(repo repositories.ProductRepository, events ProductEventPublisher, logger *slog.Logger) *ProductService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductService{
		repo:   repo,
		events: events,
		logger: logger,
	}
}

// GetPaginatedProducts retrieves one page of active products with the
// range filters applied.
func (s *ProductService) GetPaginatedProducts(filters repositories.ProductFilters, page, perPage int) (*repositories.Page, error) {
	result, err := s.repo.GetAllPaginated(filters, page, perPage)
	if err != nil {
		s.logger.Error("error fetching products", "error", err)
		return nil, err
	}
	return result, nil
}

// SearchProducts retrieves one page of active products matching the
// keyword, with the range filters applied.
func (s *ProductService) SearchProducts(keyword string, filters repositories.ProductFilters, page, perPage int) (*repositories.Page, error) {
	result, err := s.repo.Search(keyword, filters, page, perPage)
	if err != nil {
		s.logger.Error("error searching products", "keyword", keyword, "error", err)
		return nil, err
	}
	return result, nil
}

// GetProductByID retrieves a single product. A missing or soft-deleted
// product is (nil, nil).
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	product, err := s.repo.FindByID(id)
	if err != nil {
		s.logger.Error("error fetching product", "product_id", id, "error", err)
		return nil, err
	}
	return product, nil
}

// GetProductAnyState is the audit-only lookup, returning the product
// even when soft-deleted. Not for ordinary request flows.
func (s *ProductService) GetProductAnyState(id string) (*models.Product, error) {
	product, err := s.repo.FindByIDAnyState(id)
	if err != nil {
		s.logger.Error("error fetching product for audit", "product_id", id, "error", err)
		return nil, err
	}
	return product, nil
}

// CreateProduct creates a product owned by ownerID. The description is
// sanitized before storage; the active flag defaults to true when the
// payload omits it.
func (s *ProductService) CreateProduct(ownerID string, input CreateProductInput) (*models.Product, error) {
	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	product := &models.Product{
		UserID:        ownerID,
		Title:         input.Title,
		Description:   sanitize.RichText(input.Description),
		Price:         input.Price,
		DateAvailable: input.DateAvailable,
		IsActive:      isActive,
	}

	if err := s.repo.Create(product); err != nil {
		s.logger.Error("error creating product", "user_id", ownerID, "error", err)
		return nil, err
	}

	s.logger.Info("product created", "product_id", product.ID, "user_id", ownerID)
	s.publishEvent(rabbitmq.RoutingKeyProductCreated, product)
	return product, nil
}

// UpdateProduct applies the fields present in input to the product and
// persists it. A description in the payload is sanitized before it is
// stored.
func (s *ProductService) UpdateProduct(product *models.Product, input UpdateProductInput) error {
	if input.Title != nil {
		product.Title = *input.Title
	}
	if input.Description != nil {
		product.Description = sanitize.RichText(*input.Description)
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.DateAvailable != nil {
		product.DateAvailable = *input.DateAvailable
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.repo.Update(product); err != nil {
		s.logger.Error("error updating product", "product_id", product.ID, "error", err)
		return err
	}

	s.logger.Info("product updated", "product_id", product.ID, "user_id", product.UserID)
	s.publishEvent(rabbitmq.RoutingKeyProductUpdated, product)
	return nil
}

// DeleteProduct soft-deletes the product.
func (s *ProductService) DeleteProduct(product *models.Product) error {
	if err := s.repo.Delete(product); err != nil {
		s.logger.Error("error deleting product", "product_id", product.ID, "error", err)
		return err
	}

	s.logger.Info("product deleted", "product_id", product.ID, "user_id", product.UserID)
	s.publishEvent(rabbitmq.RoutingKeyProductDeleted, product)
	return nil
}

// CanModify reports whether the actor may modify the product. It
// delegates to the policy package's single ownership rule: admin,
// manage-products capability, or owner.
func (s *ProductService) CanModify(product *models.Product, actor policy.Actor) bool {
	return policy.CanModify(actor, *product)
}

// publishEvent emits a lifecycle event, best effort. Publishing never
// fails the mutation that triggered it; broker trouble is logged and
// the caller still gets its success.
func (s *ProductService) publishEvent(routingKey string, product *models.Product) {
	if s.events == nil {
		return
	}

	body, err := json.Marshal(map[string]interface{}{
		"product_id": product.ID,
		"user_id":    product.UserID,
		"title":      product.Title,
		"price":      product.Price,
		"is_active":  product.IsActive,
	})
	if err != nil {
		s.logger.Warn("failed to marshal product event", "product_id", product.ID, "error", err)
		return
	}

	if err := s.events.PublishProductEvent(routingKey, body); err != nil {
		s.logger.Warn("failed to publish product event", "routing_key", routingKey, "product_id", product.ID, "error", err)
	}
}

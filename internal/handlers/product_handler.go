package handlers

import (
	"fmt"
	"log"
	"time"

	"katalog/internal/middleware"
	"katalog/internal/models"
	"katalog/internal/policy"
	"katalog/internal/repositories"
	"katalog/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

var maxProductPrice = decimal.RequireFromString("99999999.99")

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	productService *services.ProductService
	validate       *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		validate:       validator.New(),
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleList)
	productRoutes.Get("/:id", h.HandleGetOne)
	productRoutes.Post("/", h.HandleCreate)
	productRoutes.Put("/:id", h.HandleUpdate)
	productRoutes.Delete("/:id", h.HandleDelete)
}

// StoreProductRequest represents the request body for creating a product.
type StoreProductRequest struct {
	Title         string          `json:"title" validate:"required,min=3,max=255"`
	Description   string          `json:"description" validate:"required,min=10,max=10000"`
	Price         decimal.Decimal `json:"price"`
	DateAvailable string          `json:"date_available" validate:"required,datetime=2006-01-02"`
	IsActive      *bool           `json:"is_active"`
}

// UpdateProductRequest represents the request body for a partial
// product update. Absent fields are left untouched.
type UpdateProductRequest struct {
	Title         *string          `json:"title" validate:"omitempty,min=3,max=255"`
	Description   *string          `json:"description" validate:"omitempty,min=10,max=10000"`
	Price         *decimal.Decimal `json:"price"`
	DateAvailable *string          `json:"date_available" validate:"omitempty,datetime=2006-01-02"`
	IsActive      *bool            `json:"is_active"`
}

// SearchProductRequest represents the listing/search query parameters.
type SearchProductRequest struct {
	Keyword   string `query:"keyword" validate:"omitempty,max=255"`
	MinPrice  string `query:"min_price" validate:"omitempty,numeric"`
	MaxPrice  string `query:"max_price" validate:"omitempty,numeric"`
	StartDate string `query:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `query:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Page      int    `query:"page" validate:"omitempty,min=1"`
	PerPage   int    `query:"per_page" validate:"omitempty,min=1,max=100"`
}

// productResponse is the presentation shape of a single product.
// Price is a fixed 2-decimal string; the description has already been
// sanitized on the write path.
type productResponse struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Price         string `json:"price"`
	DateAvailable string `json:"date_available"`
	IsActive      bool   `json:"is_active"`
	OwnerName     string `json:"owner_name"`
}

func toProductResponse(p models.Product) productResponse {
	ownerName := ""
	if p.User != nil {
		ownerName = p.User.Name
	}
	return productResponse{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		Price:         p.Price.StringFixed(2),
		DateAvailable: p.DateAvailable.Format(dateLayout),
		IsActive:      p.IsActive,
		OwnerName:     ownerName,
	}
}

func toPageResponse(page *repositories.Page) fiber.Map {
	items := make([]productResponse, 0, len(page.Items))
	for _, p := range page.Items {
		items = append(items, toProductResponse(p))
	}
	return fiber.Map{
		"data": items,
		"meta": fiber.Map{
			"total":     page.Total,
			"page":      page.Page,
			"per_page":  page.PerPage,
			"last_page": page.LastPage(),
		},
	}
}

func validationErrorResponse(c *fiber.Ctx, err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}

// validatePrice enforces the price bounds the entity guarantees:
// non-negative, at most two fractional digits, capped at 99999999.99.
func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return fmt.Errorf("price cannot be negative")
	}
	if price.GreaterThan(maxProductPrice) {
		return fmt.Errorf("price cannot exceed %s", maxProductPrice.StringFixed(2))
	}
	if price.Exponent() < -2 {
		return fmt.Errorf("price allows at most 2 decimal places")
	}
	return nil
}

// HandleList lists products, switching to keyword search when a
// keyword is present.
func (h *ProductHandler) HandleList(c *fiber.Ctx) error {
	var req SearchProductRequest
	if err := c.QueryParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid query parameters",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, err)
	}

	filters, err := buildFilters(req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid filters",
			"error":   err.Error(),
		})
	}

	perPage := req.PerPage
	if perPage == 0 {
		perPage = 15
	}

	var page *repositories.Page
	if req.Keyword != "" {
		page, err = h.productService.SearchProducts(req.Keyword, filters, req.Page, perPage)
	} else {
		page, err = h.productService.GetPaginatedProducts(filters, req.Page, perPage)
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not fetch products",
			"error":   err.Error(),
		})
	}

	return c.JSON(toPageResponse(page))
}

func buildFilters(req SearchProductRequest) (repositories.ProductFilters, error) {
	var filters repositories.ProductFilters

	if req.MinPrice != "" {
		min, err := decimal.NewFromString(req.MinPrice)
		if err != nil {
			return filters, fmt.Errorf("invalid min_price: %w", err)
		}
		filters.MinPrice = &min
	}
	if req.MaxPrice != "" {
		max, err := decimal.NewFromString(req.MaxPrice)
		if err != nil {
			return filters, fmt.Errorf("invalid max_price: %w", err)
		}
		filters.MaxPrice = &max
	}
	if filters.MinPrice != nil && filters.MaxPrice != nil && filters.MaxPrice.LessThan(*filters.MinPrice) {
		return filters, fmt.Errorf("max_price must be greater than or equal to min_price")
	}

	if req.StartDate != "" {
		start, err := time.Parse(dateLayout, req.StartDate)
		if err != nil {
			return filters, fmt.Errorf("invalid start_date: %w", err)
		}
		filters.StartDate = &start
	}
	if req.EndDate != "" {
		end, err := time.Parse(dateLayout, req.EndDate)
		if err != nil {
			return filters, fmt.Errorf("invalid end_date: %w", err)
		}
		filters.EndDate = &end
	}

	return filters, nil
}

// HandleGetOne returns a single product by id.
func (h *ProductHandler) HandleGetOne(c *fiber.Ctx) error {
	product, err := h.productService.GetProductByID(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not fetch product",
			"error":   err.Error(),
		})
	}
	if product == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Product not found",
		})
	}

	return c.JSON(fiber.Map{"data": toProductResponse(*product)})
}

// HandleCreate creates a product owned by the authenticated user.
func (h *ProductHandler) HandleCreate(c *fiber.Ctx) error {
	actor := middleware.ActorFromCtx(c)
	if !policy.CanCreate(actor) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "You are not allowed to create products",
		})
	}

	var req StoreProductRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing create product request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, err)
	}
	if err := validatePrice(req.Price); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	dateAvailable, err := time.Parse(dateLayout, req.DateAvailable)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   "invalid date_available",
		})
	}
	// The available date must not be in the past on creation. Edits
	// may set any date; only this boundary enforces it.
	today := time.Now().Truncate(24 * time.Hour)
	if dateAvailable.Before(today) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   "date_available cannot be in the past",
		})
	}

	product, err := h.productService.CreateProduct(actor.ID, services.CreateProductInput{
		Title:         req.Title,
		Description:   req.Description,
		Price:         req.Price,
		DateAvailable: dateAvailable,
		IsActive:      req.IsActive,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create product",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Product created successfully",
		"data":    toProductResponse(*product),
	})
}

// HandleUpdate applies a partial update to a product the actor may
// modify.
func (h *ProductHandler) HandleUpdate(c *fiber.Ctx) error {
	product, err := h.productService.GetProductByID(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not fetch product",
			"error":   err.Error(),
		})
	}
	if product == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Product not found",
		})
	}

	actor := middleware.ActorFromCtx(c)
	if !h.productService.CanModify(product, actor) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "You are not allowed to modify this product",
		})
	}

	var req UpdateProductRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing update product request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, err)
	}
	if req.Price != nil {
		if err := validatePrice(*req.Price); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Validation failed",
				"error":   err.Error(),
			})
		}
	}

	input := services.UpdateProductInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		IsActive:    req.IsActive,
	}
	if req.DateAvailable != nil {
		dateAvailable, err := time.Parse(dateLayout, *req.DateAvailable)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Validation failed",
				"error":   "invalid date_available",
			})
		}
		input.DateAvailable = &dateAvailable
	}

	if err := h.productService.UpdateProduct(product, input); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update product",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Product updated successfully",
		"data":    toProductResponse(*product),
	})
}

// HandleDelete soft-deletes a product the actor may modify.
func (h *ProductHandler) HandleDelete(c *fiber.Ctx) error {
	product, err := h.productService.GetProductByID(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not fetch product",
			"error":   err.Error(),
		})
	}
	if product == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Product not found",
		})
	}

	actor := middleware.ActorFromCtx(c)
	if !h.productService.CanModify(product, actor) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "You are not allowed to delete this product",
		})
	}

	if err := h.productService.DeleteProduct(product); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not delete product",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Product deleted successfully",
	})
}

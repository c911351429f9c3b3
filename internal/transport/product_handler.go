package transport

import (
	"net/http"
	"strconv"

	"butcher-shop/internal/domain"
	"butcher-shop/internal/middleware"
	"butcher-shop/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductRequest is the admin payload for creating or replacing a product
type ProductRequest struct {
	Name        string                `json:"name" validate:"required,max=200"`
	Description string                `json:"description"`
	Price       decimal.Decimal       `json:"price" validate:"gte=0"`
	CategoryID  string                `json:"category_id" validate:"required,uuid"`
	ImageURL    string                `json:"image_url" validate:"omitempty,url"`
	Stock       decimal.Decimal       `json:"stock" validate:"gte=0"`
	Available   *bool                 `json:"available"`
	Weight      *domain.WeightPricing `json:"weight"`
}

func (req ProductRequest) toInput() service.ProductInput {
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	return service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  uuid.MustParse(req.CategoryID),
		ImageURL:    req.ImageURL,
		Stock:       req.Stock,
		Available:   available,
		Weight:      req.Weight,
	}
}

// CategoryRequest is the admin payload for a new category
type CategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

// ProductHandler serves the catalog and its admin maintenance
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{productService: productService, logger: logger}
}

// RegisterRoutes registers the public catalog and the admin routes
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Get("/api/products", h.List)
	r.Get("/api/products/search", h.Search)
	r.Get("/api/products/{id}", h.Get)
	r.Get("/api/categories", h.ListCategories)

	r.Route("/api/admin/products", func(r chi.Router) {
		r.Use(authMiddleware, adminMiddleware)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})

	r.Route("/api/admin/categories", func(r chi.Router) {
		r.Use(authMiddleware, adminMiddleware)
		r.Post("/", h.CreateCategory)
	})
}

// List returns a filtered page of the catalog
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, pageSize := pageParams(r)

	filter := domain.ProductFilter{
		Category:  q.Get("category"),
		Search:    q.Get("search"),
		Page:      page,
		PageSize:  pageSize,
		SortBy:    q.Get("sort"),
		SortOrder: q.Get("order"),
	}
	if raw := q.Get("available"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "available must be true or false")
			return
		}
		filter.Available = &available
	}

	products, total, err := h.productService.List(r.Context(), filter)
	if err != nil {
		respondServiceError(w, h.logger, err, "list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, PageResponse{Items: products, Total: total, Page: page, PageSize: pageSize})
}

// Search matches products by name or description
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	products, total, err := h.productService.Search(r.Context(), r.URL.Query().Get("q"), page, pageSize)
	if err != nil {
		respondServiceError(w, h.logger, err, "search products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, PageResponse{Items: products, Total: total, Page: page, PageSize: pageSize})
}

// Get returns one product
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// ListCategories returns every category
func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.productService.ListCategories(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "list categories")
		return
	}
	if categories == nil {
		categories = []*domain.Category{}
	}

	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

// Create adds a product to the catalog
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	product, err := h.productService.Create(r.Context(), req.toInput())
	if err != nil {
		respondServiceError(w, h.logger, err, "create product")
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// Update replaces a product's attributes
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	product, err := h.productService.Update(r.Context(), id, req.toInput())
	if err != nil {
		respondServiceError(w, h.logger, err, "update product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Delete removes a product, or hides it when orders reference it
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "delete product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateCategory adds a category
func (h *ProductHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	category, err := h.productService.CreateCategory(r.Context(), req.Name, req.Description)
	if err != nil {
		respondServiceError(w, h.logger, err, "create category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

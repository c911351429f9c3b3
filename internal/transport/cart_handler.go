package transport

import (
	"net/http"

	"butcher-shop/internal/domain"
	"butcher-shop/internal/middleware"
	"butcher-shop/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartLineRequest is one product and quantity pair
type CartLineRequest struct {
	ProductID string          `json:"productId" validate:"required,uuid"`
	Quantity  decimal.Decimal `json:"quantity"`
}

func (req CartLineRequest) toLine() service.CartLine {
	return service.CartLine{ProductID: uuid.MustParse(req.ProductID), Quantity: req.Quantity}
}

// QuantityRequest sets the quantity of a cart line
type QuantityRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// ReplaceCartRequest is the browser's local cart sent for reconciliation
type ReplaceCartRequest struct {
	Items []CartLineRequest `json:"items" validate:"dive"`
}

// CartResponse is the cart with its derived totals
type CartResponse struct {
	Items         []domain.CartItem `json:"items"`
	Subtotal      decimal.Decimal   `json:"subtotal"`
	TotalQuantity decimal.Decimal   `json:"totalQuantity"`
	ItemCount     int               `json:"itemCount"`
}

func cartResponse(cart *domain.Cart) CartResponse {
	items := cart.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	return CartResponse{
		Items:         items,
		Subtotal:      cart.Subtotal(),
		TotalQuantity: cart.TotalQuantity(),
		ItemCount:     cart.ItemCount(),
	}
}

// CartHandler serves the server copy of the user's cart
type CartHandler struct {
	cartService service.CartService
	logger      *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{cartService: cartService, logger: logger}
}

// RegisterRoutes registers the cart routes
func (h *CartHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.Get)
		r.Put("/", h.Replace)
		r.Delete("/", h.Clear)
		r.Post("/items", h.AddItem)
		r.Patch("/items/{productId}", h.UpdateQuantity)
		r.Delete("/items/{productId}", h.RemoveItem)
	})
}

// Get returns the cart
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	cart, err := h.cartService.Get(r.Context(), userID)
	h.respond(w, cart, err, "get cart")
}

// AddItem adds a product or increases its quantity
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	var req CartLineRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	cart, err := h.cartService.AddItem(r.Context(), userID, req.toLine())
	h.respond(w, cart, err, "add cart item")
}

// UpdateQuantity sets a line's quantity; zero or less removes the line
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	productID, err := uuidParam(r, "productId")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	var req QuantityRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	cart, err := h.cartService.UpdateQuantity(r.Context(), userID, service.CartLine{ProductID: productID, Quantity: req.Quantity})
	h.respond(w, cart, err, "update cart item")
}

// RemoveItem drops a product from the cart
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	productID, err := uuidParam(r, "productId")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	cart, err := h.cartService.RemoveItem(r.Context(), userID, productID)
	h.respond(w, cart, err, "remove cart item")
}

// Replace reconciles the browser's cart with the server copy
func (h *CartHandler) Replace(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	var req ReplaceCartRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	lines := make([]service.CartLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, item.toLine())
	}

	cart, err := h.cartService.Replace(r.Context(), userID, lines)
	h.respond(w, cart, err, "replace cart")
}

// Clear empties the cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.cartService.Clear(r.Context(), userID); err != nil {
		respondServiceError(w, h.logger, err, "clear cart")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) respond(w http.ResponseWriter, cart *domain.Cart, err error, action string) {
	if err != nil {
		respondServiceError(w, h.logger, err, action)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, cartResponse(cart))
}

package transport

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"butcher-shop/internal/domain"
	"butcher-shop/internal/middleware"
	"butcher-shop/internal/repository"
	"butcher-shop/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderItemRequest is one line of the checkout payload
type OrderItemRequest struct {
	ProductID string          `json:"productId" validate:"required,uuid"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Category  string          `json:"category"`
}

// CustomerDataRequest is the delivery address entered at checkout
type CustomerDataRequest struct {
	Label        string `json:"label"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	Country      string `json:"country"`
	PostalCode   string `json:"postalCode"`
}

func (c CustomerDataRequest) toInput() service.CustomerData {
	return service.CustomerData{
		Label:        c.Label,
		Street:       c.Street,
		Number:       c.Number,
		Complement:   c.Complement,
		Neighborhood: c.Neighborhood,
		City:         c.City,
		State:        c.State,
		Country:      c.Country,
		PostalCode:   c.PostalCode,
	}
}

// CreateOrderRequest is the checkout payload. The delivery fee sent by the
// browser is informational; the server recomputes it.
type CreateOrderRequest struct {
	Items          []OrderItemRequest  `json:"items" validate:"dive"`
	Total          decimal.Decimal     `json:"total"`
	PaymentMethod  string              `json:"paymentMethod" validate:"required"`
	PaymentStatus  string              `json:"paymentStatus"`
	CustomerData   CustomerDataRequest `json:"customerData"`
	DeliveryFee    decimal.Decimal     `json:"deliveryFee"`
	Discount       decimal.Decimal     `json:"discount"`
	DeliveryMethod string              `json:"deliveryMethod"`
}

// CreateOrderResponse acknowledges a placed order
type CreateOrderResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
}

// StatusUpdateRequest is an admin change to an order
type StatusUpdateRequest struct {
	Status            string     `json:"status" validate:"required"`
	PaymentStatus     string     `json:"payment_status"`
	EstimatedDelivery *time.Time `json:"estimated_delivery"`
}

// OrderHandler serves checkout, order tracking and the admin order queue
type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orderService: orderService, logger: logger}
}

// RegisterRoutes registers customer and admin order routes
func (h *OrderHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Get("/number/{number}", h.GetOrderByNumber)
		r.Get("/{id}", h.GetOrder)
	})

	r.Route("/api/admin/orders", func(r chi.Router) {
		r.Use(authMiddleware, adminMiddleware)
		r.Get("/", h.ListAllOrders)
		r.Patch("/{id}/status", h.UpdateStatus)
	})
}

// CreateOrder places an order for the authenticated user
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondStatus(w, http.StatusUnauthorized, "Usuário não autenticado")
		return
	}

	var req CreateOrderRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Order validation failed", zap.Error(err))
		respondStatus(w, http.StatusBadRequest, "Dados do pedido inválidos")
		return
	}

	in := service.CreateOrderInput{
		Items:          make([]service.OrderItemInput, 0, len(req.Items)),
		Total:          req.Total,
		PaymentMethod:  req.PaymentMethod,
		PaymentStatus:  req.PaymentStatus,
		CustomerData:   req.CustomerData.toInput(),
		Discount:       req.Discount,
		DeliveryMethod: domain.ParseDeliveryMethod(req.DeliveryMethod),
	}
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			respondStatus(w, http.StatusBadRequest, "Dados do pedido inválidos")
			return
		}
		in.Items = append(in.Items, service.OrderItemInput{
			ProductID: productID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Category:  item.Category,
		})
	}

	result, err := h.orderService.CreateOrder(r.Context(), userID, in)
	if err != nil {
		statusCode, message := orderErrorMessage(err)
		respondStatus(w, statusCode, message)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, CreateOrderResponse{
		Success:     true,
		Message:     "Pedido criado com sucesso",
		OrderID:     result.OrderID.String(),
		OrderNumber: result.OrderNumber,
	})
}

// ListOrders returns the user's orders, newest first
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondStatus(w, http.StatusUnauthorized, "Usuário não autenticado")
		return
	}

	page, pageSize := pageParams(r)
	orders, total, err := h.orderService.ListOrders(r.Context(), userID, page, pageSize)
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		respondStatus(w, http.StatusInternalServerError, "Erro ao buscar pedidos")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, PageResponse{Items: orders, Total: total, Page: page, PageSize: pageSize})
}

// GetOrder returns one of the user's orders by id
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondStatus(w, http.StatusUnauthorized, "Usuário não autenticado")
		return
	}

	orderID, err := uuidParam(r, "id")
	if err != nil {
		respondStatus(w, http.StatusNotFound, "Pedido não encontrado")
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), userID, orderID)
	h.respondOrder(w, order, err)
}

// GetOrderByNumber returns one of the user's orders by its public number
func (h *OrderHandler) GetOrderByNumber(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondStatus(w, http.StatusUnauthorized, "Usuário não autenticado")
		return
	}

	order, err := h.orderService.GetOrderByNumber(r.Context(), userID, chi.URLParam(r, "number"))
	h.respondOrder(w, order, err)
}

func (h *OrderHandler) respondOrder(w http.ResponseWriter, order *domain.Order, err error) {
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			respondStatus(w, http.StatusNotFound, "Pedido não encontrado")
			return
		}
		h.logger.Error("Failed to load order", zap.Error(err))
		respondStatus(w, http.StatusInternalServerError, "Erro ao buscar pedido")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"order":   order,
	})
}

// ListAllOrders lists every order, optionally filtered by status
func (h *OrderHandler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	orders, total, err := h.orderService.ListAllOrders(r.Context(), r.URL.Query().Get("status"), page, pageSize)
	if err != nil {
		respondServiceError(w, h.logger, err, "list orders")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, PageResponse{Items: orders, Total: total, Page: page, PageSize: pageSize})
}

// UpdateStatus moves an order along its workflow
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuidParam(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	var req StatusUpdateRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	order, err := h.orderService.UpdateOrderStatus(r.Context(), orderID, service.StatusUpdate{
		Status:            req.Status,
		PaymentStatus:     req.PaymentStatus,
		EstimatedDelivery: req.EstimatedDelivery,
	})
	if err != nil {
		respondServiceError(w, h.logger, err, "update order status")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// orderErrorMessage maps a checkout failure to its status code and the
// message shown to the customer
func orderErrorMessage(err error) (int, string) {
	var itemErr *service.ItemError
	switch {
	case errors.As(err, &itemErr):
		return http.StatusBadRequest, itemErrorMessage(itemErr)
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, "Usuário não autenticado"
	case errors.Is(err, service.ErrEmptyOrder):
		return http.StatusBadRequest, "O pedido não contém itens"
	case errors.Is(err, service.ErrTotalMismatch):
		return http.StatusBadRequest, "O total do pedido não confere com os itens. Atualize o carrinho e tente novamente"
	case errors.Is(err, service.ErrInvalidDiscount):
		return http.StatusBadRequest, "Desconto inválido"
	case errors.Is(err, service.ErrAddressRequired):
		return http.StatusBadRequest, "Endereço de entrega incompleto"
	default:
		return http.StatusInternalServerError, "Erro ao criar pedido. Tente novamente mais tarde"
	}
}

func itemErrorMessage(e *service.ItemError) string {
	name := e.ProductName
	if name == "" {
		name = "Produto"
	}

	switch e.Reason {
	case service.ReasonInsufficientStock:
		return fmt.Sprintf("%s não tem estoque suficiente. Disponível: %s", name, e.Available.String())
	case service.ReasonUnavailable:
		return fmt.Sprintf("%s não está disponível no momento", name)
	case service.ReasonInvalidQuantity:
		return fmt.Sprintf("Quantidade inválida para %s", name)
	default:
		return fmt.Sprintf("%s não foi encontrado", name)
	}
}

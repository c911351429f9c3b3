package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"butcher-shop/internal/domain"
	"butcher-shop/internal/pricing"
	"butcher-shop/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// totalTolerance is the largest accepted difference between the submitted
// and the recomputed order total
var totalTolerance = decimal.RequireFromString("0.01")

// OrderItemInput is one line of a checkout request
type OrderItemInput struct {
	ProductID uuid.UUID
	Name      string
	Quantity  decimal.Decimal
	Category  string
}

// CustomerData is the delivery address submitted at checkout
type CustomerData struct {
	Label        string
	Street       string
	Number       string
	Complement   string
	Neighborhood string
	City         string
	State        string
	Country      string
	PostalCode   string
}

// CreateOrderInput is the checkout request
type CreateOrderInput struct {
	Items          []OrderItemInput
	Total          decimal.Decimal
	PaymentMethod  string
	PaymentStatus  string
	CustomerData   CustomerData
	Discount       decimal.Decimal
	DeliveryMethod domain.DeliveryMethod
}

// OrderResult identifies a newly placed order
type OrderResult struct {
	OrderID     uuid.UUID
	OrderNumber string
}

// StatusUpdate is an admin change to an order's progress
type StatusUpdate struct {
	Status            string
	PaymentStatus     string
	EstimatedDelivery *time.Time
}

// OrderService defines the interface for order placement and tracking
type OrderService interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, in CreateOrderInput) (*OrderResult, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error)
	GetOrderByNumber(ctx context.Context, userID uuid.UUID, orderNumber string) (*domain.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*domain.Order, int, error)
	ListAllOrders(ctx context.Context, status string, page, pageSize int) ([]*domain.Order, int, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, update StatusUpdate) (*domain.Order, error)
}

type orderService struct {
	tx        repository.TxManager
	users     repository.UserRepository
	products  repository.ProductRepository
	orders    repository.OrderRepository
	addresses repository.AddressRepository
	cart      repository.CartRepository
	settings  repository.SettingsRepository
	logger    *zap.Logger

	now   func() time.Time
	newID func() uuid.UUID
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(
	tx repository.TxManager,
	users repository.UserRepository,
	products repository.ProductRepository,
	orders repository.OrderRepository,
	addresses repository.AddressRepository,
	cart repository.CartRepository,
	settings repository.SettingsRepository,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		tx:        tx,
		users:     users,
		products:  products,
		orders:    orders,
		addresses: addresses,
		cart:      cart,
		settings:  settings,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.New,
	}
}

// CreateOrder validates the checkout request against current stock and then,
// in one transaction, stores the order, decrements stock, saves a new delivery
// address and empties the cart. Nothing is written when validation fails.
func (s *orderService) CreateOrder(ctx context.Context, userID uuid.UUID, in CreateOrderInput) (*OrderResult, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, s.internal("failed to load purchaser", err, zap.String("user_id", userID.String()))
	}

	if len(in.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	method := domain.ParseDeliveryMethod(string(in.DeliveryMethod))
	if method == domain.DeliveryMethodDelivery && !in.CustomerData.complete() {
		return nil, ErrAddressRequired
	}

	items, err := s.validateItems(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	storeSettings, err := s.loadSettings(ctx)
	if err != nil {
		return nil, err
	}

	subtotal := domain.ItemsSubtotal(items)
	quote := pricing.CalculateDeliveryFee(subtotal, method, pricing.FeeSettingsFrom(storeSettings))

	discount := in.Discount
	if discount.IsNegative() || discount.GreaterThan(subtotal.Add(quote.Fee)) {
		return nil, ErrInvalidDiscount
	}

	total := domain.OrderTotal(subtotal, quote.Fee, discount)
	if total.Sub(in.Total).Abs().GreaterThan(totalTolerance) {
		s.logger.Info("Order total mismatch",
			zap.String("user_id", userID.String()),
			zap.String("submitted", in.Total.StringFixed(2)),
			zap.String("computed", total.StringFixed(2)),
		)
		return nil, ErrTotalMismatch
	}

	now := s.now()
	order := &domain.Order{
		ID:             s.newID(),
		UserID:         user.ID,
		OrderNumber:    GenerateOrderNumber(user.FullName(), now, s.newID()),
		Items:          items,
		Subtotal:       subtotal,
		DeliveryFee:    quote.Fee,
		Discount:       discount,
		Total:          total,
		Status:         domain.OrderStatusPreparing,
		PaymentMethod:  strings.TrimSpace(in.PaymentMethod),
		PaymentStatus:  paymentStatusOrDefault(in.PaymentStatus),
		DeliveryMethod: method,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	var submitted *domain.Address
	if method == domain.DeliveryMethodDelivery {
		submitted = in.CustomerData.toAddress(user.ID)
		order.DeliveryAddress = submitted.Snapshot()
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.orders.Create(ctx, order); err != nil {
			return err
		}

		for _, item := range items {
			if err := s.products.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return s.decrementError(ctx, item, err)
			}
		}

		if submitted != nil {
			if err := s.saveAddressIfNew(ctx, submitted, now); err != nil {
				return err
			}
		}

		return s.cart.ClearByUser(ctx, user.ID)
	})
	if err != nil {
		var itemErr *ItemError
		if errors.As(err, &itemErr) {
			return nil, itemErr
		}
		return nil, s.internal("failed to place order", err,
			zap.String("user_id", user.ID.String()),
			zap.String("order_number", order.OrderNumber),
		)
	}

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", user.ID.String()),
		zap.String("total", order.Total.StringFixed(2)),
		zap.Int("items", len(order.Items)),
	)

	return &OrderResult{OrderID: order.ID, OrderNumber: order.OrderNumber}, nil
}

// validateItems checks every line against the current catalog and builds the
// order lines from it. Quantities of repeated products are summed for the
// stock check.
func (s *orderService) validateItems(ctx context.Context, inputs []OrderItemInput) ([]domain.OrderItem, error) {
	items := make([]domain.OrderItem, 0, len(inputs))
	requested := make(map[uuid.UUID]decimal.Decimal, len(inputs))

	for _, in := range inputs {
		if !in.Quantity.IsPositive() {
			return nil, &ItemError{ProductID: in.ProductID, ProductName: in.Name, Reason: ReasonInvalidQuantity}
		}

		product, err := s.products.FindByID(ctx, in.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				return nil, &ItemError{ProductID: in.ProductID, ProductName: in.Name, Reason: ReasonNotFound}
			}
			return nil, s.internal("failed to load product", err, zap.String("product_id", in.ProductID.String()))
		}

		if !product.Available {
			return nil, &ItemError{ProductID: product.ID, ProductName: product.Name, Reason: ReasonUnavailable}
		}

		total := requested[product.ID].Add(in.Quantity)
		if !product.CanFulfill(total) {
			return nil, &ItemError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Reason:      ReasonInsufficientStock,
				Available:   product.Stock,
			}
		}
		requested[product.ID] = total

		category := product.CategoryName
		if category == "" {
			category = in.Category
		}

		items = append(items, domain.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Category:  category,
			Quantity:  in.Quantity,
			Price:     product.Price,
		})
	}

	return items, nil
}

// decrementError turns a failed conditional decrement into the item error the
// caller sees, reading the stock that won the race
func (s *orderService) decrementError(ctx context.Context, item domain.OrderItem, err error) error {
	switch {
	case errors.Is(err, repository.ErrInsufficientStock):
		itemErr := &ItemError{ProductID: item.ProductID, ProductName: item.Name, Reason: ReasonInsufficientStock}
		if product, findErr := s.products.FindByID(ctx, item.ProductID); findErr == nil {
			itemErr.Available = product.Stock
		}
		return itemErr
	case errors.Is(err, repository.ErrProductNotFound):
		return &ItemError{ProductID: item.ProductID, ProductName: item.Name, Reason: ReasonNotFound}
	default:
		return err
	}
}

// saveAddressIfNew stores the delivery address unless the user already has
// one at the same location
func (s *orderService) saveAddressIfNew(ctx context.Context, submitted *domain.Address, now time.Time) error {
	existing, err := s.addresses.ListByUser(ctx, submitted.UserID)
	if err != nil {
		return err
	}

	for _, address := range existing {
		if address.SameLocation(submitted) {
			return nil
		}
	}

	submitted.ID = s.newID()
	submitted.IsDefault = false
	submitted.CreatedAt = now
	submitted.UpdatedAt = now

	return s.addresses.Create(ctx, submitted)
}

func (s *orderService) loadSettings(ctx context.Context) (*domain.StoreSettings, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrSettingsNotFound) {
			return domain.DefaultStoreSettings(), nil
		}
		return nil, s.internal("failed to load store settings", err)
	}
	return settings, nil
}

// GetOrder returns one of the user's orders
func (s *orderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

// GetOrderByNumber looks an order up by its number, case-insensitively
func (s *orderService) GetOrderByNumber(ctx context.Context, userID uuid.UUID, orderNumber string) (*domain.Order, error) {
	order, err := s.orders.FindByNumber(ctx, strings.ToUpper(strings.TrimSpace(orderNumber)))
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

// ListOrders returns the user's orders, newest first
func (s *orderService) ListOrders(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*domain.Order, int, error) {
	return s.orders.ListByUser(ctx, userID, page, pageSize)
}

// ListAllOrders returns every order for the back office
func (s *orderService) ListAllOrders(ctx context.Context, status string, page, pageSize int) ([]*domain.Order, int, error) {
	if status != "" && !domain.IsOrderStatus(status) {
		return nil, 0, ErrInvalidStatus
	}
	return s.orders.ListAll(ctx, status, page, pageSize)
}

// UpdateOrderStatus moves an order along its workflow
func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, update StatusUpdate) (*domain.Order, error) {
	if !domain.IsOrderStatus(update.Status) {
		return nil, ErrInvalidStatus
	}
	if update.PaymentStatus != "" && !domain.IsPaymentStatus(update.PaymentStatus) {
		return nil, ErrInvalidStatus
	}

	err := s.orders.UpdateStatus(ctx, orderID, update.Status, update.PaymentStatus, update.EstimatedDelivery)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", orderID.String()),
		zap.String("status", update.Status),
	)

	return s.orders.FindByID(ctx, orderID)
}

func (s *orderService) internal(msg string, err error, fields ...zap.Field) error {
	s.logger.Error(msg, append(fields, zap.Error(err))...)
	return fmt.Errorf("%s: %w", msg, err)
}

func paymentStatusOrDefault(status string) string {
	if domain.IsPaymentStatus(status) {
		return status
	}
	return domain.PaymentStatusPending
}

func (c CustomerData) complete() bool {
	return strings.TrimSpace(c.Street) != "" &&
		strings.TrimSpace(c.Number) != "" &&
		strings.TrimSpace(c.City) != "" &&
		strings.TrimSpace(c.State) != "" &&
		strings.TrimSpace(c.PostalCode) != ""
}

func (c CustomerData) toAddress(userID uuid.UUID) *domain.Address {
	label := strings.TrimSpace(c.Label)
	if label == "" {
		label = "Casa"
	}
	country := strings.TrimSpace(c.Country)
	if country == "" {
		country = "Brasil"
	}

	return &domain.Address{
		UserID:       userID,
		Label:        label,
		Street:       strings.TrimSpace(c.Street),
		Number:       strings.TrimSpace(c.Number),
		Complement:   strings.TrimSpace(c.Complement),
		Neighborhood: strings.TrimSpace(c.Neighborhood),
		City:         strings.TrimSpace(c.City),
		State:        strings.TrimSpace(c.State),
		Country:      country,
		PostalCode:   strings.TrimSpace(c.PostalCode),
	}
}

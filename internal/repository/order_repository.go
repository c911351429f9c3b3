package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"butcher-shop/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderNumberConflict = errors.New("order number already in use")
)

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*domain.Order, int, error)
	ListAll(ctx context.Context, status string, page, pageSize int) ([]*domain.Order, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status, paymentStatus string, estimatedDelivery *time.Time) error
}

type orderRepository struct {
	db *sql.DB
	tx TxManager
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB, tx TxManager) OrderRepository {
	return &orderRepository{db: db, tx: tx}
}

const orderColumns = `id, user_id, order_number, subtotal, delivery_fee, discount, total, status,
	payment_method, payment_status, delivery_method, delivery_address, estimated_delivery, created_at, updated_at`

func scanOrder(row rowScanner) (*domain.Order, error) {
	order := &domain.Order{}
	var (
		address           domain.AddressSnapshot
		rawAddress        []byte
		estimatedDelivery sql.NullTime
	)

	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.OrderNumber,
		&order.Subtotal,
		&order.DeliveryFee,
		&order.Discount,
		&order.Total,
		&order.Status,
		&order.PaymentMethod,
		&order.PaymentStatus,
		&order.DeliveryMethod,
		&rawAddress,
		&estimatedDelivery,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if rawAddress != nil {
		if err := address.Scan(rawAddress); err != nil {
			return nil, err
		}
		order.DeliveryAddress = &address
	}
	if estimatedDelivery.Valid {
		order.EstimatedDelivery = &estimatedDelivery.Time
	}

	return order, nil
}

// Create inserts the order and its items in one transaction
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	return r.tx.WithTransaction(ctx, func(ctx context.Context) error {
		q := conn(ctx, r.db)

		query := `
			INSERT INTO orders (` + orderColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		`

		var estimatedDelivery sql.NullTime
		if order.EstimatedDelivery != nil {
			estimatedDelivery = sql.NullTime{Time: *order.EstimatedDelivery, Valid: true}
		}

		_, err := q.ExecContext(
			ctx,
			query,
			order.ID,
			order.UserID,
			order.OrderNumber,
			order.Subtotal,
			order.DeliveryFee,
			order.Discount,
			order.Total,
			order.Status,
			order.PaymentMethod,
			order.PaymentStatus,
			order.DeliveryMethod,
			order.DeliveryAddress,
			estimatedDelivery,
			order.CreatedAt,
			order.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err, "orders_order_number_key") {
				return ErrOrderNumberConflict
			}
			return fmt.Errorf("failed to create order: %w", err)
		}

		for i := range order.Items {
			item := &order.Items[i]
			item.OrderID = order.ID
			if item.ID == uuid.Nil {
				item.ID = uuid.New()
			}

			_, err := q.ExecContext(ctx, `
				INSERT INTO order_items (id, order_id, product_id, name, category, quantity, price, position)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`,
				item.ID,
				item.OrderID,
				item.ProductID,
				item.Name,
				item.Category,
				item.Quantity,
				item.Price,
				i,
			)
			if err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
		}

		return nil
	})
}

// FindByID retrieves an order with its items
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

// FindByNumber retrieves an order by its human-readable number
func (r *orderRepository) FindByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, orderNumber)
}

func (r *orderRepository) findOne(ctx context.Context, query string, arg interface{}) (*domain.Order, error) {
	order, err := scanOrder(conn(ctx, r.db).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}

	if err := r.loadItems(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

// ListByUser returns the user's orders, newest first
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*domain.Order, int, error) {
	return r.list(ctx, "WHERE user_id = $1", []interface{}{userID}, page, pageSize)
}

// ListAll returns every order, optionally restricted to one status
func (r *orderRepository) ListAll(ctx context.Context, status string, page, pageSize int) ([]*domain.Order, int, error) {
	if status == "" {
		return r.list(ctx, "", nil, page, pageSize)
	}
	return r.list(ctx, "WHERE status = $1", []interface{}{status}, page, pageSize)
}

func (r *orderRepository) list(ctx context.Context, whereClause string, args []interface{}, page, pageSize int) ([]*domain.Order, int, error) {
	page, pageSize = normalizePage(page, pageSize)
	q := conn(ctx, r.db)

	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM orders %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		orderColumns, whereClause, len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating orders: %w", err)
	}
	rows.Close()

	if err := r.loadItems(ctx, orders); err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// loadItems fills Items for each order with a single query
func (r *orderRepository) loadItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, order := range orders {
		order.Items = []domain.OrderItem{}
		byID[order.ID] = order
		ids = append(ids, order.ID.String())
	}

	rows, err := conn(ctx, r.db).QueryContext(ctx, `
		SELECT id, order_id, product_id, name, category, quantity, price
		FROM order_items
		WHERE order_id::text = ANY($1::text[])
		ORDER BY order_id, position
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Name,
			&item.Category,
			&item.Quantity,
			&item.Price,
		)
		if err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if order, ok := byID[item.OrderID]; ok {
			order.Items = append(order.Items, item)
		}
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating order items: %w", err)
	}

	return nil
}

// UpdateStatus changes fulfilment status. Payment status and estimated
// delivery are only changed when given.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status, paymentStatus string, estimatedDelivery *time.Time) error {
	var eta sql.NullTime
	if estimatedDelivery != nil {
		eta = sql.NullTime{Time: *estimatedDelivery, Valid: true}
	}

	result, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE orders
		SET status = $2,
		    payment_status = COALESCE(NULLIF($3, ''), payment_status),
		    estimated_delivery = COALESCE($4, estimated_delivery)
		WHERE id = $1
	`, id, status, paymentStatus, eta)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	return expectOneRow(result, ErrOrderNotFound)
}

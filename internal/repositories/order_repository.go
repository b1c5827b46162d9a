package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/arnavkapoor/stitchkart-commerce/internal/models"
	"github.com/arnavkapoor/stitchkart-commerce/internal/utils"
	"github.com/google/uuid"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, deliveredAt *time.Time) error
	SetGatewayOrderID(ctx context.Context, id uuid.UUID, gatewayOrderID string) error
	MarkOrderPaid(ctx context.Context, id uuid.UUID, paidAt time.Time, result *models.PaymentResult) (bool, error)
}

type orderRepository struct {
	DB *sql.DB
}

func NewOrderRepo(db *sql.DB) OrderRepository {
	return &orderRepository{DB: db}
}

func (r *orderRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	addressJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("failed to marshal shipping address: %w", err)
	}

	query := `
		INSERT INTO orders (id, user_id, items, shipping_address, payment_method,
			items_price, tax_price, shipping_price, total_price,
			is_paid, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	return r.DB.QueryRowContext(dbCtx, query,
		order.ID, order.UserID, itemsJSON, addressJSON, order.PaymentMethod,
		order.ItemsPrice, order.TaxPrice, order.ShippingPrice, order.TotalPrice,
		order.IsPaid, order.Status).
		Scan(&order.CreatedAt, &order.UpdatedAt)
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, user_id, items, shipping_address, payment_method, payment_result,
			gateway_order_id, items_price, tax_price, shipping_price, total_price,
			is_paid, paid_at, delivered_at, status, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	order := &models.Order{}

	var (
		itemsJSON      []byte
		addressJSON    []byte
		resultJSON     []byte
		gatewayOrderID sql.NullString
		paidAt         sql.NullTime
		deliveredAt    sql.NullTime
	)

	err := r.DB.QueryRowContext(dbCtx, query, id).Scan(
		&order.ID, &order.UserID, &itemsJSON, &addressJSON, &order.PaymentMethod, &resultJSON,
		&gatewayOrderID, &order.ItemsPrice, &order.TaxPrice, &order.ShippingPrice, &order.TotalPrice,
		&order.IsPaid, &paidAt, &deliveredAt, &order.Status, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("querying order: %w", err)
	}

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order items: %w", err)
	}

	if err := json.Unmarshal(addressJSON, &order.ShippingAddress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shipping address: %w", err)
	}

	if len(resultJSON) > 0 {
		order.PaymentResult = &models.PaymentResult{}
		if err := json.Unmarshal(resultJSON, order.PaymentResult); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payment result: %w", err)
		}
	}

	if gatewayOrderID.Valid {
		order.GatewayOrderID = gatewayOrderID.String
	}

	if paidAt.Valid {
		order.PaidAt = &paidAt.Time
	}

	if deliveredAt.Valid {
		order.DeliveredAt = &deliveredAt.Time
	}

	return order, nil
}

func (r *orderRepository) ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var total int

	countQuery := `SELECT COUNT(*) FROM orders WHERE user_id = $1`
	if err := r.DB.QueryRowContext(dbCtx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting orders: %w", err)
	}

	query := `
		SELECT id, user_id, items, payment_method, items_price, tax_price,
			shipping_price, total_price, is_paid, status, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.DB.QueryContext(dbCtx, query, userID, size, (page-1)*size)
	if err != nil {
		return nil, 0, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order

	for rows.Next() {
		var order models.Order

		var itemsJSON []byte

		if err := rows.Scan(&order.ID, &order.UserID, &itemsJSON, &order.PaymentMethod,
			&order.ItemsPrice, &order.TaxPrice, &order.ShippingPrice, &order.TotalPrice,
			&order.IsPaid, &order.Status, &order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning order row: %w", err)
		}

		if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
			return nil, 0, fmt.Errorf("failed to unmarshal order items: %w", err)
		}

		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating order rows: %w", err)
	}

	return orders, total, nil
}

func (r *orderRepository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, deliveredAt *time.Time) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE orders
		SET status = $1, delivered_at = COALESCE($2, delivered_at), updated_at = NOW()
		WHERE id = $3
	`

	result, err := r.DB.ExecContext(dbCtx, query, status, deliveredAt, id)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}

	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (r *orderRepository) SetGatewayOrderID(ctx context.Context, id uuid.UUID, gatewayOrderID string) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `UPDATE orders SET gateway_order_id = $1, updated_at = NOW() WHERE id = $2`

	_, err := r.DB.ExecContext(dbCtx, query, gatewayOrderID, id)
	if err != nil {
		return fmt.Errorf("failed to set gateway order id: %w", err)
	}

	return nil
}

// MarkOrderPaid flips is_paid once. The is_paid = FALSE guard makes the write
// at most once per order; a repeat verification matches zero rows and returns
// false with no error.
func (r *orderRepository) MarkOrderPaid(ctx context.Context, id uuid.UUID, paidAt time.Time, result *models.PaymentResult) (bool, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return false, fmt.Errorf("failed to marshal payment result: %w", err)
	}

	query := `
		UPDATE orders
		SET is_paid = TRUE, paid_at = $1, payment_result = $2,
			status = CASE WHEN status = 'pending' THEN 'confirmed' ELSE status END,
			updated_at = NOW()
		WHERE id = $3 AND is_paid = FALSE
	`

	execResult, err := r.DB.ExecContext(dbCtx, query, paidAt, resultJSON, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark order paid: %w", err)
	}

	affected, err := execResult.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return affected > 0, nil
}

package repository_test

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/arnavkapoor/stitchkart-commerce/internal/models"
	repository "github.com/arnavkapoor/stitchkart-commerce/internal/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupOrderRepoTest(t *testing.T) (repository.OrderRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "Failed to create sqlmock")

	t.Cleanup(func() {
		db.Close()
	})

	repo := repository.NewOrderRepo(db)
	require.NotNil(t, repo)

	return repo, mock
}

func TestOrderRepository(t *testing.T) {
	repo, mock := setupOrderRepoTest(t)
	ctx := t.Context()

	orderID := uuid.New()
	userID := uuid.New()
	now := time.Now()

	items := []models.OrderItem{
		{ProductID: uuid.New(), Name: "Linen Shirt", Quantity: 3, UnitPrice: decimal.RequireFromString("15.00")},
	}
	itemsJSON, err := json.Marshal(items)
	require.NoError(t, err)

	address := models.Address{
		Name: "Asha Rao", Mobile: "9876543210", Street: "42 MG Road",
		City: "Bengaluru", State: "Karnataka", PostalCode: "560001", Country: "India",
	}
	addressJSON, err := json.Marshal(address)
	require.NoError(t, err)

	t.Run("Create Order", func(t *testing.T) {
		order := &models.Order{
			ID:              orderID,
			UserID:          userID,
			Items:           items,
			ShippingAddress: address,
			PaymentMethod:   models.PaymentMethodCard,
			ItemsPrice:      decimal.RequireFromString("45.00"),
			TaxPrice:        decimal.RequireFromString("3.60"),
			ShippingPrice:   decimal.RequireFromString("5.99"),
			TotalPrice:      decimal.RequireFromString("54.59"),
			Status:          models.OrderStatusPending,
		}

		mock.ExpectQuery(`INSERT INTO orders`).
			WithArgs(order.ID, order.UserID, itemsJSON, addressJSON, order.PaymentMethod,
				order.ItemsPrice, order.TaxPrice, order.ShippingPrice, order.TotalPrice,
				order.IsPaid, order.Status).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		err := repo.CreateOrder(ctx, order)

		require.NoError(t, err)
		assert.WithinDuration(t, now, order.CreatedAt, time.Second)
	})

	t.Run("Get Order By ID", func(t *testing.T) {
		t.Run("Success - Unpaid Order Has Nil Timestamps", func(t *testing.T) {
			rows := sqlmock.NewRows([]string{
				"id", "user_id", "items", "shipping_address", "payment_method", "payment_result",
				"gateway_order_id", "items_price", "tax_price", "shipping_price", "total_price",
				"is_paid", "paid_at", "delivered_at", "status", "created_at", "updated_at",
			}).AddRow(orderID, userID, itemsJSON, addressJSON, "card", nil,
				nil, "45.00", "3.60", "5.99", "54.59",
				false, nil, nil, "pending", now, now)

			mock.ExpectQuery(`SELECT (.+) FROM orders`).
				WithArgs(orderID).
				WillReturnRows(rows)

			order, err := repo.GetOrderByID(ctx, orderID)

			require.NoError(t, err)
			assert.Equal(t, orderID, order.ID)
			assert.False(t, order.IsPaid)
			assert.Nil(t, order.PaidAt)
			assert.Nil(t, order.DeliveredAt)
			assert.Nil(t, order.PaymentResult)
			assert.Equal(t, "54.59", order.TotalPrice.StringFixed(2))
			require.Len(t, order.Items, 1)
			assert.Equal(t, "Linen Shirt", order.Items[0].Name)
		})

		t.Run("Success - Paid Order Carries Payment Result", func(t *testing.T) {
			result := &models.PaymentResult{
				GatewayOrderID:   "order_abc123",
				GatewayPaymentID: "pay_xyz789",
				Status:           "completed",
			}
			resultJSON, err := json.Marshal(result)
			require.NoError(t, err)

			rows := sqlmock.NewRows([]string{
				"id", "user_id", "items", "shipping_address", "payment_method", "payment_result",
				"gateway_order_id", "items_price", "tax_price", "shipping_price", "total_price",
				"is_paid", "paid_at", "delivered_at", "status", "created_at", "updated_at",
			}).AddRow(orderID, userID, itemsJSON, addressJSON, "card", resultJSON,
				"order_abc123", "45.00", "3.60", "5.99", "54.59",
				true, now, nil, "confirmed", now, now)

			mock.ExpectQuery(`SELECT (.+) FROM orders`).
				WithArgs(orderID).
				WillReturnRows(rows)

			order, err := repo.GetOrderByID(ctx, orderID)

			require.NoError(t, err)
			assert.True(t, order.IsPaid)
			require.NotNil(t, order.PaidAt)
			require.NotNil(t, order.PaymentResult)
			assert.Equal(t, "pay_xyz789", order.PaymentResult.GatewayPaymentID)
			assert.Equal(t, "order_abc123", order.GatewayOrderID)
		})

		t.Run("Failure - Not Found", func(t *testing.T) {
			mock.ExpectQuery(`SELECT (.+) FROM orders`).
				WithArgs(orderID).
				WillReturnError(sql.ErrNoRows)

			order, err := repo.GetOrderByID(ctx, orderID)

			assert.Nil(t, order)
			assert.ErrorIs(t, err, sql.ErrNoRows)
		})
	})

	t.Run("Update Order Status", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			mock.ExpectExec(`UPDATE orders SET status = \$1`).
				WithArgs(models.OrderStatusProcessing, nil, orderID).
				WillReturnResult(sqlmock.NewResult(0, 1))

			err := repo.UpdateOrderStatus(ctx, orderID, models.OrderStatusProcessing, nil)

			assert.NoError(t, err)
		})

		t.Run("Success - Delivered With Timestamp", func(t *testing.T) {
			deliveredAt := now

			mock.ExpectExec(`UPDATE orders SET status = \$1`).
				WithArgs(models.OrderStatusDelivered, &deliveredAt, orderID).
				WillReturnResult(sqlmock.NewResult(0, 1))

			err := repo.UpdateOrderStatus(ctx, orderID, models.OrderStatusDelivered, &deliveredAt)

			assert.NoError(t, err)
		})

		t.Run("Failure - Unknown Order", func(t *testing.T) {
			mock.ExpectExec(`UPDATE orders SET status = \$1`).
				WithArgs(models.OrderStatusProcessing, nil, orderID).
				WillReturnResult(sqlmock.NewResult(0, 0))

			err := repo.UpdateOrderStatus(ctx, orderID, models.OrderStatusProcessing, nil)

			assert.ErrorIs(t, err, sql.ErrNoRows)
		})
	})

	t.Run("Mark Order Paid", func(t *testing.T) {
		result := &models.PaymentResult{
			GatewayOrderID:   "order_abc123",
			GatewayPaymentID: "pay_xyz789",
			GatewaySignature: "deadbeef",
			Status:           "completed",
		}
		resultJSON, err := json.Marshal(result)
		require.NoError(t, err)

		t.Run("Success - First Write Flips The Flag", func(t *testing.T) {
			mock.ExpectExec(`UPDATE orders SET is_paid = TRUE`).
				WithArgs(now, resultJSON, orderID).
				WillReturnResult(sqlmock.NewResult(0, 1))

			updated, err := repo.MarkOrderPaid(ctx, orderID, now, result)

			require.NoError(t, err)
			assert.True(t, updated)
		})

		t.Run("Success - Repeat Write Matches Zero Rows", func(t *testing.T) {
			mock.ExpectExec(`UPDATE orders SET is_paid = TRUE`).
				WithArgs(now, resultJSON, orderID).
				WillReturnResult(sqlmock.NewResult(0, 0))

			updated, err := repo.MarkOrderPaid(ctx, orderID, now, result)

			require.NoError(t, err)
			assert.False(t, updated)
		})
	})

	t.Run("List Orders By User", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM orders`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

		rows := sqlmock.NewRows([]string{
			"id", "user_id", "items", "payment_method", "items_price", "tax_price",
			"shipping_price", "total_price", "is_paid", "status", "created_at", "updated_at",
		}).AddRow(orderID, userID, itemsJSON, "card", "45.00", "3.60", "5.99", "54.59", false, "pending", now, now)

		mock.ExpectQuery(`SELECT (.+) FROM orders WHERE user_id = \$1 ORDER BY created_at DESC`).
			WithArgs(userID, 10, 0).
			WillReturnRows(rows)

		orders, total, err := repo.ListOrdersByUser(ctx, userID, 1, 10)

		require.NoError(t, err)
		assert.Equal(t, 12, total)
		require.Len(t, orders, 1)
		assert.Equal(t, orderID, orders[0].ID)
	})
}

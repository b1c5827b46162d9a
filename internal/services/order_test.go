package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/arnavkapoor/stitchkart-commerce/internal/config"
	appErrors "github.com/arnavkapoor/stitchkart-commerce/internal/errors"
	"github.com/arnavkapoor/stitchkart-commerce/internal/models"
	"github.com/arnavkapoor/stitchkart-commerce/internal/pricing"
	repository "github.com/arnavkapoor/stitchkart-commerce/internal/repositories"
	"github.com/arnavkapoor/stitchkart-commerce/internal/repositories/mocks"
	service "github.com/arnavkapoor/stitchkart-commerce/internal/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupOrderServiceTest(t *testing.T) (service.OrderService, *mocks.OrderRepository, *mocks.CartRepository, *mocks.ProductRepository) {
	mockOrderRepo := mocks.NewOrderRepository(t)
	mockCartRepo := mocks.NewCartRepository(t)
	mockProductRepo := mocks.NewProductRepository(t)

	policy, err := pricing.NewPolicy(&config.Pricing{
		TaxRate:               "0.08",
		ShippingFee:           "5.99",
		FreeShippingThreshold: "50",
	})
	require.NoError(t, err)

	orderService := service.NewOrderService(mockOrderRepo, mockCartRepo, mockProductRepo, policy)

	return orderService, mockOrderRepo, mockCartRepo, mockProductRepo
}

func testAddress() models.Address {
	return models.Address{
		Name:       "Asha Rao",
		Mobile:     "9876543210",
		Street:     "42 MG Road",
		City:       "Bengaluru",
		State:      "Karnataka",
		PostalCode: "560001",
		Country:    "India",
	}
}

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	productID := uuid.New()

	cartWith := func(quantity int, unitPrice string) *models.Cart {
		return &models.Cart{
			ID:     uuid.New(),
			UserID: userID,
			Items: []models.LineItem{
				{ProductID: productID, Quantity: quantity, UnitPrice: decimal.RequireFromString(unitPrice)},
			},
		}
	}

	product := &models.Product{
		ID:            productID,
		Name:          "Linen Shirt",
		Price:         decimal.RequireFromString("15.00"),
		StockQuantity: 10,
	}

	t.Run("Success - Card Order Is Pending With Derived Totals", func(t *testing.T) {
		orderService, mockOrderRepo, mockCartRepo, mockProductRepo := setupOrderServiceTest(t)

		mockCartRepo.On("GetCartByUserID", ctx, userID).Return(cartWith(3, "15.00"), nil).Once()
		mockProductRepo.On("GetProductByID", ctx, productID).Return(product, nil).Once()
		mockProductRepo.On("DecrementStock", ctx, productID, 3).Return(nil).Once()
		mockOrderRepo.On("CreateOrder", ctx, mock.AnythingOfType("*models.Order")).Return(nil).Once()
		mockCartRepo.On("UpdateCart", ctx, mock.AnythingOfType("*models.Cart")).Return(nil).Once()

		order, err := orderService.CreateOrder(ctx, userID, &models.CreateOrderRequest{
			ShippingAddress: testAddress(),
			PaymentMethod:   models.PaymentMethodCard,
		})

		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusPending, order.Status)
		assert.False(t, order.IsPaid)
		assert.Equal(t, "45.00", order.ItemsPrice.StringFixed(2))
		assert.Equal(t, "3.60", order.TaxPrice.StringFixed(2))
		assert.Equal(t, "5.99", order.ShippingPrice.StringFixed(2))
		assert.Equal(t, "54.59", order.TotalPrice.StringFixed(2))
	})

	t.Run("Success - COD Order Is Confirmed Up Front", func(t *testing.T) {
		orderService, mockOrderRepo, mockCartRepo, mockProductRepo := setupOrderServiceTest(t)

		mockCartRepo.On("GetCartByUserID", ctx, userID).Return(cartWith(1, "15.00"), nil).Once()
		mockProductRepo.On("GetProductByID", ctx, productID).Return(product, nil).Once()
		mockProductRepo.On("DecrementStock", ctx, productID, 1).Return(nil).Once()
		mockOrderRepo.On("CreateOrder", ctx, mock.AnythingOfType("*models.Order")).Return(nil).Once()
		mockCartRepo.On("UpdateCart", ctx, mock.AnythingOfType("*models.Cart")).Return(nil).Once()

		order, err := orderService.CreateOrder(ctx, userID, &models.CreateOrderRequest{
			ShippingAddress: testAddress(),
			PaymentMethod:   models.PaymentMethodCOD,
		})

		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusConfirmed, order.Status)
	})

	t.Run("Failure - Empty Cart", func(t *testing.T) {
		orderService, _, mockCartRepo, _ := setupOrderServiceTest(t)

		mockCartRepo.On("GetCartByUserID", ctx, userID).Return(&models.Cart{UserID: userID}, nil).Once()

		order, err := orderService.CreateOrder(ctx, userID, &models.CreateOrderRequest{
			ShippingAddress: testAddress(),
			PaymentMethod:   models.PaymentMethodCard,
		})

		assert.Nil(t, order)
		assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeEmptyCart))
	})

	t.Run("Failure - Missing Address Field", func(t *testing.T) {
		orderService, _, _, _ := setupOrderServiceTest(t)

		addr := testAddress()
		addr.PostalCode = ""

		order, err := orderService.CreateOrder(ctx, userID, &models.CreateOrderRequest{
			ShippingAddress: addr,
			PaymentMethod:   models.PaymentMethodCard,
		})

		assert.Nil(t, order)
		assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeInvalidAddress))
	})

	t.Run("Failure - Lost Stock Race Rolls Back Earlier Lines", func(t *testing.T) {
		orderService, _, mockCartRepo, mockProductRepo := setupOrderServiceTest(t)
		otherID := uuid.New()
		other := &models.Product{ID: otherID, Name: "Wool Scarf", Price: decimal.RequireFromString("9.00"), StockQuantity: 5}

		cart := &models.Cart{
			UserID: userID,
			Items: []models.LineItem{
				{ProductID: productID, Quantity: 2, UnitPrice: decimal.RequireFromString("15.00")},
				{ProductID: otherID, Quantity: 1, UnitPrice: decimal.RequireFromString("9.00")},
			},
		}

		mockCartRepo.On("GetCartByUserID", ctx, userID).Return(cart, nil).Once()
		mockProductRepo.On("GetProductByID", ctx, productID).Return(product, nil).Once()
		mockProductRepo.On("GetProductByID", ctx, otherID).Return(other, nil).Twice()
		mockProductRepo.On("DecrementStock", ctx, productID, 2).Return(nil).Once()
		mockProductRepo.On("DecrementStock", ctx, otherID, 1).Return(repository.ErrInsufficientStock).Once()
		mockProductRepo.On("IncrementStock", ctx, productID, 2).Return(nil).Once()

		order, err := orderService.CreateOrder(ctx, userID, &models.CreateOrderRequest{
			ShippingAddress: testAddress(),
			PaymentMethod:   models.PaymentMethodCard,
		})

		assert.Nil(t, order)
		assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeOutOfStock))
	})

	t.Run("Failure - Create Error Releases Reserved Stock", func(t *testing.T) {
		orderService, mockOrderRepo, mockCartRepo, mockProductRepo := setupOrderServiceTest(t)
		dbError := errors.New("insert failed")

		mockCartRepo.On("GetCartByUserID", ctx, userID).Return(cartWith(2, "15.00"), nil).Once()
		mockProductRepo.On("GetProductByID", ctx, productID).Return(product, nil).Once()
		mockProductRepo.On("DecrementStock", ctx, productID, 2).Return(nil).Once()
		mockOrderRepo.On("CreateOrder", ctx, mock.AnythingOfType("*models.Order")).Return(dbError).Once()
		mockProductRepo.On("IncrementStock", ctx, productID, 2).Return(nil).Once()

		order, err := orderService.CreateOrder(ctx, userID, &models.CreateOrderRequest{
			ShippingAddress: testAddress(),
			PaymentMethod:   models.PaymentMethodCard,
		})

		assert.Nil(t, order)
		assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeDatabaseError))
	})
}

func TestUpdateOrderStatus(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()

	orderIn := func(status models.OrderStatus) *models.Order {
		return &models.Order{ID: orderID, UserID: uuid.New(), Status: status}
	}

	t.Run("Success - Single Forward Step", func(t *testing.T) {
		orderService, mockOrderRepo, _, _ := setupOrderServiceTest(t)

		mockOrderRepo.On("GetOrderByID", ctx, orderID).Return(orderIn(models.OrderStatusConfirmed), nil).Once()
		mockOrderRepo.On("UpdateOrderStatus", ctx, orderID, models.OrderStatusProcessing, (*time.Time)(nil)).Return(nil).Once()

		order, err := orderService.UpdateOrderStatus(ctx, orderID, models.OrderStatusProcessing)

		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusProcessing, order.Status)
	})

	t.Run("Success - Delivered Stamps Timestamp", func(t *testing.T) {
		orderService, mockOrderRepo, _, _ := setupOrderServiceTest(t)

		mockOrderRepo.On("GetOrderByID", ctx, orderID).Return(orderIn(models.OrderStatusShipped), nil).Once()
		mockOrderRepo.On("UpdateOrderStatus", ctx, orderID, models.OrderStatusDelivered, mock.AnythingOfType("*time.Time")).Return(nil).Once()

		order, err := orderService.UpdateOrderStatus(ctx, orderID, models.OrderStatusDelivered)

		require.NoError(t, err)
		require.NotNil(t, order.DeliveredAt)
		assert.WithinDuration(t, time.Now(), *order.DeliveredAt, time.Second)
	})

	t.Run("Success - Same Status Is A No-Op", func(t *testing.T) {
		orderService, mockOrderRepo, _, _ := setupOrderServiceTest(t)

		mockOrderRepo.On("GetOrderByID", ctx, orderID).Return(orderIn(models.OrderStatusShipped), nil).Once()

		order, err := orderService.UpdateOrderStatus(ctx, orderID, models.OrderStatusShipped)

		assert.NoError(t, err)
		assert.Equal(t, models.OrderStatusShipped, order.Status)
	})

	t.Run("Failure - Skipping A Step", func(t *testing.T) {
		orderService, mockOrderRepo, _, _ := setupOrderServiceTest(t)

		mockOrderRepo.On("GetOrderByID", ctx, orderID).Return(orderIn(models.OrderStatusPending), nil).Once()

		order, err := orderService.UpdateOrderStatus(ctx, orderID, models.OrderStatusShipped)

		assert.Nil(t, order)
		assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeInvalidTransition))
	})

	t.Run("Failure - Backward Move", func(t *testing.T) {
		orderService, mockOrderRepo, _, _ := setupOrderServiceTest(t)

		mockOrderRepo.On("GetOrderByID", ctx, orderID).Return(orderIn(models.OrderStatusShipped), nil).Once()

		order, err := orderService.UpdateOrderStatus(ctx, orderID, models.OrderStatusConfirmed)

		assert.Nil(t, order)
		assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeInvalidTransition))
	})

	t.Run("Failure - Cancelled Is Not A Fulfilment Target", func(t *testing.T) {
		orderService, mockOrderRepo, _, _ := setupOrderServiceTest(t)

		mockOrderRepo.On("GetOrderByID", ctx, orderID).Return(orderIn(models.OrderStatusPending), nil).Once()

		order, err := orderService.UpdateOrderStatus(ctx, orderID, models.OrderStatusCancelled)

		assert.Nil(t, order)
		assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeInvalidTransition))
	})
}

func TestCancelOrder(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()
	userID := uuid.New()
	productID := uuid.New()
	claims := &models.Claims{UserID: userID}

	orderIn := func(status models.OrderStatus) *models.Order {
		return &models.Order{
			ID:     orderID,
			UserID: userID,
			Status: status,
			Items: []models.OrderItem{
				{ProductID: productID, Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
			},
		}
	}

	t.Run("Success - Pending Order Cancels And Restores Stock", func(t *testing.T) {
		orderService, mockOrderRepo, _, mockProductRepo := setupOrderServiceTest(t)

		mockOrderRepo.On("GetOrderByID", ctx, orderID).Return(orderIn(models.OrderStatusPending), nil).Once()
		mockOrderRepo.On("UpdateOrderStatus", ctx, orderID, models.OrderStatusCancelled, (*time.Time)(nil)).Return(nil).Once()
		mockProductRepo.On("IncrementStock", ctx, productID, 2).Return(nil).Once()

		order, err := orderService.CancelOrder(ctx, orderID, claims)

		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCancelled, order.Status)
	})

	t.Run("Success - Already Cancelled Is A No-Op", func(t *testing.T) {
		orderService, mockOrderRepo, _, _ := setupOrderServiceTest(t)

		mockOrderRepo.On("GetOrderByID", ctx, orderID).Return(orderIn(models.OrderStatusCancelled), nil).Once()

		order, err := orderService.CancelOrder(ctx, orderID, claims)

		assert.NoError(t, err)
		assert.Equal(t, models.OrderStatusCancelled, order.Status)
	})

	t.Run("Failure - Shipped Order Cannot Cancel", func(t *testing.T) {
		orderService, mockOrderRepo, _, _ := setupOrderServiceTest(t)

		mockOrderRepo.On("GetOrderByID", ctx, orderID).Return(orderIn(models.OrderStatusShipped), nil).Once()

		order, err := orderService.CancelOrder(ctx, orderID, claims)

		assert.Nil(t, order)
		assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeCannotCancel))
	})

	t.Run("Failure - Another User's Order", func(t *testing.T) {
		orderService, mockOrderRepo, _, _ := setupOrderServiceTest(t)

		mockOrderRepo.On("GetOrderByID", ctx, orderID).Return(orderIn(models.OrderStatusPending), nil).Once()

		order, err := orderService.CancelOrder(ctx, orderID, &models.Claims{UserID: uuid.New()})

		assert.Nil(t, order)
		assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeForbidden))
	})
}

func TestGetOrderByID(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()
	ownerID := uuid.New()
	order := &models.Order{ID: orderID, UserID: ownerID}

	t.Run("Success - Owner", func(t *testing.T) {
		orderService, mockOrderRepo, _, _ := setupOrderServiceTest(t)

		mockOrderRepo.On("GetOrderByID", ctx, orderID).Return(order, nil).Once()

		got, err := orderService.GetOrderByID(ctx, orderID, &models.Claims{UserID: ownerID})

		assert.NoError(t, err)
		assert.Equal(t, orderID, got.ID)
	})

	t.Run("Success - Admin", func(t *testing.T) {
		orderService, mockOrderRepo, _, _ := setupOrderServiceTest(t)

		mockOrderRepo.On("GetOrderByID", ctx, orderID).Return(order, nil).Once()

		got, err := orderService.GetOrderByID(ctx, orderID, &models.Claims{UserID: uuid.New(), IsAdmin: true})

		assert.NoError(t, err)
		assert.Equal(t, orderID, got.ID)
	})

	t.Run("Failure - Not Found", func(t *testing.T) {
		orderService, mockOrderRepo, _, _ := setupOrderServiceTest(t)

		mockOrderRepo.On("GetOrderByID", ctx, orderID).Return(nil, sql.ErrNoRows).Once()

		got, err := orderService.GetOrderByID(ctx, orderID, &models.Claims{UserID: ownerID})

		assert.Nil(t, got)
		assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeNotFound))
	})

	t.Run("Failure - Other User", func(t *testing.T) {
		orderService, mockOrderRepo, _, _ := setupOrderServiceTest(t)

		mockOrderRepo.On("GetOrderByID", ctx, orderID).Return(order, nil).Once()

		got, err := orderService.GetOrderByID(ctx, orderID, &models.Claims{UserID: uuid.New()})

		assert.Nil(t, got)
		assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeForbidden))
	})
}

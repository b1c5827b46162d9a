package service_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/arnavkapoor/stitchkart-commerce/internal/cache"
	appErrors "github.com/arnavkapoor/stitchkart-commerce/internal/errors"
	"github.com/arnavkapoor/stitchkart-commerce/internal/models"
	"github.com/arnavkapoor/stitchkart-commerce/internal/repositories/mocks"
	service "github.com/arnavkapoor/stitchkart-commerce/internal/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type cacheMock struct {
	mock.Mock
}

func newCacheMock(t *testing.T) *cacheMock {
	m := &cacheMock{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *cacheMock) Get(ctx context.Context, key string, value any) (bool, error) {
	args := m.Called(ctx, key, value)

	return args.Bool(0), args.Error(1)
}

func (m *cacheMock) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)

	return args.Error(0)
}

func (m *cacheMock) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)

	return args.Error(0)
}

func (m *cacheMock) Close() error {
	return nil
}

func setupProductServiceTest(t *testing.T) (service.ProductService, *mocks.ProductRepository, *cacheMock) {
	mockRepo := mocks.NewProductRepository(t)
	mockCache := newCacheMock(t)
	productService := service.NewProductService(mockRepo, mockCache)

	return productService, mockRepo, mockCache
}

func TestCreateProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - Markup Is Stripped From Text Fields", func(t *testing.T) {
		productService, mockRepo, _ := setupProductServiceTest(t)

		mockRepo.On("CreateProduct", ctx, mock.AnythingOfType("*models.Product")).Return(nil).Once()

		product, err := productService.CreateProduct(ctx, &models.CreateProductRequest{
			Name:          `Linen Shirt<script>alert("x")</script>`,
			Description:   "<b>Soft</b> and breathable",
			Price:         "19.99",
			StockQuantity: 5,
		})

		require.NoError(t, err)
		assert.Equal(t, "Linen Shirt", product.Name)
		assert.Equal(t, "Soft and breathable", product.Description)
		assert.True(t, product.Price.Equal(decimal.RequireFromString("19.99")))
		assert.Equal(t, "active", product.Status)
	})

	t.Run("Failure - Non-Positive Price", func(t *testing.T) {
		productService, _, _ := setupProductServiceTest(t)

		product, err := productService.CreateProduct(ctx, &models.CreateProductRequest{
			Name:  "Linen Shirt",
			Price: "-1.00",
		})

		assert.Nil(t, product)
		assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeValidation))
	})

	t.Run("Failure - Malformed Price", func(t *testing.T) {
		productService, _, _ := setupProductServiceTest(t)

		product, err := productService.CreateProduct(ctx, &models.CreateProductRequest{
			Name:  "Linen Shirt",
			Price: "nineteen",
		})

		assert.Nil(t, product)
		assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeValidation))
	})
}

func TestGetProductByID(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()
	key := cache.Key(cache.ProductKeyPrefix, productID.String())
	product := &models.Product{
		ID:            productID,
		Name:          "Linen Shirt",
		Price:         decimal.RequireFromString("19.99"),
		StockQuantity: 5,
	}

	t.Run("Success - Cache Hit Skips The Database", func(t *testing.T) {
		productService, _, mockCache := setupProductServiceTest(t)

		mockCache.On("Get", ctx, key, mock.AnythingOfType("*models.Product")).
			Run(func(args mock.Arguments) {
				*args.Get(2).(*models.Product) = *product
			}).
			Return(true, nil).Once()

		got, err := productService.GetProductByID(ctx, productID)

		require.NoError(t, err)
		assert.Equal(t, productID, got.ID)
	})

	t.Run("Success - Cache Miss Reads Through And Fills", func(t *testing.T) {
		productService, mockRepo, mockCache := setupProductServiceTest(t)

		mockCache.On("Get", ctx, key, mock.AnythingOfType("*models.Product")).Return(false, nil).Once()
		mockRepo.On("GetProductByID", ctx, productID).Return(product, nil).Once()
		mockCache.On("Set", ctx, key, product, time.Duration(0)).Return(nil).Once()

		got, err := productService.GetProductByID(ctx, productID)

		require.NoError(t, err)
		assert.Equal(t, productID, got.ID)
	})

	t.Run("Failure - Unknown Product", func(t *testing.T) {
		productService, mockRepo, mockCache := setupProductServiceTest(t)

		mockCache.On("Get", ctx, key, mock.AnythingOfType("*models.Product")).Return(false, nil).Once()
		mockRepo.On("GetProductByID", ctx, productID).Return(nil, sql.ErrNoRows).Once()

		got, err := productService.GetProductByID(ctx, productID)

		assert.Nil(t, got)
		assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeNotFound))
	})
}

func TestUpdateProduct(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()
	key := cache.Key(cache.ProductKeyPrefix, productID.String())

	existing := func() *models.Product {
		return &models.Product{
			ID:            productID,
			Name:          "Linen Shirt",
			Price:         decimal.RequireFromString("19.99"),
			StockQuantity: 5,
		}
	}

	t.Run("Success - Price Change Invalidates Cache", func(t *testing.T) {
		productService, mockRepo, mockCache := setupProductServiceTest(t)
		newPrice := "24.99"

		mockRepo.On("GetProductByID", ctx, productID).Return(existing(), nil).Once()
		mockRepo.On("UpdateProduct", ctx, mock.AnythingOfType("*models.Product")).Return(nil).Once()
		mockCache.On("Delete", ctx, key).Return(nil).Once()

		product, err := productService.UpdateProduct(ctx, productID, &models.UpdateProductRequest{Price: &newPrice})

		require.NoError(t, err)
		assert.True(t, product.Price.Equal(decimal.RequireFromString("24.99")))
	})

	t.Run("Failure - Unknown Product", func(t *testing.T) {
		productService, mockRepo, _ := setupProductServiceTest(t)

		mockRepo.On("GetProductByID", ctx, productID).Return(nil, sql.ErrNoRows).Once()

		product, err := productService.UpdateProduct(ctx, productID, &models.UpdateProductRequest{})

		assert.Nil(t, product)
		assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeNotFound))
	})
}

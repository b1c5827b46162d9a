package service

import (
	"context"
	"database/sql"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/arnavkapoor/stitchkart-commerce/internal/errors"
	"github.com/arnavkapoor/stitchkart-commerce/internal/metrics"
	"github.com/arnavkapoor/stitchkart-commerce/internal/models"
	"github.com/arnavkapoor/stitchkart-commerce/internal/pricing"
	repository "github.com/arnavkapoor/stitchkart-commerce/internal/repositories"
	"github.com/google/uuid"
)

type OrderService interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, req *models.CreateOrderRequest) (*models.Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID, claims *models.Claims) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error)
	CancelOrder(ctx context.Context, id uuid.UUID, claims *models.Claims) (*models.Order, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	policy      pricing.Policy
}

func NewOrderService(orderRepo repository.OrderRepository, cartRepo repository.CartRepository, productRepo repository.ProductRepository, policy pricing.Policy) OrderService {
	return &orderService{orderRepo: orderRepo, cartRepo: cartRepo, productRepo: productRepo, policy: policy}
}

// CreateOrder freezes the cart into an immutable order. Totals come from the
// pricing policy applied to the cart's stored price snapshots, computed once
// here and never re-derived. The cart is cleared only after the order row is
// durably written.
func (s *orderService) CreateOrder(ctx context.Context, userID uuid.UUID, req *models.CreateOrderRequest) (*models.Order, error) {

	if err := validateAddress(&req.ShippingAddress); err != nil {
		return nil, err
	}

	if !req.PaymentMethod.Valid() {
		return nil, errors.BadRequestError("Unsupported payment method: " + string(req.PaymentMethod))
	}

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.EmptyCartError()
		}

		return nil, errors.DatabaseError("Failed to fetch cart").WithError(err)
	}

	if len(cart.Items) == 0 {
		return nil, errors.EmptyCartError()
	}

	// optimistic stock re-check; the conditional decrement below is the
	// authoritative gate
	items := make([]models.OrderItem, 0, len(cart.Items))

	for _, line := range cart.Items {
		product, err := s.productRepo.GetProductByID(ctx, line.ProductID)
		if err != nil {
			if stderrors.Is(err, sql.ErrNoRows) {
				return nil, errors.NotFoundError("Product not found: " + line.ProductID.String()).WithError(err)
			}

			return nil, errors.DatabaseError("Failed to fetch product").WithError(err)
		}

		if product.StockQuantity < line.Quantity {
			return nil, errors.OutOfStockError(product.ID.String(), product.StockQuantity)
		}

		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			Name:      product.Name,
			Image:     product.Image,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Size:      line.Size,
			Color:     line.Color,
		})
	}

	if err := s.reserveStock(ctx, cart.Items); err != nil {
		return nil, err
	}

	totals := s.policy.ComputeOrderTotals(items)

	status := models.OrderStatusPending
	if !req.PaymentMethod.RequiresVerification() {
		// cash on delivery settles offline, the order is confirmed up front
		status = models.OrderStatusConfirmed
	}

	order := &models.Order{
		ID:              uuid.New(),
		UserID:          userID,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		ItemsPrice:      totals.ItemsPrice,
		TaxPrice:        totals.TaxPrice,
		ShippingPrice:   totals.ShippingPrice,
		TotalPrice:      totals.TotalPrice,
		IsPaid:          false,
		Status:          status,
	}

	if err := s.orderRepo.CreateOrder(ctx, order); err != nil {
		s.releaseStock(ctx, cart.Items)

		return nil, errors.DatabaseError("Failed to create order").WithError(err)
	}

	metrics.OrderCreated(string(req.PaymentMethod))

	// the order exists; a failed cart clear must not fail the checkout
	cart.Items = nil
	if err := s.cartRepo.UpdateCart(ctx, cart); err != nil {
		slog.Warn("Failed to clear cart after checkout",
			slog.String("orderId", order.ID.String()),
			slog.String("error", err.Error()))
	}

	return order, nil
}

func (s *orderService) GetOrderByID(ctx context.Context, id uuid.UUID, claims *models.Claims) (*models.Order, error) {
	order, err := s.fetchOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if !claims.IsAdmin && order.UserID != claims.UserID {
		return nil, errors.ForbiddenError("Order belongs to another user")
	}

	return order, nil
}

func (s *orderService) ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error) {

	if page < 1 {
		page = 1
	}

	if size < 1 || size > 20 {
		size = 20
	}

	orders, total, err := s.orderRepo.ListOrdersByUser(ctx, userID, page, size)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to fetch orders").WithError(err)
	}

	return orders, total, nil
}

// UpdateOrderStatus advances the fulfilment state by exactly one step.
// Backward moves and skips are rejected; setting the current status again is
// a no-op that does not re-stamp anything.
func (s *orderService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	order, err := s.fetchOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if !status.Valid() || status == models.OrderStatusCancelled {
		return nil, errors.InvalidTransitionError(string(order.Status), string(status))
	}

	if !order.Status.CanAdvanceTo(status) {
		return nil, errors.InvalidTransitionError(string(order.Status), string(status))
	}

	if status == order.Status {
		return order, nil
	}

	var deliveredAt *time.Time

	if status == models.OrderStatusDelivered && order.DeliveredAt == nil {
		now := time.Now()
		deliveredAt = &now
	}

	if err := s.orderRepo.UpdateOrderStatus(ctx, id, status, deliveredAt); err != nil {
		return nil, errors.DatabaseError("Failed to update order status").WithError(err)
	}

	order.Status = status
	if deliveredAt != nil {
		order.DeliveredAt = deliveredAt
	}

	return order, nil
}

// CancelOrder is allowed while fulfilment has not reached shipped. Cancelling
// an already cancelled order is a no-op.
func (s *orderService) CancelOrder(ctx context.Context, id uuid.UUID, claims *models.Claims) (*models.Order, error) {
	order, err := s.fetchOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if !claims.IsAdmin && order.UserID != claims.UserID {
		return nil, errors.ForbiddenError("Order belongs to another user")
	}

	if order.Status == models.OrderStatusCancelled {
		return order, nil
	}

	if !order.Status.Cancellable() {
		return nil, errors.CannotCancelError(string(order.Status))
	}

	if err := s.orderRepo.UpdateOrderStatus(ctx, id, models.OrderStatusCancelled, nil); err != nil {
		return nil, errors.DatabaseError("Failed to cancel order").WithError(err)
	}

	s.releaseStock(ctx, orderLines(order.Items))

	order.Status = models.OrderStatusCancelled

	return order, nil
}

func (s *orderService) fetchOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Order not found").WithError(err)
		}

		return nil, errors.DatabaseError("Failed to fetch order").WithError(err)
	}

	return order, nil
}

// reserveStock decrements stock for every line with a conditional update.
// On a mid-way failure the already taken lines are put back, so a lost race
// on one product does not strand stock on the others.
func (s *orderService) reserveStock(ctx context.Context, lines []models.LineItem) error {
	taken := make([]models.LineItem, 0, len(lines))

	for _, line := range lines {
		if err := s.productRepo.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			s.releaseStock(ctx, taken)

			if stderrors.Is(err, repository.ErrInsufficientStock) {
				available := 0
				if product, lookupErr := s.productRepo.GetProductByID(ctx, line.ProductID); lookupErr == nil {
					available = product.StockQuantity
				}

				return errors.OutOfStockError(line.ProductID.String(), available)
			}

			return errors.DatabaseError("Failed to reserve stock").WithError(err)
		}

		taken = append(taken, line)
	}

	return nil
}

func (s *orderService) releaseStock(ctx context.Context, lines []models.LineItem) {
	for _, line := range lines {
		if err := s.productRepo.IncrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			slog.Error("Failed to release reserved stock",
				slog.String("productId", line.ProductID.String()),
				slog.String("error", err.Error()))
		}
	}
}

func orderLines(items []models.OrderItem) []models.LineItem {
	lines := make([]models.LineItem, 0, len(items))

	for _, item := range items {
		lines = append(lines, models.LineItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Size:      item.Size,
			Color:     item.Color,
		})
	}

	return lines
}

func validateAddress(addr *models.Address) error {
	switch {
	case addr.Name == "":
		return errors.InvalidAddressError("Recipient name is required")
	case addr.Mobile == "":
		return errors.InvalidAddressError("Contact number is required")
	case addr.Street == "":
		return errors.InvalidAddressError("Street is required")
	case addr.City == "":
		return errors.InvalidAddressError("City is required")
	case addr.State == "":
		return errors.InvalidAddressError("State is required")
	case addr.PostalCode == "":
		return errors.InvalidAddressError("Postal code is required")
	case addr.Country == "":
		return errors.InvalidAddressError("Country is required")
	}

	return nil
}

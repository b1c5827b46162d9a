package service

import (
	"context"
	"database/sql"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/arnavkapoor/stitchkart-commerce/internal/config"
	"github.com/arnavkapoor/stitchkart-commerce/internal/errors"
	"github.com/arnavkapoor/stitchkart-commerce/internal/metrics"
	"github.com/arnavkapoor/stitchkart-commerce/internal/models"
	repository "github.com/arnavkapoor/stitchkart-commerce/internal/repositories"
	"github.com/arnavkapoor/stitchkart-commerce/pkg/razorpay"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

type PaymentService interface {
	CreateGatewayOrder(ctx context.Context, claims *models.Claims, req *models.CreateGatewayOrderRequest) (*models.GatewayOrder, error)
	VerifyPayment(ctx context.Context, req *models.VerifyPaymentRequest) (*models.Order, error)
}

type paymentService struct {
	orderRepo repository.OrderRepository
	userRepo  repository.UserRepository
	gateway   razorpay.Client
	notifier  NotificationService
	cfg       *config.Razorpay
}

func NewPaymentService(orderRepo repository.OrderRepository, userRepo repository.UserRepository, gateway razorpay.Client, notifier NotificationService, cfg *config.Razorpay) PaymentService {
	return &paymentService{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		gateway:   gateway,
		notifier:  notifier,
		cfg:       cfg,
	}
}

// CreateGatewayOrder opens a gateway-side order for an unpaid checkout. The
// gateway is the only dependency that warrants automatic retry: transport
// failures are transient, so the call is retried with backoff before the
// error reaches the caller.
func (s *paymentService) CreateGatewayOrder(ctx context.Context, claims *models.Claims, req *models.CreateGatewayOrderRequest) (*models.GatewayOrder, error) {
	order, err := s.fetchOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	if !claims.IsAdmin && order.UserID != claims.UserID {
		return nil, errors.ForbiddenError("Order belongs to another user")
	}

	if order.IsPaid {
		return nil, errors.ConflictError("Order is already paid")
	}

	if !order.PaymentMethod.RequiresVerification() {
		return nil, errors.BadRequestError("Order does not use an online payment method")
	}

	var gatewayOrder *razorpay.Order

	operation := func() error {
		var callErr error

		gatewayOrder, callErr = s.gateway.CreateOrder(ctx, order.TotalPrice, s.cfg.Currency)

		return callErr
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.cfg.MaxRetries), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, errors.GatewayUnavailableError("Payment gateway is unavailable, please retry").WithError(err)
	}

	if err := s.orderRepo.SetGatewayOrderID(ctx, order.ID, gatewayOrder.ID); err != nil {
		return nil, errors.DatabaseError("Failed to record gateway order").WithError(err)
	}

	return &models.GatewayOrder{
		ID:       gatewayOrder.ID,
		Amount:   order.TotalPrice,
		Currency: gatewayOrder.Currency,
		Receipt:  gatewayOrder.Receipt,
	}, nil
}

// VerifyPayment validates the gateway callback and marks the order paid at
// most once. The signature is checked before anything else; an already paid
// order with a valid signature is a no-op success, never a second payment
// record.
func (s *paymentService) VerifyPayment(ctx context.Context, req *models.VerifyPaymentRequest) (*models.Order, error) {

	if !s.gateway.VerifySignature(req.GatewayOrderID, req.GatewayPaymentID, req.GatewaySignature) {
		metrics.PaymentVerified("rejected")

		return nil, errors.PaymentVerificationError()
	}

	order, err := s.fetchOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	result := &models.PaymentResult{
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		GatewaySignature: req.GatewaySignature,
		Status:           "completed",
	}

	updated, err := s.orderRepo.MarkOrderPaid(ctx, order.ID, time.Now(), result)
	if err != nil {
		return nil, errors.DatabaseError("Failed to record payment").WithError(err)
	}

	if !updated {
		// a repeat callback for a paid order; nothing to change
		metrics.PaymentVerified("replayed")

		return order, nil
	}

	metrics.PaymentVerified("confirmed")

	order, err = s.fetchOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	s.sendConfirmation(ctx, order)

	return order, nil
}

func (s *paymentService) fetchOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Order not found").WithError(err)
		}

		return nil, errors.DatabaseError("Failed to fetch order").WithError(err)
	}

	return order, nil
}

// sendConfirmation is best effort: a failed email never fails a verified
// payment.
func (s *paymentService) sendConfirmation(ctx context.Context, order *models.Order) {
	if s.notifier == nil {
		return
	}

	user, err := s.userRepo.GetUserByID(ctx, order.UserID)
	if err != nil {
		slog.Warn("Could not load user for order confirmation",
			slog.String("orderId", order.ID.String()),
			slog.String("error", err.Error()))

		return
	}

	if err := s.notifier.SendOrderConfirmation(ctx, user, order); err != nil {
		slog.Warn("Failed to send order confirmation",
			slog.String("orderId", order.ID.String()),
			slog.String("error", err.Error()))
	}
}

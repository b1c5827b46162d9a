package handlers

import (
	"log/slog"
	"net/http"

	"github.com/arnavkapoor/stitchkart-commerce/internal/api/middleware"
	"github.com/arnavkapoor/stitchkart-commerce/internal/errors"
	"github.com/arnavkapoor/stitchkart-commerce/internal/models"
	service "github.com/arnavkapoor/stitchkart-commerce/internal/services"
	"github.com/arnavkapoor/stitchkart-commerce/internal/utils"
	"github.com/arnavkapoor/stitchkart-commerce/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type PaymentHandler struct {
	paymentService service.PaymentService
	validator      *validator.Validate
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, validator: validator.New()}
}

func (h *PaymentHandler) CreateGatewayOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized payment attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		var req models.CreateGatewayOrderRequest
		if !utils.ParseAndValidate(w, r, &req, h.validator) {
			return
		}

		gatewayOrder, err := h.paymentService.CreateGatewayOrder(r.Context(), claims, &req)
		if err != nil {
			logger.Error("Failed to open gateway order",
				slog.String("orderId", req.OrderID.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		logger.Info("Gateway order opened",
			slog.String("orderId", req.OrderID.String()),
			slog.String("gatewayOrderId", gatewayOrder.ID))
		response.Success(w, http.StatusOK, gatewayOrder)
	}
}

// VerifyPayment handles the post-checkout callback. The signature check runs
// before anything else; a forged callback never reaches the paid short-circuit.
func (h *PaymentHandler) VerifyPayment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.VerifyPaymentRequest
		if !utils.ParseAndValidate(w, r, &req, h.validator) {
			return
		}

		order, err := h.paymentService.VerifyPayment(r.Context(), &req)
		if err != nil {
			logger.Warn("Payment verification failed",
				slog.String("orderId", req.OrderID.String()),
				slog.String("gatewayOrderId", req.GatewayOrderID),
				slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		logger.Info("Payment verified",
			slog.String("orderId", order.ID.String()),
			slog.String("gatewayPaymentId", req.GatewayPaymentID))
		response.Success(w, http.StatusOK, models.VerifyPaymentResponse{
			Success: true,
			Message: "Payment verified",
		})
	}
}

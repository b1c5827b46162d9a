package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type AppError struct {
	Code       string
	Message    string
	Detail     string
	StatusCode int
	Err        error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

func (e *AppError) WithDetail(detail string) *AppError {
	e.Detail = detail

	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err

	return e
}

const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeDatabaseError   = "DATABASE_ERROR"
	ErrCodeDuplicateEntry  = "DUPLICATE_ENTRY"
	ErrCodeConflict        = "CONFLICT"
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS"

	ErrCodeOutOfStock          = "OUT_OF_STOCK"
	ErrCodeInvalidQuantity     = "INVALID_QUANTITY"
	ErrCodeEmptyCart           = "EMPTY_CART"
	ErrCodeInvalidAddress      = "INVALID_ADDRESS"
	ErrCodeInvalidTransition   = "INVALID_TRANSITION"
	ErrCodeCannotCancel        = "CANNOT_CANCEL"
	ErrCodePaymentVerification = "PAYMENT_VERIFICATION_FAILED"
	ErrCodeGatewayUnavailable  = "GATEWAY_UNAVAILABLE"
)

func ValidationError(message string) *AppError {
	return NewAppError(ErrCodeValidation, message, http.StatusBadRequest)
}

func BadRequestError(message string) *AppError {
	return NewAppError(ErrCodeBadRequest, message, http.StatusBadRequest)
}

func NotFoundError(message string) *AppError {
	return NewAppError(ErrCodeNotFound, message, http.StatusNotFound)
}

func UnauthorizedError(message string) *AppError {
	return NewAppError(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

func ForbiddenError(message string) *AppError {
	return NewAppError(ErrCodeForbidden, message, http.StatusForbidden)
}

func InternalError(message string) *AppError {
	return NewAppError(ErrCodeInternal, message, http.StatusInternalServerError)
}

func DatabaseError(message string) *AppError {
	return NewAppError(ErrCodeDatabaseError, message, http.StatusInternalServerError)
}

func DuplicateEntryError(message string) *AppError {
	return NewAppError(ErrCodeDuplicateEntry, message, http.StatusConflict)
}

func ConflictError(message string) *AppError {
	return NewAppError(ErrCodeConflict, message, http.StatusConflict)
}

func TooManyRequestsError(message string) *AppError {
	return NewAppError(ErrCodeTooManyRequests, message, http.StatusTooManyRequests)
}

// OutOfStockError reports the product and the quantity still available so the
// caller can adjust the request instead of guessing.
func OutOfStockError(productID string, available int) *AppError {
	return NewAppError(ErrCodeOutOfStock,
		fmt.Sprintf("Only %d items available in stock", available),
		http.StatusConflict).
		WithDetail(fmt.Sprintf("product=%s available=%d", productID, available))
}

func InvalidQuantityError(message string) *AppError {
	return NewAppError(ErrCodeInvalidQuantity, message, http.StatusBadRequest)
}

func EmptyCartError() *AppError {
	return NewAppError(ErrCodeEmptyCart, "Cannot create order with empty cart", http.StatusBadRequest)
}

func InvalidAddressError(message string) *AppError {
	return NewAppError(ErrCodeInvalidAddress, message, http.StatusBadRequest)
}

func InvalidTransitionError(from, to string) *AppError {
	return NewAppError(ErrCodeInvalidTransition,
		fmt.Sprintf("Cannot move order from %q to %q", from, to),
		http.StatusConflict)
}

func CannotCancelError(status string) *AppError {
	return NewAppError(ErrCodeCannotCancel,
		"Order can no longer be cancelled",
		http.StatusConflict).
		WithDetail(fmt.Sprintf("status=%s", status))
}

// PaymentVerificationError is deliberately generic: the response must not hint
// at which part of the signature check failed.
func PaymentVerificationError() *AppError {
	return NewAppError(ErrCodePaymentVerification, "Payment verification failed", http.StatusBadRequest)
}

func GatewayUnavailableError(message string) *AppError {
	return NewAppError(ErrCodeGatewayUnavailable, message, http.StatusBadGateway)
}

func IsAppError(err error) (*AppError, bool) {
	var appError *AppError

	if errors.As(err, &appError) {
		return appError, true
	}

	return nil, false
}

func IsCode(err error, code string) bool {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Code == code
	}

	return false
}

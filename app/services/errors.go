package services

import "errors"

// Business rule errors. Callers compare with errors.Is; messages may be
// wrapped with more context.
var (
	ErrInvalidCredentials     = errors.New("invalid username or password")
	ErrUserInactive           = errors.New("user is inactive")
	ErrPasswordChangeRequired = errors.New("password must be changed before continuing")
	ErrWeakPassword           = errors.New("password must be at least 8 characters and differ from the current one")
	ErrPermissionDenied       = errors.New("permission denied")

	ErrShiftAlreadyOpen = errors.New("user already has an open shift")
	ErrShiftClosed      = errors.New("shift is closed")
	ErrNoOpenShift      = errors.New("no open shift")

	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrProductInactive   = errors.New("product is inactive")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidTender     = errors.New("invalid tender")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidDiscount   = errors.New("invalid discount")

	ErrRefundExceedsTotal = errors.New("refund exceeds transaction total")
	ErrInvalidStatus      = errors.New("invalid transaction status for this operation")

	ErrCategoryCycle   = errors.New("category parent would create a cycle")
	ErrInvalidMovement = errors.New("invalid stock movement")
)

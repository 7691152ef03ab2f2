package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/lumenmart/api/internal/platform/httpx"
	"github.com/lumenmart/api/internal/services"
)

// mapServiceError translates service sentinels to the uniform error envelope.
// Internal causes travel in the log fields only; callers see one message.
func mapServiceError(err error) httpx.Error {
	switch {
	case errors.Is(err, services.ErrOrderEmptyCart):
		return httpx.NewError("empty_cart", "cart must contain at least one item", http.StatusBadRequest).WithCause(err)
	case errors.Is(err, services.ErrAddressValidation):
		return httpx.NewError("validation_failed", err.Error(), http.StatusBadRequest).WithCause(err)
	case errors.Is(err, services.ErrAddressUnresolvable):
		return httpx.NewError("address_unresolvable", "a complete shipping address is required", http.StatusBadRequest).WithCause(err)
	case errors.Is(err, services.ErrOrderInvalidInput),
		errors.Is(err, services.ErrPricingInvalidInput),
		errors.Is(err, services.ErrGuestInvalidInput),
		errors.Is(err, services.ErrAddressInvalidInput),
		errors.Is(err, services.ErrStatusInvalid):
		return httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest).WithCause(err)
	case errors.Is(err, services.ErrOrderNotFound):
		return httpx.NewError("order_not_found", "order not found", http.StatusNotFound).WithCause(err)
	case errors.Is(err, services.ErrAddressNotFound):
		return httpx.NewError("address_not_found", "address not found", http.StatusNotFound).WithCause(err)
	case errors.Is(err, services.ErrInvoiceNotFound):
		return httpx.NewError("invoice_not_found", "invoice not available for this order", http.StatusNotFound).WithCause(err)
	case errors.Is(err, services.ErrStatusUnchanged),
		errors.Is(err, services.ErrStatusNotAllowed),
		errors.Is(err, services.ErrOrderConflict):
		return httpx.NewError("conflict", err.Error(), http.StatusConflict).WithCause(err)
	case errors.Is(err, context.DeadlineExceeded):
		return httpx.NewError("timeout", "the operation timed out", http.StatusGatewayTimeout).WithCause(err)
	default:
		return httpx.NewError("internal_error", "something went wrong", http.StatusInternalServerError).WithCause(err)
	}
}

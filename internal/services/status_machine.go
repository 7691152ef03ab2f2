package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lumenmart/api/internal/domain"
)

var (
	// ErrStatusInvalid reports a status value outside the known set.
	ErrStatusInvalid = errors.New("order status: invalid value")
	// ErrStatusUnchanged rejects transitions to the current status; no-op
	// transitions are never recorded in the audit trail.
	ErrStatusUnchanged = errors.New("order status: no change")
	// ErrStatusNotAllowed reports a transition rejected by the configured
	// validator.
	ErrStatusNotAllowed = errors.New("order status: transition not allowed")
)

// TransitionValidator vetoes fulfillment status transitions. The default is
// permissive: operators may move an order between any two distinct states,
// which keeps manual correction possible. Deployments wanting workflow
// enforcement plug in a stricter validator.
type TransitionValidator func(from, to domain.OrderStatus) error

// PermissiveTransitions allows every distinct-state transition.
func PermissiveTransitions(domain.OrderStatus, domain.OrderStatus) error { return nil }

// ApplyStatusTransition moves the order to next and appends exactly one audit
// entry. Intended to run inside a transactional order mutation.
func ApplyStatusTransition(order *domain.Order, next domain.OrderStatus, note, actor string, now time.Time, validate TransitionValidator) error {
	if order == nil {
		return errors.New("order status: order is required")
	}
	if !next.Valid() {
		return fmt.Errorf("%w: %q", ErrStatusInvalid, next)
	}
	if next == order.Status {
		return fmt.Errorf("%w: already %s", ErrStatusUnchanged, next)
	}
	if validate != nil {
		if err := validate(order.Status, next); err != nil {
			return fmt.Errorf("%w: %s -> %s: %v", ErrStatusNotAllowed, order.Status, next, err)
		}
	}

	order.StatusHistory = domain.AppendHistory(order.StatusHistory, domain.StatusHistoryEntry{
		Status:    next,
		Timestamp: now,
		Note:      strings.TrimSpace(note),
		UpdatedBy: strings.TrimSpace(actor),
	})
	order.Status = next
	if next == domain.OrderStatusDelivered {
		// Each entry into delivered records the delivery time; a later
		// correction away keeps the stamp as part of the order's history.
		delivered := now
		order.ActualDelivery = &delivered
	}
	order.UpdatedAt = now
	return nil
}

// ApplyPaymentTransition records a payment state change. Payment history
// shares the order's audit trail: the entry keeps the current fulfillment
// status and describes the payment change in its note.
func ApplyPaymentTransition(order *domain.Order, next domain.PaymentStatus, note, actor string, now time.Time) error {
	if order == nil {
		return errors.New("order status: order is required")
	}
	if !next.Valid() {
		return fmt.Errorf("%w: %q", ErrStatusInvalid, next)
	}
	if next == order.PaymentStatus {
		return fmt.Errorf("%w: payment already %s", ErrStatusUnchanged, next)
	}

	entryNote := fmt.Sprintf("Payment status updated to %s", next)
	if trimmed := strings.TrimSpace(note); trimmed != "" {
		entryNote = entryNote + ": " + trimmed
	}
	order.StatusHistory = domain.AppendHistory(order.StatusHistory, domain.StatusHistoryEntry{
		Status:    order.Status,
		Timestamp: now,
		Note:      entryNote,
		UpdatedBy: strings.TrimSpace(actor),
	})
	order.PaymentStatus = next
	order.UpdatedAt = now
	return nil
}

package services

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lumenmart/api/internal/domain"
)

// OrderEventPublisher publishes order lifecycle events for downstream
// consumers such as the notification service.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

// OrderEvent captures metadata for emitted order lifecycle events.
type OrderEvent struct {
	Type           string         `json:"type"`
	OrderID        string         `json:"orderId"`
	OrderNumber    string         `json:"orderNumber"`
	Email          string         `json:"email,omitempty"`
	PreviousStatus string         `json:"previousStatus,omitempty"`
	CurrentStatus  string         `json:"currentStatus,omitempty"`
	ActorID        string         `json:"actorId,omitempty"`
	OccurredAt     time.Time      `json:"occurredAt"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// AddressInput carries caller-supplied shipping address fields. Empty fields
// fall back to resolution from the user's saved addresses.
type AddressInput struct {
	Name    string
	Street  string
	City    string
	State   string
	ZipCode string
	Country string
	Phone   string
}

// CustomerInput identifies the purchaser on guest and express checkouts.
type CustomerInput struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
}

// CreateOrderCommand places an order for an authenticated user. Express
// selects best-available address resolution instead of strict form
// validation.
type CreateOrderCommand struct {
	Cart            domain.Cart
	AddressID       string
	ShippingAddress AddressInput
	Express         bool
	PaymentMethod   string
	Source          domain.OrderSource
	Notes           string
	ActorID         string
}

// CreateGuestOrderCommand places an order for an unauthenticated purchaser,
// provisioning an account from the supplied contact details.
type CreateGuestOrderCommand struct {
	Customer        CustomerInput
	Items           []domain.CartItem
	ShippingAddress AddressInput
	PaymentMethod   string
	Source          domain.OrderSource
	Notes           string
}

// OrderStatusUpdateCommand moves an order to a new fulfillment status.
type OrderStatusUpdateCommand struct {
	OrderID string
	Status  domain.OrderStatus
	Note    string
	ActorID string
}

// PaymentStatusUpdateCommand records a payment state change on the order.
type PaymentStatusUpdateCommand struct {
	OrderID string
	Status  domain.PaymentStatus
	Note    string
	ActorID string
}

// OrderFieldsUpdateCommand patches operational fields without touching the
// audit trail. Nil pointers leave the field unchanged.
type OrderFieldsUpdateCommand struct {
	OrderID           string
	TrackingNumber    *string
	Carrier           *string
	EstimatedDelivery *time.Time
	Tags              []string
	Notes             *string
	InternalNote      *string
	Priority          *domain.OrderPriority
	ActorID           string
}

// OrderListQuery narrows order listings for staff and account views.
type OrderListQuery struct {
	UserID     string
	Status     []domain.OrderStatus
	CreatedGTE *time.Time
	CreatedLT  *time.Time
	Pagination domain.Pagination
}

// GuestProvisionResult reports the account an order was attached to and, for
// newly created accounts, the generated credential.
type GuestProvisionResult struct {
	User              domain.User
	Created           bool
	GeneratedPassword string
}

// OrderCreateResult pairs the stored order with provisioning output when the
// purchase created an account.
type OrderCreateResult struct {
	Order     domain.Order
	Provision *GuestProvisionResult
}

// OrderService exposes the order lifecycle operations used by HTTP handlers.
type OrderService interface {
	Create(ctx context.Context, cmd CreateOrderCommand) (domain.Order, error)
	CreateGuest(ctx context.Context, cmd CreateGuestOrderCommand) (OrderCreateResult, error)
	Get(ctx context.Context, orderID string) (domain.Order, error)
	List(ctx context.Context, query OrderListQuery) (domain.CursorPage[domain.Order], error)
	UpdateStatus(ctx context.Context, cmd OrderStatusUpdateCommand) (domain.Order, error)
	UpdatePayment(ctx context.Context, cmd PaymentStatusUpdateCommand) (domain.Order, error)
	UpdateFields(ctx context.Context, cmd OrderFieldsUpdateCommand) (domain.Order, error)
}

// AddressService manages a user's saved address book.
type AddressService interface {
	List(ctx context.Context, userID string) ([]domain.Address, error)
	Save(ctx context.Context, userID string, addressID *string, addr domain.Address) (domain.Address, error)
	Delete(ctx context.Context, userID, addressID string) error
}

// InvoiceService streams stored invoice documents.
type InvoiceService interface {
	// Fetch returns the invoice PDF for the order. The caller owns closing
	// the reader.
	Fetch(ctx context.Context, orderID string) (io.ReadCloser, int64, error)
}

// TotalsBreakdown is the deterministic pricing output for a checkout.
type TotalsBreakdown struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

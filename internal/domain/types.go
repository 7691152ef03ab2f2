package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pagination defines standard cursor-based paging inputs for list operations.
type Pagination struct {
	PageSize  int
	PageToken string
}

// CursorPage packages list results with an encoded next token.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}

// OrderStatus enumerates fulfillment lifecycle states for orders.
type OrderStatus string

const (
	// OrderStatusPending is the initial state of every created order.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusConfirmed indicates the order has been acknowledged by staff.
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusProcessing indicates the order is being prepared.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusPacked indicates the order has been packed and awaits handoff.
	OrderStatusPacked OrderStatus = "packed"
	// OrderStatusShipped indicates the order has left the warehouse.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusOutForDelivery indicates the carrier is delivering the order.
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	// OrderStatusDelivered indicates the order reached the customer.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled indicates the order was cancelled.
	OrderStatusCancelled OrderStatus = "cancelled"
	// OrderStatusReturned indicates the customer returned the order.
	OrderStatusReturned OrderStatus = "returned"
	// OrderStatusRefunded indicates the order was refunded after return.
	OrderStatusRefunded OrderStatus = "refunded"
)

// OrderStatuses lists every order status in lifecycle order.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusConfirmed,
		OrderStatusProcessing,
		OrderStatusPacked,
		OrderStatusShipped,
		OrderStatusOutForDelivery,
		OrderStatusDelivered,
		OrderStatusCancelled,
		OrderStatusReturned,
		OrderStatusRefunded,
	}
}

// Valid reports whether the status is one of the closed set.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusPacked, OrderStatusShipped, OrderStatusOutForDelivery,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusReturned,
		OrderStatusRefunded:
		return true
	}
	return false
}

// PaymentStatus enumerates payment lifecycle states, independent of OrderStatus.
type PaymentStatus string

const (
	// PaymentStatusPending indicates payment has not been settled yet.
	PaymentStatusPending PaymentStatus = "pending"
	// PaymentStatusPaid indicates the full amount was received.
	PaymentStatusPaid PaymentStatus = "paid"
	// PaymentStatusFailed indicates the payment attempt failed.
	PaymentStatusFailed PaymentStatus = "failed"
	// PaymentStatusRefunded indicates the full amount was returned.
	PaymentStatusRefunded PaymentStatus = "refunded"
	// PaymentStatusPartiallyRefunded indicates part of the amount was returned.
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

// Valid reports whether the payment status is one of the closed set.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed,
		PaymentStatusRefunded, PaymentStatusPartiallyRefunded:
		return true
	}
	return false
}

// OrderPriority flags orders for operator attention.
type OrderPriority string

const (
	OrderPriorityLow    OrderPriority = "low"
	OrderPriorityNormal OrderPriority = "normal"
	OrderPriorityHigh   OrderPriority = "high"
	OrderPriorityUrgent OrderPriority = "urgent"
)

// Valid reports whether the priority is one of the closed set.
func (p OrderPriority) Valid() bool {
	switch p {
	case OrderPriorityLow, OrderPriorityNormal, OrderPriorityHigh, OrderPriorityUrgent:
		return true
	}
	return false
}

// OrderSource records which surface placed the order.
type OrderSource string

const (
	OrderSourceWebsite OrderSource = "website"
	OrderSourceMobile  OrderSource = "mobile"
	OrderSourceAdmin   OrderSource = "admin"
	OrderSourceAPI     OrderSource = "api"
)

// Valid reports whether the source is one of the closed set.
func (s OrderSource) Valid() bool {
	switch s {
	case OrderSourceWebsite, OrderSourceMobile, OrderSourceAdmin, OrderSourceAPI:
		return true
	}
	return false
}

// OrderItem is an immutable snapshot of a purchased product line.
type OrderItem struct {
	ProductRef string
	Name       string
	UnitPrice  decimal.Decimal
	Quantity   int
	LineTotal  decimal.Decimal
	Image      string
}

// OrderTotals holds the rolled-up monetary fields of an order.
type OrderTotals struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// Consistent reports whether Total equals Subtotal - Discount + Shipping + Tax.
func (t OrderTotals) Consistent() bool {
	expected := t.Subtotal.Sub(t.Discount).Add(t.Shipping).Add(t.Tax)
	return t.Total.Equal(expected)
}

// StatusHistoryEntry is one append-only audit record on an order.
type StatusHistoryEntry struct {
	Status    OrderStatus
	Timestamp time.Time
	Note      string
	UpdatedBy string
}

// ShippingAddress is the embedded address snapshot copied at creation time.
type ShippingAddress struct {
	Name    string
	Street  string
	City    string
	State   string
	ZipCode string
	Country string
	Phone   string
}

// Order is the root aggregate for a customer purchase and its lifecycle.
type Order struct {
	ID                string
	OrderNumber       string
	UserID            string
	Items             []OrderItem
	Totals            OrderTotals
	Status            OrderStatus
	PaymentStatus     PaymentStatus
	PaymentMethod     string
	ShippingAddress   ShippingAddress
	StatusHistory     []StatusHistoryEntry
	TrackingNumber    string
	Carrier           string
	EstimatedDelivery *time.Time
	ActualDelivery    *time.Time
	Tags              []string
	Notes             string
	InternalNotes     []string
	Priority          OrderPriority
	Source            OrderSource
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AddressType classifies a saved address.
type AddressType string

const (
	AddressTypeHome  AddressType = "Home"
	AddressTypeWork  AddressType = "Work"
	AddressTypeOther AddressType = "Other"
)

// Valid reports whether the address type is one of the closed set.
func (t AddressType) Valid() bool {
	switch t {
	case AddressTypeHome, AddressTypeWork, AddressTypeOther:
		return true
	}
	return false
}

// Address is a user-owned saved address with its own lifecycle.
type Address struct {
	ID             string
	Type           AddressType
	Name           string
	Street         string
	City           string
	State          string
	ZipCode        string
	Country        string
	Phone          string
	IsDefault      bool
	NormalizedHash string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// User is a registered or guest-provisioned account.
type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	Phone        string
	PasswordHash string
	IsGuest      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CartItem is a single product entry inside a checkout cart.
type CartItem struct {
	ProductRef string
	Name       string
	UnitPrice  decimal.Decimal
	Quantity   int
	Image      string
}

// Cart is the explicit cart value passed into order creation. There is no
// ambient cart singleton; callers own the value.
type Cart struct {
	UserID string
	Items  []CartItem
}

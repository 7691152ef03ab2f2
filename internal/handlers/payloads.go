package handlers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/lumenmart/api/internal/domain"
)

// Monetary values round to two decimals here, at the presentation boundary
// only; persisted totals keep full precision.
func money(value decimal.Decimal) float64 {
	return value.Round(2).InexactFloat64()
}

type addressFields struct {
	Name    string `json:"name"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
	Phone   string `json:"phone"`
}

type orderItemPayload struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
	LineTotal float64 `json:"lineTotal"`
	Image     string  `json:"image,omitempty"`
}

type historyEntryPayload struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
}

type orderPayload struct {
	ID                string                `json:"id"`
	OrderNumber       string                `json:"orderNumber"`
	UserID            string                `json:"userId"`
	Items             []orderItemPayload    `json:"items"`
	Subtotal          float64               `json:"subtotal"`
	Shipping          float64               `json:"shipping"`
	Tax               float64               `json:"tax"`
	Discount          float64               `json:"discount"`
	TotalAmount       float64               `json:"totalAmount"`
	Status            string                `json:"status"`
	PaymentStatus     string                `json:"paymentStatus"`
	PaymentMethod     string                `json:"paymentMethod,omitempty"`
	ShippingAddress   addressFields         `json:"shippingAddress"`
	StatusHistory     []historyEntryPayload `json:"statusHistory"`
	TrackingNumber    string                `json:"trackingNumber,omitempty"`
	Carrier           string                `json:"carrier,omitempty"`
	EstimatedDelivery *time.Time            `json:"estimatedDelivery,omitempty"`
	ActualDelivery    *time.Time            `json:"actualDelivery,omitempty"`
	Tags              []string              `json:"tags,omitempty"`
	Notes             string                `json:"notes,omitempty"`
	InternalNotes     []string              `json:"internalNotes,omitempty"`
	Priority          string                `json:"priority"`
	Source            string                `json:"source"`
	CreatedAt         time.Time             `json:"createdAt"`
	UpdatedAt         time.Time             `json:"updatedAt"`
}

func toOrderPayload(order domain.Order) orderPayload {
	items := make([]orderItemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemPayload{
			ProductID: item.ProductRef,
			Name:      item.Name,
			UnitPrice: money(item.UnitPrice),
			Quantity:  item.Quantity,
			LineTotal: money(item.LineTotal),
			Image:     item.Image,
		})
	}
	history := make([]historyEntryPayload, 0, len(order.StatusHistory))
	for _, entry := range domain.SortedHistory(order.StatusHistory) {
		history = append(history, historyEntryPayload{
			Status:    string(entry.Status),
			Timestamp: entry.Timestamp,
			Note:      entry.Note,
			UpdatedBy: entry.UpdatedBy,
		})
	}
	return orderPayload{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID,
		Items:         items,
		Subtotal:      money(order.Totals.Subtotal),
		Shipping:      money(order.Totals.Shipping),
		Tax:           money(order.Totals.Tax),
		Discount:      money(order.Totals.Discount),
		TotalAmount:   money(order.Totals.Total),
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		PaymentMethod: order.PaymentMethod,
		ShippingAddress: addressFields{
			Name:    order.ShippingAddress.Name,
			Street:  order.ShippingAddress.Street,
			City:    order.ShippingAddress.City,
			State:   order.ShippingAddress.State,
			ZipCode: order.ShippingAddress.ZipCode,
			Country: order.ShippingAddress.Country,
			Phone:   order.ShippingAddress.Phone,
		},
		StatusHistory:     history,
		TrackingNumber:    order.TrackingNumber,
		Carrier:           order.Carrier,
		EstimatedDelivery: order.EstimatedDelivery,
		ActualDelivery:    order.ActualDelivery,
		Tags:              order.Tags,
		Notes:             order.Notes,
		InternalNotes:     order.InternalNotes,
		Priority:          string(order.Priority),
		Source:            string(order.Source),
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
}

type savedAddressPayload struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Name      string    `json:"name"`
	Street    string    `json:"street"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	ZipCode   string    `json:"zipCode"`
	Country   string    `json:"country"`
	Phone     string    `json:"phone,omitempty"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toSavedAddressPayload(addr domain.Address) savedAddressPayload {
	return savedAddressPayload{
		ID:        addr.ID,
		Type:      string(addr.Type),
		Name:      addr.Name,
		Street:    addr.Street,
		City:      addr.City,
		State:     addr.State,
		ZipCode:   addr.ZipCode,
		Country:   addr.Country,
		Phone:     addr.Phone,
		IsDefault: addr.IsDefault,
		CreatedAt: addr.CreatedAt,
		UpdatedAt: addr.UpdatedAt,
	}
}

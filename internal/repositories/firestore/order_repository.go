package firestore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/shopspring/decimal"

	"github.com/lumenmart/api/internal/domain"
	pfirestore "github.com/lumenmart/api/internal/platform/firestore"
	"github.com/lumenmart/api/internal/repositories"
)

const ordersCollection = "orders"

// OrderRepository persists order aggregates in Firestore.
type OrderRepository struct {
	provider *pfirestore.Provider
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	return &OrderRepository{provider: provider}, nil
}

// Create inserts a new order document, failing on duplicate IDs.
func (r *OrderRepository) Create(ctx context.Context, order domain.Order) error {
	coll, err := r.collection(ctx)
	if err != nil {
		return err
	}
	id := strings.TrimSpace(order.ID)
	if id == "" {
		return errors.New("order repository: order id is required")
	}
	doc, err := encodeOrderDocument(order)
	if err != nil {
		return err
	}
	if _, err := coll.Doc(id).Create(ctx, doc); err != nil {
		return pfirestore.WrapError("orders.create", err)
	}
	return nil
}

// FindByID loads a single order.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}
	snap, err := coll.Doc(id).Get(ctx)
	if err != nil {
		return domain.Order{}, pfirestore.WrapError("orders.get", err)
	}
	return decodeOrderSnapshot(snap)
}

// Mutate runs fn against a transactional read of the order and writes the
// result back. Firestore retries the optimistic transaction on contention.
func (r *OrderRepository) Mutate(ctx context.Context, orderID string, fn repositories.OrderMutator) (domain.Order, error) {
	if fn == nil {
		return domain.Order{}, errors.New("order repository: mutator is required")
	}
	coll, err := r.collection(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}

	var mutated domain.Order
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := coll.Doc(id)
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		order, err := decodeOrderSnapshot(snap)
		if err != nil {
			return err
		}
		if err := fn(&order); err != nil {
			return err
		}
		doc, err := encodeOrderDocument(order)
		if err != nil {
			return err
		}
		if err := tx.Set(ref, doc); err != nil {
			return err
		}
		mutated = order
		return nil
	})
	if err != nil {
		return domain.Order{}, pfirestore.WrapError("orders.mutate", err)
	}
	return mutated, nil
}

// List returns a page of orders matching the filter, newest first.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}

	query := coll.Query
	if uid := strings.TrimSpace(filter.UserID); uid != "" {
		query = query.Where("userRef", "==", uid)
	}
	if len(filter.Status) > 0 {
		statuses := make([]string, 0, len(filter.Status))
		for _, s := range filter.Status {
			statuses = append(statuses, string(s))
		}
		query = query.Where("status", "in", statuses)
	}
	if filter.CreatedGTE != nil {
		query = query.Where("createdAt", ">=", filter.CreatedGTE.UTC())
	}
	if filter.CreatedLT != nil {
		query = query.Where("createdAt", "<", filter.CreatedLT.UTC())
	}
	query = query.OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)

	if token := strings.TrimSpace(filter.Pagination.PageToken); token != "" {
		cursor, err := decodeOrderCursor(token)
		if err != nil {
			return domain.CursorPage[domain.Order]{}, err
		}
		query = query.StartAfter(cursor.CreatedAt, cursor.ID)
	}

	pageSize := filter.Pagination.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	query = query.Limit(pageSize + 1)

	iter := query.Documents(ctx)
	defer iter.Stop()

	var orders []domain.Order
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return domain.CursorPage[domain.Order]{}, pfirestore.WrapError("orders.list", err)
		}
		order, err := decodeOrderSnapshot(snap)
		if err != nil {
			return domain.CursorPage[domain.Order]{}, err
		}
		orders = append(orders, order)
	}

	page := domain.CursorPage[domain.Order]{}
	if len(orders) > pageSize {
		last := orders[pageSize-1]
		token, err := encodeOrderCursor(orderCursor{CreatedAt: last.CreatedAt, ID: last.ID})
		if err != nil {
			return domain.CursorPage[domain.Order]{}, err
		}
		page.NextPageToken = token
		orders = orders[:pageSize]
	}
	page.Items = orders
	return page, nil
}

func (r *OrderRepository) collection(ctx context.Context) (*firestore.CollectionRef, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("order repository not initialised")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(ordersCollection), nil
}

type orderCursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
}

func encodeOrderCursor(cursor orderCursor) (string, error) {
	data, err := json.Marshal(cursor)
	if err != nil {
		return "", fmt.Errorf("orders: encode page token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

func decodeOrderCursor(token string) (orderCursor, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return orderCursor{}, fmt.Errorf("orders: invalid page token: %w", err)
	}
	var cursor orderCursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return orderCursor{}, fmt.Errorf("orders: invalid page token: %w", err)
	}
	return cursor, nil
}

type orderDocument struct {
	OrderNumber       string                 `firestore:"orderNumber"`
	UserRef           string                 `firestore:"userRef"`
	Items             []orderItemDocument    `firestore:"items"`
	Subtotal          string                 `firestore:"subtotal"`
	Shipping          string                 `firestore:"shipping"`
	Tax               string                 `firestore:"tax"`
	Discount          string                 `firestore:"discount"`
	TotalAmount       string                 `firestore:"totalAmount"`
	Status            string                 `firestore:"status"`
	PaymentStatus     string                 `firestore:"paymentStatus"`
	PaymentMethod     string                 `firestore:"paymentMethod,omitempty"`
	ShippingAddress   shippingAddrDocument   `firestore:"shippingAddress"`
	StatusHistory     []historyEntryDocument `firestore:"statusHistory"`
	TrackingNumber    string                 `firestore:"trackingNumber,omitempty"`
	Carrier           string                 `firestore:"carrier,omitempty"`
	EstimatedDelivery *time.Time             `firestore:"estimatedDelivery,omitempty"`
	ActualDelivery    *time.Time             `firestore:"actualDelivery,omitempty"`
	Tags              []string               `firestore:"tags,omitempty"`
	Notes             string                 `firestore:"notes,omitempty"`
	InternalNotes     []string               `firestore:"internalNotes,omitempty"`
	Priority          string                 `firestore:"priority"`
	Source            string                 `firestore:"source"`
	CreatedAt         time.Time              `firestore:"createdAt"`
	UpdatedAt         time.Time              `firestore:"updatedAt"`
}

type orderItemDocument struct {
	ProductRef string `firestore:"productRef"`
	Name       string `firestore:"name"`
	UnitPrice  string `firestore:"unitPrice"`
	Quantity   int    `firestore:"quantity"`
	LineTotal  string `firestore:"lineTotal"`
	Image      string `firestore:"image,omitempty"`
}

type shippingAddrDocument struct {
	Name    string `firestore:"name"`
	Street  string `firestore:"street"`
	City    string `firestore:"city"`
	State   string `firestore:"state"`
	ZipCode string `firestore:"zipCode"`
	Country string `firestore:"country"`
	Phone   string `firestore:"phone"`
}

type historyEntryDocument struct {
	Status    string    `firestore:"status"`
	Timestamp time.Time `firestore:"timestamp"`
	Note      string    `firestore:"note,omitempty"`
	UpdatedBy string    `firestore:"updatedBy,omitempty"`
}

// Monetary values are persisted as decimal strings so sub-cent tax precision
// survives the round trip.
func encodeOrderDocument(order domain.Order) (orderDocument, error) {
	items := make([]orderItemDocument, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemDocument{
			ProductRef: item.ProductRef,
			Name:       item.Name,
			UnitPrice:  item.UnitPrice.String(),
			Quantity:   item.Quantity,
			LineTotal:  item.LineTotal.String(),
			Image:      item.Image,
		})
	}

	history := make([]historyEntryDocument, 0, len(order.StatusHistory))
	for _, entry := range order.StatusHistory {
		history = append(history, historyEntryDocument{
			Status:    string(entry.Status),
			Timestamp: entry.Timestamp.UTC(),
			Note:      entry.Note,
			UpdatedBy: entry.UpdatedBy,
		})
	}

	return orderDocument{
		OrderNumber: order.OrderNumber,
		UserRef:     order.UserID,
		Items:       items,
		Subtotal:    order.Totals.Subtotal.String(),
		Shipping:    order.Totals.Shipping.String(),
		Tax:         order.Totals.Tax.String(),
		Discount:    order.Totals.Discount.String(),
		TotalAmount: order.Totals.Total.String(),
		Status:      string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		PaymentMethod: order.PaymentMethod,
		ShippingAddress: shippingAddrDocument{
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
		EstimatedDelivery: cloneTimePtr(order.EstimatedDelivery),
		ActualDelivery:    cloneTimePtr(order.ActualDelivery),
		Tags:              order.Tags,
		Notes:             order.Notes,
		InternalNotes:     order.InternalNotes,
		Priority:          string(order.Priority),
		Source:            string(order.Source),
		CreatedAt:         order.CreatedAt.UTC(),
		UpdatedAt:         order.UpdatedAt.UTC(),
	}, nil
}

func decodeOrderSnapshot(snap *firestore.DocumentSnapshot) (domain.Order, error) {
	var doc orderDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.Order{}, fmt.Errorf("decode order %s: %w", snap.Ref.ID, err)
	}

	items := make([]domain.OrderItem, 0, len(doc.Items))
	for _, item := range doc.Items {
		unitPrice, err := parseMoney(item.UnitPrice, "unitPrice", snap.Ref.ID)
		if err != nil {
			return domain.Order{}, err
		}
		lineTotal, err := parseMoney(item.LineTotal, "lineTotal", snap.Ref.ID)
		if err != nil {
			return domain.Order{}, err
		}
		items = append(items, domain.OrderItem{
			ProductRef: item.ProductRef,
			Name:       item.Name,
			UnitPrice:  unitPrice,
			Quantity:   item.Quantity,
			LineTotal:  lineTotal,
			Image:      item.Image,
		})
	}

	totals := domain.OrderTotals{}
	var err error
	if totals.Subtotal, err = parseMoney(doc.Subtotal, "subtotal", snap.Ref.ID); err != nil {
		return domain.Order{}, err
	}
	if totals.Shipping, err = parseMoney(doc.Shipping, "shipping", snap.Ref.ID); err != nil {
		return domain.Order{}, err
	}
	if totals.Tax, err = parseMoney(doc.Tax, "tax", snap.Ref.ID); err != nil {
		return domain.Order{}, err
	}
	if totals.Discount, err = parseMoney(doc.Discount, "discount", snap.Ref.ID); err != nil {
		return domain.Order{}, err
	}
	if totals.Total, err = parseMoney(doc.TotalAmount, "totalAmount", snap.Ref.ID); err != nil {
		return domain.Order{}, err
	}

	history := make([]domain.StatusHistoryEntry, 0, len(doc.StatusHistory))
	for _, entry := range doc.StatusHistory {
		history = append(history, domain.StatusHistoryEntry{
			Status:    domain.OrderStatus(entry.Status),
			Timestamp: entry.Timestamp,
			Note:      entry.Note,
			UpdatedBy: entry.UpdatedBy,
		})
	}

	return domain.Order{
		ID:            snap.Ref.ID,
		OrderNumber:   doc.OrderNumber,
		UserID:        doc.UserRef,
		Items:         items,
		Totals:        totals,
		Status:        domain.OrderStatus(doc.Status),
		PaymentStatus: domain.PaymentStatus(doc.PaymentStatus),
		PaymentMethod: doc.PaymentMethod,
		ShippingAddress: domain.ShippingAddress{
			Name:    doc.ShippingAddress.Name,
			Street:  doc.ShippingAddress.Street,
			City:    doc.ShippingAddress.City,
			State:   doc.ShippingAddress.State,
			ZipCode: doc.ShippingAddress.ZipCode,
			Country: doc.ShippingAddress.Country,
			Phone:   doc.ShippingAddress.Phone,
		},
		StatusHistory:     history,
		TrackingNumber:    doc.TrackingNumber,
		Carrier:           doc.Carrier,
		EstimatedDelivery: cloneTimePtr(doc.EstimatedDelivery),
		ActualDelivery:    cloneTimePtr(doc.ActualDelivery),
		Tags:              doc.Tags,
		Notes:             doc.Notes,
		InternalNotes:     doc.InternalNotes,
		Priority:          domain.OrderPriority(doc.Priority),
		Source:            domain.OrderSource(doc.Source),
		CreatedAt:         doc.CreatedAt,
		UpdatedAt:         doc.UpdatedAt,
	}, nil
}

func parseMoney(raw, field, docID string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("decode order %s: field %s: %w", docID, field, err)
	}
	return value, nil
}

func cloneTimePtr(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

// Ensure interface compliance.
var _ repositories.OrderRepository = (*OrderRepository)(nil)

package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/lumenmart/api/internal/domain"
	"github.com/lumenmart/api/internal/platform/auth"
	"github.com/lumenmart/api/internal/platform/httpx"
	"github.com/lumenmart/api/internal/services"
)

const (
	defaultOrderPageSize = 20
	maxOrderPageSize     = 100
	maxOrderBodySize     = 256 * 1024
)

// OrderHandlers exposes the order lifecycle endpoints.
type OrderHandlers struct {
	orders   services.OrderService
	invoices services.InvoiceService
}

// NewOrderHandlers constructs order endpoints.
func NewOrderHandlers(orders services.OrderService, invoices services.InvoiceService) *OrderHandlers {
	return &OrderHandlers{orders: orders, invoices: invoices}
}

// Routes registers the /orders endpoints. Mutation and listing routes are
// staff-only when an authenticator is configured; checkout stays open.
func (h *OrderHandlers) Routes(r chi.Router, authn *auth.Authenticator) {
	if r == nil {
		return
	}
	r.Post("/", h.createOrder)
	r.Post("/guest", h.createGuestOrder)
	r.Get("/{orderID}", h.getOrder)
	r.Get("/{orderID}/invoice", h.getInvoice)

	if authn != nil {
		r.Group(func(staff chi.Router) {
			// RequireStaff verifies the bearer token before its role check.
			staff.Use(authn.RequireStaff())
			staff.Get("/", h.listOrders)
			staff.Put("/{orderID}", h.updateOrder)
		})
		return
	}
	r.Get("/", h.listOrders)
	r.Put("/{orderID}", h.updateOrder)
}

type orderItemRequest struct {
	ProductID string          `json:"productId"`
	Product   string          `json:"product"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
}

func (i orderItemRequest) toCartItem() domain.CartItem {
	ref := strings.TrimSpace(i.ProductID)
	if ref == "" {
		ref = strings.TrimSpace(i.Product)
	}
	return domain.CartItem{
		ProductRef: ref,
		Name:       strings.TrimSpace(i.Name),
		UnitPrice:  i.Price,
		Quantity:   i.Quantity,
		Image:      strings.TrimSpace(i.Image),
	}
}

type createOrderRequest struct {
	UserID          string             `json:"userId"`
	Items           []orderItemRequest `json:"items"`
	AddressID       string             `json:"addressId,omitempty"`
	ShippingAddress addressFields      `json:"shippingAddress"`
	Express         bool               `json:"express,omitempty"`
	PaymentMethod   string             `json:"paymentMethod"`
	Notes           string             `json:"notes,omitempty"`
	Source          string             `json:"source,omitempty"`
}

func (h *OrderHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	items := make([]domain.CartItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, item.toCartItem())
	}

	order, err := h.orders.Create(ctx, services.CreateOrderCommand{
		Cart:      domain.Cart{UserID: req.UserID, Items: items},
		AddressID: req.AddressID,
		ShippingAddress: services.AddressInput{
			Name:    req.ShippingAddress.Name,
			Street:  req.ShippingAddress.Street,
			City:    req.ShippingAddress.City,
			State:   req.ShippingAddress.State,
			ZipCode: req.ShippingAddress.ZipCode,
			Country: req.ShippingAddress.Country,
			Phone:   req.ShippingAddress.Phone,
		},
		Express:       req.Express,
		PaymentMethod: req.PaymentMethod,
		Source:        domain.OrderSource(strings.TrimSpace(req.Source)),
		Notes:         req.Notes,
		ActorID:       req.UserID,
	})
	if err != nil {
		httpx.WriteError(ctx, w, mapServiceError(err))
		return
	}

	httpx.WriteSuccess(w, http.StatusCreated, toOrderPayload(order))
}

type createGuestOrderRequest struct {
	Email         string             `json:"email"`
	FirstName     string             `json:"firstName"`
	LastName      string             `json:"lastName"`
	Phone         string             `json:"phone"`
	Address       string             `json:"address"`
	City          string             `json:"city"`
	State         string             `json:"state"`
	ZipCode       string             `json:"zipCode"`
	Country       string             `json:"country"`
	Items         []orderItemRequest `json:"items"`
	PaymentMethod string             `json:"paymentMethod"`
	Notes         string             `json:"notes,omitempty"`
}

func (h *OrderHandlers) createGuestOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createGuestOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	items := make([]domain.CartItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, item.toCartItem())
	}

	result, err := h.orders.CreateGuest(ctx, services.CreateGuestOrderCommand{
		Customer: services.CustomerInput{
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Phone:     req.Phone,
		},
		Items: items,
		ShippingAddress: services.AddressInput{
			Name:    strings.TrimSpace(req.FirstName + " " + req.LastName),
			Street:  req.Address,
			City:    req.City,
			State:   req.State,
			ZipCode: req.ZipCode,
			Country: req.Country,
			Phone:   req.Phone,
		},
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
		Source:        domain.OrderSourceWebsite,
	})
	if err != nil {
		httpx.WriteError(ctx, w, mapServiceError(err))
		return
	}

	email := ""
	if result.Provision != nil {
		email = result.Provision.User.Email
	}
	httpx.WriteSuccess(w, http.StatusCreated, map[string]any{
		"orderNumber":   result.Order.OrderNumber,
		"email":         email,
		"totalAmount":   money(result.Order.Totals.Total),
		"paymentMethod": result.Order.PaymentMethod,
	})
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	order, err := h.orders.Get(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		httpx.WriteError(ctx, w, mapServiceError(err))
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, toOrderPayload(order))
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	listQuery := services.OrderListQuery{
		UserID: strings.TrimSpace(query.Get("userId")),
		Pagination: domain.Pagination{
			PageSize:  defaultOrderPageSize,
			PageToken: strings.TrimSpace(query.Get("pageToken")),
		},
	}
	for _, raw := range query["status"] {
		for _, value := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				listQuery.Status = append(listQuery.Status, domain.OrderStatus(trimmed))
			}
		}
	}
	if raw := strings.TrimSpace(query.Get("pageSize")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "pageSize must be a positive integer", http.StatusBadRequest))
			return
		}
		if size > maxOrderPageSize {
			size = maxOrderPageSize
		}
		listQuery.Pagination.PageSize = size
	}
	if raw := strings.TrimSpace(query.Get("createdAfter")); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "createdAfter must be a valid RFC3339 timestamp", http.StatusBadRequest))
			return
		}
		listQuery.CreatedGTE = &ts
	}
	if raw := strings.TrimSpace(query.Get("createdBefore")); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "createdBefore must be a valid RFC3339 timestamp", http.StatusBadRequest))
			return
		}
		listQuery.CreatedLT = &ts
	}

	page, err := h.orders.List(ctx, listQuery)
	if err != nil {
		httpx.WriteError(ctx, w, mapServiceError(err))
		return
	}

	orders := make([]orderPayload, 0, len(page.Items))
	for _, order := range page.Items {
		orders = append(orders, toOrderPayload(order))
	}
	httpx.WriteSuccess(w, http.StatusOK, map[string]any{
		"orders":        orders,
		"nextPageToken": page.NextPageToken,
	})
}

type updateOrderRequest struct {
	Status            *string    `json:"status"`
	PaymentStatus     *string    `json:"paymentStatus"`
	Note              *string    `json:"note"`
	TrackingNumber    *string    `json:"trackingNumber"`
	Carrier           *string    `json:"carrier"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery"`
	Tags              []string   `json:"tags"`
	Notes             *string    `json:"notes"`
	InternalNote      *string    `json:"internalNote"`
	Priority          *string    `json:"priority"`
}

// updateOrder applies a partial update. Status and payment changes run
// through the state machines and are audited; the remaining keys patch
// operational fields without audit entries. Unknown keys are ignored.
func (h *OrderHandlers) updateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "orderID")

	var req updateOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	actor := ""
	if identity, ok := auth.IdentityFromContext(ctx); ok && identity != nil {
		actor = identity.UID
	}
	note := ""
	if req.Note != nil {
		note = *req.Note
	}

	var (
		order domain.Order
		err   error
		done  bool
	)

	if req.Status != nil {
		order, err = h.orders.UpdateStatus(ctx, services.OrderStatusUpdateCommand{
			OrderID: orderID,
			Status:  domain.OrderStatus(strings.TrimSpace(*req.Status)),
			Note:    note,
			ActorID: actor,
		})
		if err != nil {
			httpx.WriteError(ctx, w, mapServiceError(err))
			return
		}
		done = true
	}

	if req.PaymentStatus != nil {
		order, err = h.orders.UpdatePayment(ctx, services.PaymentStatusUpdateCommand{
			OrderID: orderID,
			Status:  domain.PaymentStatus(strings.TrimSpace(*req.PaymentStatus)),
			Note:    note,
			ActorID: actor,
		})
		if err != nil {
			httpx.WriteError(ctx, w, mapServiceError(err))
			return
		}
		done = true
	}

	if req.TrackingNumber != nil || req.Carrier != nil || req.EstimatedDelivery != nil ||
		req.Tags != nil || req.Notes != nil || req.InternalNote != nil || req.Priority != nil {
		cmd := services.OrderFieldsUpdateCommand{
			OrderID:           orderID,
			TrackingNumber:    req.TrackingNumber,
			Carrier:           req.Carrier,
			EstimatedDelivery: req.EstimatedDelivery,
			Tags:              req.Tags,
			Notes:             req.Notes,
			InternalNote:      req.InternalNote,
			ActorID:           actor,
		}
		if req.Priority != nil {
			priority := domain.OrderPriority(strings.TrimSpace(*req.Priority))
			cmd.Priority = &priority
		}
		order, err = h.orders.UpdateFields(ctx, cmd)
		if err != nil {
			httpx.WriteError(ctx, w, mapServiceError(err))
			return
		}
		done = true
	}

	if !done {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "no recognized fields to update", http.StatusBadRequest))
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, toOrderPayload(order))
}

func (h *OrderHandlers) getInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.invoices == nil {
		httpx.WriteError(ctx, w, httpx.NewError("invoice_unavailable", "invoice service unavailable", http.StatusServiceUnavailable))
		return
	}

	orderID := chi.URLParam(r, "orderID")
	reader, size, err := h.invoices.Fetch(ctx, orderID)
	if err != nil {
		httpx.WriteError(ctx, w, mapServiceError(err))
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="invoice-`+orderID+`.pdf"`)
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, reader)
}

// decodeBody parses a JSON body, writing the error envelope on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxOrderBodySize))
	if err := decoder.Decode(dst); err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest).WithCause(err))
		return false
	}
	return true
}

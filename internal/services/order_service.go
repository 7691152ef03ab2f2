package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/lumenmart/api/internal/domain"
	"github.com/lumenmart/api/internal/repositories"
)

const (
	orderEventCreated           = "order.created"
	orderEventStatusChanged     = "order.status.changed"
	orderEventPaymentChanged    = "order.payment.changed"
	orderEventGuestCredentials  = "guest.credentials.issued"
	orderEventConfirmationOwing = "order.address.confirmation.required"

	orderIDPrefix      = "ord_"
	orderNumberCounter = "orders"
)

var (
	// ErrOrderInvalidInput signals the caller provided invalid data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderEmptyCart rejects checkouts without items.
	ErrOrderEmptyCart = errors.New("order: cart is empty")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderConflict indicates duplicates or concurrent-write conflicts.
	ErrOrderConflict = errors.New("order: conflict")
)

// OrderServiceDeps bundles collaborators required to construct the order
// service.
type OrderServiceDeps struct {
	Orders      repositories.OrderRepository
	Users       repositories.UserRepository
	Addresses   repositories.AddressRepository
	Counters    repositories.CounterRepository
	Provisioner *GuestProvisioner
	CartPolicy  CheckoutPolicy
	GuestPolicy CheckoutPolicy
	Validator   TransitionValidator
	Clock       func() time.Time
	IDGenerator func() string
	Events      OrderEventPublisher
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders      repositories.OrderRepository
	users       repositories.UserRepository
	addresses   repositories.AddressRepository
	counters    repositories.CounterRepository
	provisioner *GuestProvisioner
	cartPolicy  CheckoutPolicy
	guestPolicy CheckoutPolicy
	validate    TransitionValidator
	clock       func() time.Time
	newID       func() string
	events      OrderEventPublisher
	logger      func(context.Context, string, map[string]any)
}

// NewOrderService wires dependencies into a concrete OrderService
// implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Users == nil {
		return nil, errors.New("order service: user repository is required")
	}
	if deps.Counters == nil {
		return nil, errors.New("order service: counter repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	validate := deps.Validator
	if validate == nil {
		validate = PermissiveTransitions
	}

	return &orderService{
		orders:      deps.Orders,
		users:       deps.Users,
		addresses:   deps.Addresses,
		counters:    deps.Counters,
		provisioner: deps.Provisioner,
		cartPolicy:  deps.CartPolicy,
		guestPolicy: deps.GuestPolicy,
		validate:    validate,
		clock:       func() time.Time { return clock().UTC() },
		newID:       idGen,
		events:      deps.Events,
		logger:      logger,
	}, nil
}

func (s *orderService) Create(ctx context.Context, cmd CreateOrderCommand) (domain.Order, error) {
	if len(cmd.Cart.Items) == 0 {
		return domain.Order{}, fmt.Errorf("%w: at least one item is required", ErrOrderEmptyCart)
	}
	userID := strings.TrimSpace(cmd.Cart.UserID)
	if userID == "" {
		return domain.Order{}, fmt.Errorf("%w: user id is required", ErrOrderInvalidInput)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if isRepoNotFound(err) {
			return domain.Order{}, fmt.Errorf("%w: unknown user %s", ErrOrderInvalidInput, userID)
		}
		return domain.Order{}, err
	}

	var saved []domain.Address
	if s.addresses != nil {
		saved, err = s.addresses.List(ctx, userID)
		if err != nil {
			// Resolution degrades to form and fallback sources.
			s.logger(ctx, "order.address.list.failed", map[string]any{"user": userID, "error": err.Error()})
			saved = nil
		}
	}

	resolution, err := ResolveShippingAddress(AddressResolveContext{
		SelectedAddressID: cmd.AddressID,
		Form:              cmd.ShippingAddress,
		Saved:             saved,
		ProfileName:       strings.TrimSpace(user.FirstName + " " + user.LastName),
		ProfilePhone:      user.Phone,
		Express:           cmd.Express,
	})
	if err != nil {
		return domain.Order{}, err
	}

	breakdown, lines, err := ComputeTotals(cmd.Cart.Items, s.cartPolicy, decimal.Zero)
	if err != nil {
		return domain.Order{}, err
	}

	order, err := s.buildOrder(ctx, buildOrderParams{
		userID:        userID,
		lines:         lines,
		breakdown:     breakdown,
		address:       resolution.Address,
		paymentMethod: cmd.PaymentMethod,
		source:        cmd.Source,
		notes:         cmd.Notes,
		actor:         cmd.ActorID,
	})
	if err != nil {
		return domain.Order{}, err
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return domain.Order{}, s.mapRepositoryError(err)
	}

	if !resolution.ConfirmationRequired {
		s.autoSaveAddress(ctx, userID, resolution.Address)
	}

	s.publishEvent(ctx, OrderEvent{
		Type:          orderEventCreated,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Email:         user.Email,
		CurrentStatus: string(order.Status),
		ActorID:       cmd.ActorID,
		OccurredAt:    order.CreatedAt,
	})
	if resolution.ConfirmationRequired {
		s.publishEvent(ctx, OrderEvent{
			Type:        orderEventConfirmationOwing,
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			Email:       user.Email,
			OccurredAt:  order.CreatedAt,
		})
	}
	return order, nil
}

func (s *orderService) CreateGuest(ctx context.Context, cmd CreateGuestOrderCommand) (OrderCreateResult, error) {
	if len(cmd.Items) == 0 {
		return OrderCreateResult{}, fmt.Errorf("%w: at least one item is required", ErrOrderEmptyCart)
	}
	if s.provisioner == nil {
		return OrderCreateResult{}, errors.New("order service: guest provisioner not configured")
	}

	form := cmd.ShippingAddress
	if strings.TrimSpace(form.Name) == "" {
		form.Name = strings.TrimSpace(cmd.Customer.FirstName + " " + cmd.Customer.LastName)
	}
	if strings.TrimSpace(form.Phone) == "" {
		form.Phone = cmd.Customer.Phone
	}
	resolution, err := ResolveShippingAddress(AddressResolveContext{Form: form})
	if err != nil {
		return OrderCreateResult{}, err
	}

	breakdown, lines, err := ComputeTotals(cmd.Items, s.guestPolicy, decimal.Zero)
	if err != nil {
		return OrderCreateResult{}, err
	}

	provision, err := s.provisioner.Provision(ctx, cmd.Customer)
	if err != nil {
		return OrderCreateResult{}, err
	}

	source := cmd.Source
	if source == "" {
		source = domain.OrderSourceWebsite
	}
	order, err := s.buildOrder(ctx, buildOrderParams{
		userID:        provision.User.ID,
		lines:         lines,
		breakdown:     breakdown,
		address:       resolution.Address,
		paymentMethod: cmd.PaymentMethod,
		source:        source,
		notes:         cmd.Notes,
		actor:         provision.User.ID,
	})
	if err != nil {
		return OrderCreateResult{}, err
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return OrderCreateResult{}, s.mapRepositoryError(err)
	}

	s.autoSaveAddress(ctx, provision.User.ID, resolution.Address)

	if provision.Created {
		s.publishEvent(ctx, OrderEvent{
			Type:        orderEventGuestCredentials,
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			Email:       provision.User.Email,
			OccurredAt:  order.CreatedAt,
			Metadata:    map[string]any{"password": provision.GeneratedPassword},
		})
	}
	s.publishEvent(ctx, OrderEvent{
		Type:          orderEventCreated,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Email:         provision.User.Email,
		CurrentStatus: string(order.Status),
		OccurredAt:    order.CreatedAt,
	})

	result := OrderCreateResult{Order: order}
	if provision.Created {
		prov := provision
		result.Provision = &prov
	} else {
		prov := GuestProvisionResult{User: provision.User}
		result.Provision = &prov
	}
	return result, nil
}

func (s *orderService) Get(ctx context.Context, orderID string) (domain.Order, error) {
	id := strings.TrimSpace(orderID)
	if id == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return domain.Order{}, s.mapRepositoryError(err)
	}
	return order, nil
}

func (s *orderService) List(ctx context.Context, query OrderListQuery) (domain.CursorPage[domain.Order], error) {
	for _, status := range query.Status {
		if !status.Valid() {
			return domain.CursorPage[domain.Order]{}, fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, status)
		}
	}
	page, err := s.orders.List(ctx, repositories.OrderListFilter{
		UserID:     strings.TrimSpace(query.UserID),
		Status:     query.Status,
		CreatedGTE: query.CreatedGTE,
		CreatedLT:  query.CreatedLT,
		Pagination: query.Pagination,
	})
	if err != nil {
		return domain.CursorPage[domain.Order]{}, s.mapRepositoryError(err)
	}
	return page, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, cmd OrderStatusUpdateCommand) (domain.Order, error) {
	id := strings.TrimSpace(cmd.OrderID)
	if id == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	now := s.clock()
	var previous domain.OrderStatus
	order, err := s.orders.Mutate(ctx, id, func(order *domain.Order) error {
		previous = order.Status
		return ApplyStatusTransition(order, cmd.Status, cmd.Note, cmd.ActorID, now, s.validate)
	})
	if err != nil {
		return domain.Order{}, s.mapRepositoryError(err)
	}

	s.publishEvent(ctx, OrderEvent{
		Type:           orderEventStatusChanged,
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		PreviousStatus: string(previous),
		CurrentStatus:  string(order.Status),
		ActorID:        cmd.ActorID,
		OccurredAt:     now,
	})
	return order, nil
}

func (s *orderService) UpdatePayment(ctx context.Context, cmd PaymentStatusUpdateCommand) (domain.Order, error) {
	id := strings.TrimSpace(cmd.OrderID)
	if id == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	now := s.clock()
	var previous domain.PaymentStatus
	order, err := s.orders.Mutate(ctx, id, func(order *domain.Order) error {
		previous = order.PaymentStatus
		return ApplyPaymentTransition(order, cmd.Status, cmd.Note, cmd.ActorID, now)
	})
	if err != nil {
		return domain.Order{}, s.mapRepositoryError(err)
	}

	s.publishEvent(ctx, OrderEvent{
		Type:           orderEventPaymentChanged,
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		PreviousStatus: string(previous),
		CurrentStatus:  string(order.PaymentStatus),
		ActorID:        cmd.ActorID,
		OccurredAt:     now,
	})
	return order, nil
}

// UpdateFields patches operational metadata. These writes deliberately do
// not append audit entries; only status and payment changes are audited.
func (s *orderService) UpdateFields(ctx context.Context, cmd OrderFieldsUpdateCommand) (domain.Order, error) {
	id := strings.TrimSpace(cmd.OrderID)
	if id == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	if cmd.Priority != nil && !cmd.Priority.Valid() {
		return domain.Order{}, fmt.Errorf("%w: unknown priority %q", ErrOrderInvalidInput, *cmd.Priority)
	}

	now := s.clock()
	order, err := s.orders.Mutate(ctx, id, func(order *domain.Order) error {
		if cmd.TrackingNumber != nil {
			order.TrackingNumber = strings.TrimSpace(*cmd.TrackingNumber)
		}
		if cmd.Carrier != nil {
			order.Carrier = strings.TrimSpace(*cmd.Carrier)
		}
		if cmd.EstimatedDelivery != nil {
			estimated := cmd.EstimatedDelivery.UTC()
			order.EstimatedDelivery = &estimated
		}
		if cmd.Tags != nil {
			order.Tags = domain.NormalizeTags(cmd.Tags)
		}
		if cmd.Notes != nil {
			order.Notes = strings.TrimSpace(*cmd.Notes)
		}
		if cmd.InternalNote != nil {
			if note := strings.TrimSpace(*cmd.InternalNote); note != "" {
				stamped := "[" + now.Format(time.RFC3339) + "] " + note
				order.InternalNotes = append(order.InternalNotes, stamped)
			}
		}
		if cmd.Priority != nil {
			order.Priority = *cmd.Priority
		}
		order.UpdatedAt = now
		return nil
	})
	if err != nil {
		return domain.Order{}, s.mapRepositoryError(err)
	}
	return order, nil
}

type buildOrderParams struct {
	userID        string
	lines         []domain.OrderItem
	breakdown     TotalsBreakdown
	address       domain.ShippingAddress
	paymentMethod string
	source        domain.OrderSource
	notes         string
	actor         string
}

func (s *orderService) buildOrder(ctx context.Context, params buildOrderParams) (domain.Order, error) {
	source := params.source
	if source == "" {
		source = domain.OrderSourceWebsite
	}
	if !source.Valid() {
		return domain.Order{}, fmt.Errorf("%w: unknown source %q", ErrOrderInvalidInput, source)
	}

	now := s.clock()
	number, err := s.generateOrderNumber(ctx, now)
	if err != nil {
		return domain.Order{}, err
	}

	order := domain.Order{
		ID:              orderIDPrefix + s.newID(),
		OrderNumber:     number,
		UserID:          params.userID,
		Items:           params.lines,
		Totals:          params.breakdown.ToOrderTotals(),
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
		PaymentMethod:   strings.TrimSpace(params.paymentMethod),
		ShippingAddress: params.address,
		StatusHistory: []domain.StatusHistoryEntry{{
			Status:    domain.OrderStatusPending,
			Timestamp: now,
			Note:      "Order created",
			UpdatedBy: strings.TrimSpace(params.actor),
		}},
		Notes:     strings.TrimSpace(params.notes),
		Priority:  domain.OrderPriorityNormal,
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if !order.Totals.Consistent() {
		return domain.Order{}, fmt.Errorf("%w: totals are inconsistent", ErrOrderInvalidInput)
	}
	return order, nil
}

// autoSaveAddress stores the shipping address in the user's book when it is
// structurally new. Failures are logged, never fatal to checkout.
func (s *orderService) autoSaveAddress(ctx context.Context, userID string, addr domain.ShippingAddress) {
	if s.addresses == nil {
		return
	}
	hash := domain.AddressHash(addr.Street, addr.City, addr.ZipCode)
	if _, found, err := s.addresses.FindByHash(ctx, userID, hash); err != nil || found {
		if err != nil {
			s.logger(ctx, "order.address.autosave.failed", map[string]any{"user": userID, "error": err.Error()})
		}
		return
	}
	_, err := s.addresses.Upsert(ctx, userID, nil, domain.Address{
		Type:    domain.AddressTypeHome,
		Name:    addr.Name,
		Street:  addr.Street,
		City:    addr.City,
		State:   addr.State,
		ZipCode: addr.ZipCode,
		Country: addr.Country,
		Phone:   addr.Phone,
	})
	if err != nil {
		s.logger(ctx, "order.address.autosave.failed", map[string]any{"user": userID, "error": err.Error()})
	}
}

func (s *orderService) generateOrderNumber(ctx context.Context, now time.Time) (string, error) {
	seq, err := s.counters.Next(ctx, orderNumberCounter, 1)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("LM-%04d-%06d", now.Year(), seq), nil
}

func (s *orderService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrOrderConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("order: repository unavailable: %w", err)
		}
	}
	return err
}

func isRepoNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

func (s *orderService) publishEvent(ctx context.Context, event OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "order.event.publish.failed", map[string]any{
			"type":  event.Type,
			"order": event.OrderID,
			"error": err.Error(),
		})
	}
}

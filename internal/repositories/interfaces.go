package repositories

import (
	"context"
	"time"

	"github.com/lumenmart/api/internal/domain"
)

// RepositoryError classifies persistence failures so services can map them to
// caller-facing error kinds without importing storage packages.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// OrderListFilter narrows order listings.
type OrderListFilter struct {
	UserID     string
	Status     []domain.OrderStatus
	CreatedGTE *time.Time
	CreatedLT  *time.Time
	Pagination domain.Pagination
}

// OrderMutator applies an in-place change to an order inside a transaction.
// Returning an error aborts the write.
type OrderMutator func(order *domain.Order) error

// OrderRepository persists order aggregates.
type OrderRepository interface {
	// Create inserts a new order document; conflicts on duplicate ID.
	Create(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	// Mutate re-reads the order inside a transaction, applies fn, and writes
	// the result. The optimistic transaction retries on contention, so
	// concurrent mutations serialise instead of dropping history entries.
	Mutate(ctx context.Context, orderID string, fn OrderMutator) (domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) (domain.CursorPage[domain.Order], error)
}

// UserRepository persists registered and guest-provisioned users.
type UserRepository interface {
	FindByID(ctx context.Context, userID string) (domain.User, error)
	// FindByEmail matches case-insensitively on the normalised email.
	FindByEmail(ctx context.Context, email string) (domain.User, bool, error)
	// Create inserts the user and claims the email; conflicts when the email
	// is already taken.
	Create(ctx context.Context, user domain.User) error
}

// AddressRepository persists user-owned saved addresses.
type AddressRepository interface {
	List(ctx context.Context, userID string) ([]domain.Address, error)
	Get(ctx context.Context, userID, addressID string) (domain.Address, error)
	// Upsert writes the address, deduplicating by normalised hash and keeping
	// at most one default per user.
	Upsert(ctx context.Context, userID string, addressID *string, addr domain.Address) (domain.Address, error)
	Delete(ctx context.Context, userID, addressID string) error
	FindByHash(ctx context.Context, userID, hash string) (domain.Address, bool, error)
}

// CounterRepository issues monotonically increasing sequence values used for
// human-readable order numbers.
type CounterRepository interface {
	Next(ctx context.Context, counterID string, step int64) (int64, error)
}

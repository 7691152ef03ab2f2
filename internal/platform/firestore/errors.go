package firestore

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind buckets a Firestore failure into the classification the order, user,
// address and counter repositories report upward.
type Kind int

const (
	KindUnknown Kind = iota
	// KindNotFound covers missing order/user/address documents.
	KindNotFound
	// KindConflict covers duplicate document ids, claimed guest emails and
	// transaction contention that exhausted its retries.
	KindConflict
	// KindUnavailable covers transient backend trouble worth retrying.
	KindUnavailable
)

// Error implements repositories.RepositoryError. Op names the repository
// operation that failed, e.g. "orders.mutate" or "users.create".
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap keeps the cause chain intact so sentinel errors raised inside
// transaction callbacks still match errors.Is at the service layer.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *Error) IsNotFound() bool { return e != nil && e.Kind == KindNotFound }

func (e *Error) IsConflict() bool { return e != nil && e.Kind == KindConflict }

func (e *Error) IsUnavailable() bool { return e != nil && e.Kind == KindUnavailable }

// classify maps gRPC status codes onto repository kinds. Aborted and
// FailedPrecondition count as conflicts because the optimistic transaction
// runner surfaces exhausted contention retries through them.
func classify(code codes.Code) Kind {
	switch code {
	case codes.NotFound:
		return KindNotFound
	case codes.AlreadyExists, codes.FailedPrecondition, codes.Aborted, codes.OutOfRange:
		return KindConflict
	case codes.Unavailable, codes.ResourceExhausted, codes.Internal, codes.DeadlineExceeded:
		return KindUnavailable
	default:
		return KindUnknown
	}
}

// WrapError classifies err under op for the repository layer. Context
// cancellation and deadline expiry pass through untouched so handlers can
// map them to timeouts; errors already classified keep their kind.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	code := status.Code(err)
	switch code {
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	}

	var classified *Error
	if errors.As(err, &classified) {
		if classified.Op == "" {
			classified.Op = op
		}
		return classified
	}
	return &Error{Op: op, Kind: classify(code), Err: err}
}

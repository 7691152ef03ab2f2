package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	cloudfirestore "cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/lumenmart/api/internal/repositories"
)

func TestWrapErrorClassifiesStatusCodes(t *testing.T) {
	cases := []struct {
		code        codes.Code
		notFound    bool
		conflict    bool
		unavailable bool
	}{
		{code: codes.NotFound, notFound: true},
		{code: codes.AlreadyExists, conflict: true},
		{code: codes.Aborted, conflict: true},
		{code: codes.FailedPrecondition, conflict: true},
		{code: codes.Unavailable, unavailable: true},
		{code: codes.ResourceExhausted, unavailable: true},
		{code: codes.PermissionDenied},
	}

	for _, tc := range cases {
		err := WrapError("orders.mutate", status.Error(tc.code, "backend"))

		var repoErr repositories.RepositoryError
		if !errors.As(err, &repoErr) {
			t.Fatalf("%s: not a repository error: %v", tc.code, err)
		}
		if repoErr.IsNotFound() != tc.notFound {
			t.Fatalf("%s: IsNotFound = %v", tc.code, repoErr.IsNotFound())
		}
		if repoErr.IsConflict() != tc.conflict {
			t.Fatalf("%s: IsConflict = %v", tc.code, repoErr.IsConflict())
		}
		if repoErr.IsUnavailable() != tc.unavailable {
			t.Fatalf("%s: IsUnavailable = %v", tc.code, repoErr.IsUnavailable())
		}
	}
}

func TestWrapErrorNamesOperation(t *testing.T) {
	err := WrapError("users.create", status.Error(codes.AlreadyExists, "email claimed"))
	if !strings.HasPrefix(err.Error(), "users.create:") {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestWrapErrorKeepsSentinelChain(t *testing.T) {
	sentinel := errors.New("order status: no change")
	wrapped := WrapError("orders.mutate", fmt.Errorf("apply transition: %w", sentinel))

	if !errors.Is(wrapped, sentinel) {
		t.Fatalf("sentinel lost through classification: %v", wrapped)
	}
}

func TestWrapErrorPassesThroughContextErrors(t *testing.T) {
	if err := WrapError("orders.get", context.Canceled); !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled became %v", err)
	}
	if err := WrapError("orders.get", status.Error(codes.DeadlineExceeded, "deadline")); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("deadline became %v", err)
	}
}

func TestWrapErrorDoesNotReclassify(t *testing.T) {
	inner := &Error{Kind: KindNotFound, Err: errors.New("no such document")}
	wrapped := WrapError("transaction", fmt.Errorf("tx: %w", inner))

	var repoErr repositories.RepositoryError
	if !errors.As(wrapped, &repoErr) || !repoErr.IsNotFound() {
		t.Fatalf("classification lost: %v", wrapped)
	}
	var classified *Error
	if !errors.As(wrapped, &classified) || classified.Op != "transaction" {
		t.Fatalf("op not filled in: %+v", classified)
	}
}

func TestRunTransactionRequiresClient(t *testing.T) {
	fn := TxFunc(func(context.Context, *cloudfirestore.Transaction) error { return nil })
	if err := RunTransaction(context.Background(), nil, fn); err == nil {
		t.Fatal("expected error for nil client")
	}
}

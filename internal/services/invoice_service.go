package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/lumenmart/api/internal/repositories"
)

// ErrInvoiceNotFound indicates no invoice document exists for the order.
var ErrInvoiceNotFound = errors.New("invoice: not found")

// InvoiceServiceDeps bundles collaborators for the invoice service.
type InvoiceServiceDeps struct {
	Orders repositories.OrderRepository
	Bucket *storage.BucketHandle
}

// invoiceService streams invoice PDFs produced by the external billing
// collaborator out of object storage.
type invoiceService struct {
	orders repositories.OrderRepository
	bucket *storage.BucketHandle
}

// NewInvoiceService wires dependencies into an InvoiceService.
func NewInvoiceService(deps InvoiceServiceDeps) (InvoiceService, error) {
	if deps.Orders == nil {
		return nil, errors.New("invoice service: order repository is required")
	}
	if deps.Bucket == nil {
		return nil, errors.New("invoice service: storage bucket is required")
	}
	return &invoiceService{orders: deps.Orders, bucket: deps.Bucket}, nil
}

func (s *invoiceService) Fetch(ctx context.Context, orderID string) (io.ReadCloser, int64, error) {
	id := strings.TrimSpace(orderID)
	if id == "" {
		return nil, 0, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	// The order must exist even when its invoice has not been rendered yet,
	// so missing orders and missing invoices report differently.
	if _, err := s.orders.FindByID(ctx, id); err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return nil, 0, fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		}
		return nil, 0, err
	}

	object := s.bucket.Object(invoiceObjectName(id))
	reader, err := object.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, 0, fmt.Errorf("%w: order %s", ErrInvoiceNotFound, id)
		}
		return nil, 0, fmt.Errorf("invoice: open object: %w", err)
	}
	return reader, reader.Attrs.Size, nil
}

func invoiceObjectName(orderID string) string {
	return "invoices/" + orderID + ".pdf"
}

package firestore

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lumenmart/api/internal/domain"
)

func TestOrderCursorRoundTrip(t *testing.T) {
	cursor := orderCursor{
		CreatedAt: time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC),
		ID:        "ord_01HZXK2V9QW4R8T6Y3N5M7P0AB",
	}

	token, err := encodeOrderCursor(cursor)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := decodeOrderCursor(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !decoded.CreatedAt.Equal(cursor.CreatedAt) || decoded.ID != cursor.ID {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
}

func TestDecodeOrderCursorRejectsGarbage(t *testing.T) {
	if _, err := decodeOrderCursor("not base64!!"); err == nil {
		t.Fatal("expected error for malformed token")
	}
	if _, err := decodeOrderCursor("bm90IGpzb24"); err == nil {
		t.Fatal("expected error for non-JSON payload")
	}
}

func TestEncodeOrderDocumentPreservesSubCentPrecision(t *testing.T) {
	tax := decimal.RequireFromString("5.0005")
	total := decimal.RequireFromString("105.0105")
	order := domain.Order{
		ID:          "ord_test",
		OrderNumber: "LM-2026-000042",
		Items: []domain.OrderItem{{
			ProductRef: "prod_1",
			Name:       "Widget",
			UnitPrice:  decimal.RequireFromString("50.005"),
			Quantity:   2,
			LineTotal:  decimal.RequireFromString("100.01"),
		}},
		Totals: domain.OrderTotals{
			Subtotal: decimal.RequireFromString("100.01"),
			Shipping: decimal.Zero,
			Tax:      tax,
			Discount: decimal.Zero,
			Total:    total,
		},
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
		CreatedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	doc, err := encodeOrderDocument(order)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if doc.Tax != "5.0005" {
		t.Fatalf("tax persisted as %q, want the exact decimal string", doc.Tax)
	}
	if doc.TotalAmount != "105.0105" {
		t.Fatalf("totalAmount persisted as %q", doc.TotalAmount)
	}
	if doc.Items[0].UnitPrice != "50.005" {
		t.Fatalf("unitPrice persisted as %q", doc.Items[0].UnitPrice)
	}

	parsed, err := parseMoney(doc.Tax, "tax", order.ID)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.Equal(tax) {
		t.Fatalf("tax round trip lost precision: %s", parsed)
	}
}

func TestParseMoney(t *testing.T) {
	value, err := parseMoney("", "subtotal", "ord_x")
	if err != nil {
		t.Fatalf("empty field: %v", err)
	}
	if !value.IsZero() {
		t.Fatalf("empty field = %s, want 0", value)
	}

	if _, err := parseMoney("not-a-number", "tax", "ord_x"); err == nil {
		t.Fatal("expected error for malformed decimal")
	}
}

package services

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/lumenmart/api/internal/domain"
)

func cartPolicyFixture() CheckoutPolicy {
	return CheckoutPolicy{
		FreeShippingThreshold: decimal.NewFromInt(100),
		FlatShippingFee:       decimal.NewFromInt(10),
		TaxRate:               decimal.RequireFromString("0.05"),
	}
}

func TestComputeTotalsAtThresholdChargesShipping(t *testing.T) {
	items := []domain.CartItem{
		{ProductRef: "prod_1", Name: "Mug", UnitPrice: decimal.RequireFromString("25.00"), Quantity: 4},
	}

	breakdown, lines, err := ComputeTotals(items, cartPolicyFixture(), decimal.Zero)
	if err != nil {
		t.Fatalf("ComputeTotals returned error: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if got := breakdown.Subtotal; !got.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("subtotal = %s, want 100.00", got)
	}
	if got := breakdown.Shipping; !got.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("shipping = %s, want 10; threshold comparison must be strict", got)
	}
	if got := breakdown.Tax; !got.Equal(decimal.RequireFromString("5.00")) {
		t.Fatalf("tax = %s, want 5.00", got)
	}
	if got := breakdown.Total; !got.Equal(decimal.RequireFromString("115.00")) {
		t.Fatalf("total = %s, want 115.00", got)
	}
}

func TestComputeTotalsAboveThresholdKeepsSubCentTax(t *testing.T) {
	items := []domain.CartItem{
		{ProductRef: "prod_1", Name: "Mug", UnitPrice: decimal.RequireFromString("100.01"), Quantity: 1},
	}

	breakdown, _, err := ComputeTotals(items, cartPolicyFixture(), decimal.Zero)
	if err != nil {
		t.Fatalf("ComputeTotals returned error: %v", err)
	}
	if got := breakdown.Shipping; !got.IsZero() {
		t.Fatalf("shipping = %s, want 0 above threshold", got)
	}
	if got := breakdown.Tax; !got.Equal(decimal.RequireFromString("5.0005")) {
		t.Fatalf("tax = %s, want 5.0005 unrounded", got)
	}
	if got := breakdown.Total; !got.Equal(decimal.RequireFromString("105.0105")) {
		t.Fatalf("total = %s, want 105.0105", got)
	}
}

func TestComputeTotalsIsDeterministic(t *testing.T) {
	items := []domain.CartItem{
		{ProductRef: "prod_1", Name: "Mug", UnitPrice: decimal.RequireFromString("19.99"), Quantity: 3},
		{ProductRef: "prod_2", Name: "Poster", UnitPrice: decimal.RequireFromString("7.45"), Quantity: 2},
	}
	policy := cartPolicyFixture()

	first, _, err := ComputeTotals(items, policy, decimal.Zero)
	if err != nil {
		t.Fatalf("ComputeTotals returned error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, _, err := ComputeTotals(items, policy, decimal.Zero)
		if err != nil {
			t.Fatalf("ComputeTotals returned error on run %d: %v", i, err)
		}
		if !again.Total.Equal(first.Total) || !again.Tax.Equal(first.Tax) || !again.Shipping.Equal(first.Shipping) {
			t.Fatalf("run %d diverged: %+v vs %+v", i, again, first)
		}
	}
}

func TestComputeTotalsAppliesDiscount(t *testing.T) {
	items := []domain.CartItem{
		{ProductRef: "prod_1", Name: "Mug", UnitPrice: decimal.NewFromInt(50), Quantity: 1},
	}

	breakdown, _, err := ComputeTotals(items, cartPolicyFixture(), decimal.NewFromInt(5))
	if err != nil {
		t.Fatalf("ComputeTotals returned error: %v", err)
	}
	// 50 - 5 + 10 + 2.5
	if got := breakdown.Total; !got.Equal(decimal.RequireFromString("57.5")) {
		t.Fatalf("total = %s, want 57.5", got)
	}
}

func TestComputeTotalsRejectsBadInput(t *testing.T) {
	policy := cartPolicyFixture()

	if _, _, err := ComputeTotals(nil, policy, decimal.Zero); !errors.Is(err, ErrPricingInvalidInput) {
		t.Fatalf("empty items: got %v, want ErrPricingInvalidInput", err)
	}

	items := []domain.CartItem{{ProductRef: "prod_1", UnitPrice: decimal.NewFromInt(5), Quantity: 0}}
	if _, _, err := ComputeTotals(items, policy, decimal.Zero); !errors.Is(err, ErrPricingInvalidInput) {
		t.Fatalf("zero quantity: got %v, want ErrPricingInvalidInput", err)
	}

	items = []domain.CartItem{{ProductRef: "prod_1", UnitPrice: decimal.NewFromInt(-1), Quantity: 1}}
	if _, _, err := ComputeTotals(items, policy, decimal.Zero); !errors.Is(err, ErrPricingInvalidInput) {
		t.Fatalf("negative price: got %v, want ErrPricingInvalidInput", err)
	}
}

func TestComputeTotalsSnapshotsLineItems(t *testing.T) {
	items := []domain.CartItem{
		{ProductRef: "prod_1", Name: "Mug", UnitPrice: decimal.RequireFromString("12.50"), Quantity: 2, Image: "mug.png"},
	}

	_, lines, err := ComputeTotals(items, cartPolicyFixture(), decimal.Zero)
	if err != nil {
		t.Fatalf("ComputeTotals returned error: %v", err)
	}
	line := lines[0]
	if line.Name != "Mug" || line.Image != "mug.png" {
		t.Fatalf("snapshot lost fields: %+v", line)
	}
	if !line.LineTotal.Equal(decimal.RequireFromString("25.00")) {
		t.Fatalf("line total = %s, want 25.00", line.LineTotal)
	}
}

package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/lumenmart/api/internal/domain"
)

// ErrPricingInvalidInput signals a cart that cannot be priced.
var ErrPricingInvalidInput = errors.New("pricing: invalid input")

// CheckoutPolicy parameterises the totals calculation. Authenticated cart
// checkout and guest checkout carry different thresholds and rates.
type CheckoutPolicy struct {
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
	TaxRate               decimal.Decimal
}

// ComputeTotals prices the line items under the policy. The same items and
// policy always produce the same breakdown; no rounding is applied, so tax
// keeps sub-cent precision until presentation.
func ComputeTotals(items []domain.CartItem, policy CheckoutPolicy, discount decimal.Decimal) (TotalsBreakdown, []domain.OrderItem, error) {
	if len(items) == 0 {
		return TotalsBreakdown{}, nil, fmt.Errorf("%w: at least one item is required", ErrPricingInvalidInput)
	}

	subtotal := decimal.Zero
	lines := make([]domain.OrderItem, 0, len(items))
	for i, item := range items {
		if item.Quantity <= 0 {
			return TotalsBreakdown{}, nil, fmt.Errorf("%w: item %d quantity must be positive", ErrPricingInvalidInput, i)
		}
		if item.UnitPrice.IsNegative() {
			return TotalsBreakdown{}, nil, fmt.Errorf("%w: item %d unit price must not be negative", ErrPricingInvalidInput, i)
		}
		lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		lines = append(lines, domain.OrderItem{
			ProductRef: item.ProductRef,
			Name:       item.Name,
			UnitPrice:  item.UnitPrice,
			Quantity:   item.Quantity,
			LineTotal:  lineTotal,
			Image:      item.Image,
		})
	}

	if discount.IsNegative() {
		return TotalsBreakdown{}, nil, fmt.Errorf("%w: discount must not be negative", ErrPricingInvalidInput)
	}

	// Free shipping requires strictly exceeding the threshold; an exactly
	// threshold-valued subtotal still pays the flat fee.
	shipping := policy.FlatShippingFee
	if subtotal.GreaterThan(policy.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	tax := subtotal.Mul(policy.TaxRate)
	total := subtotal.Sub(discount).Add(shipping).Add(tax)

	return TotalsBreakdown{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Discount: discount,
		Total:    total,
	}, lines, nil
}

// ToOrderTotals converts a breakdown into the persisted totals shape.
func (b TotalsBreakdown) ToOrderTotals() domain.OrderTotals {
	return domain.OrderTotals{
		Subtotal: b.Subtotal,
		Shipping: b.Shipping,
		Tax:      b.Tax,
		Discount: b.Discount,
		Total:    b.Total,
	}
}

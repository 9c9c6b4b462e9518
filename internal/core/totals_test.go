package core_test

import (
	"errors"
	"testing"

	"billflow/internal/core"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func item(qty int64, unitPrice string, taxable bool) core.LineItem {
	return core.LineItem{Name: "item", Qty: qty, UnitPrice: d(unitPrice), Taxable: taxable}
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name      string
		items     []core.LineItem
		taxRate   string
		discount  string
		subtotal  string
		taxTotal  string
		discTotal string
		grand     string
		expectErr bool
	}{
		{
			name:     "single taxable line, 10% tax",
			items:    []core.LineItem{item(2, "50", true)},
			taxRate:  "10", discount: "0",
			subtotal: "100", taxTotal: "10", discTotal: "0", grand: "110",
		},
		{
			name:     "tax applies only to taxable subset",
			items:    []core.LineItem{item(1, "100", true), item(1, "100", false)},
			taxRate:  "10", discount: "0",
			subtotal: "200", taxTotal: "10", discTotal: "0", grand: "210",
		},
		{
			// Discount is computed on the full subtotal while tax only covers
			// the taxable subset; the discount does not reduce the tax base.
			name:     "discount on full subtotal does not shrink tax base",
			items:    []core.LineItem{item(1, "100", true), item(1, "100", false)},
			taxRate:  "10", discount: "50",
			subtotal: "200", taxTotal: "10", discTotal: "100", grand: "110",
		},
		{
			name:     "no tax no discount",
			items:    []core.LineItem{item(3, "19.99", false)},
			taxRate:  "0", discount: "0",
			subtotal: "59.97", taxTotal: "0", discTotal: "0", grand: "59.97",
		},
		{
			name:     "half-cent tax rounds up",
			items:    []core.LineItem{item(1, "0.05", true)},
			taxRate:  "10", discount: "0",
			subtotal: "0.05", taxTotal: "0.01", discTotal: "0", grand: "0.06",
		},
		{
			name:     "fractional discount rounds half-up",
			items:    []core.LineItem{item(1, "33.35", false)},
			taxRate:  "0", discount: "15",
			subtotal: "33.35", taxTotal: "0", discTotal: "5.00", grand: "28.35",
		},
		{
			name:      "empty line items",
			items:     nil,
			taxRate:   "10", discount: "0",
			expectErr: true,
		},
		{
			name:      "zero quantity",
			items:     []core.LineItem{item(0, "10", true)},
			taxRate:   "10", discount: "0",
			expectErr: true,
		},
		{
			name:      "negative unit price",
			items:     []core.LineItem{item(1, "-5", true)},
			taxRate:   "10", discount: "0",
			expectErr: true,
		},
		{
			name:      "tax rate above 100",
			items:     []core.LineItem{item(1, "10", true)},
			taxRate:   "101", discount: "0",
			expectErr: true,
		},
		{
			name:      "negative discount",
			items:     []core.LineItem{item(1, "10", true)},
			taxRate:   "0", discount: "-1",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			totals, err := core.ComputeTotals(tt.items, d(tt.taxRate), d(tt.discount))
			if tt.expectErr {
				if err == nil {
					t.Fatalf("expected error, got totals %+v", totals)
				}
				var vErr *core.ValidationError
				if !errors.As(err, &vErr) {
					t.Errorf("expected ValidationError, got %T: %v", err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			check := func(label string, got decimal.Decimal, want string) {
				if !got.Equal(d(want)) {
					t.Errorf("%s = %s, want %s", label, got, want)
				}
			}
			check("subtotal", totals.Subtotal, tt.subtotal)
			check("taxTotal", totals.TaxTotal, tt.taxTotal)
			check("discountTotal", totals.DiscountTotal, tt.discTotal)
			check("grandTotal", totals.GrandTotal, tt.grand)
		})
	}
}

func TestComputeTotals_OrderIndependent(t *testing.T) {
	items := []core.LineItem{
		item(2, "50", true),
		item(1, "19.99", false),
		item(7, "3.33", true),
	}
	forward, err := core.ComputeTotals(items, d("8.25"), d("5"))
	if err != nil {
		t.Fatalf("forward: %v", err)
	}

	reversed := []core.LineItem{items[2], items[1], items[0]}
	backward, err := core.ComputeTotals(reversed, d("8.25"), d("5"))
	if err != nil {
		t.Fatalf("backward: %v", err)
	}

	if !forward.GrandTotal.Equal(backward.GrandTotal) ||
		!forward.TaxTotal.Equal(backward.TaxTotal) ||
		!forward.DiscountTotal.Equal(backward.DiscountTotal) ||
		!forward.Subtotal.Equal(backward.Subtotal) {
		t.Errorf("permuting line items changed totals: %+v vs %+v", forward, backward)
	}
}

func TestBalanceAfter_FlooredAtZero(t *testing.T) {
	if got := core.BalanceAfter(d("110"), d("50")); !got.Equal(d("60")) {
		t.Errorf("BalanceAfter(110, 50) = %s, want 60", got)
	}
	if got := core.BalanceAfter(d("110"), d("110")); !got.IsZero() {
		t.Errorf("BalanceAfter(110, 110) = %s, want 0", got)
	}
	if got := core.BalanceAfter(d("110"), d("120")); !got.IsZero() {
		t.Errorf("BalanceAfter(110, 120) = %s, want 0", got)
	}
}

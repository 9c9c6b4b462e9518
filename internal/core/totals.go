package core

import "github.com/shopspring/decimal"

var oneHundred = decimal.NewFromInt(100)

// Totals holds the derived monetary state of an invoice before any payments.
type Totals struct {
	Subtotal      decimal.Decimal
	TaxTotal      decimal.Decimal
	DiscountTotal decimal.Decimal
	GrandTotal    decimal.Decimal
}

// ComputeTotals derives subtotal, tax, discount, and grand total from line
// items and percentage rates. Pure: no I/O, deterministic, order-independent.
//
// Tax applies only to lines marked taxable; the discount applies to the full
// subtotal and does not reduce the tax base.
//
// Rounding policy: line extensions are kept exact, each derived total is
// rounded half-up to 2 decimal places, and the grand total is the sum of the
// rounded components.
func ComputeTotals(items []LineItem, taxRate, discount decimal.Decimal) (Totals, error) {
	if len(items) == 0 {
		return Totals{}, validationf("invoice must have at least one line item")
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(oneHundred) {
		return Totals{}, validationf("tax rate must be between 0 and 100, got %s", taxRate)
	}
	if discount.IsNegative() || discount.GreaterThan(oneHundred) {
		return Totals{}, validationf("discount must be between 0 and 100, got %s", discount)
	}

	var subtotal, taxableBase decimal.Decimal
	for i, item := range items {
		if item.Qty < 1 {
			return Totals{}, validationf("line %d: quantity must be at least 1, got %d", i+1, item.Qty)
		}
		if item.UnitPrice.IsNegative() {
			return Totals{}, validationf("line %d: unit price must not be negative, got %s", i+1, item.UnitPrice)
		}
		ext := item.UnitPrice.Mul(decimal.NewFromInt(item.Qty))
		subtotal = subtotal.Add(ext)
		if item.Taxable {
			taxableBase = taxableBase.Add(ext)
		}
	}

	t := Totals{
		Subtotal:      subtotal.Round(2),
		TaxTotal:      taxableBase.Mul(taxRate).Div(oneHundred).Round(2),
		DiscountTotal: subtotal.Mul(discount).Div(oneHundred).Round(2),
	}
	t.GrandTotal = t.Subtotal.Add(t.TaxTotal).Sub(t.DiscountTotal)
	return t, nil
}

// BalanceAfter returns the balance due once paid has been applied against
// grand, floored at zero.
func BalanceAfter(grand, paid decimal.Decimal) decimal.Decimal {
	balance := grand.Sub(paid)
	if balance.IsNegative() {
		return decimal.Zero
	}
	return balance
}

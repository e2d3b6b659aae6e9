// Package checkout implements the order pricing breakdown: items total,
// shipping, percentage discount, and tax. All functions are pure.
package checkout

import "github.com/shopspring/decimal"

var (
	hundred = decimal.NewFromInt(100)

	// taxRate is the fixed tax applied to the discounted subtotal plus
	// shipping. Not configurable per call.
	taxRate = decimal.RequireFromString("0.10")
)

// DefaultShippingRule is the storefront's standard shipping policy: a flat
// rate waived once the items total reaches the free-shipping threshold.
var DefaultShippingRule = ShippingRule{
	FlatRate:      decimal.NewFromInt(8000),
	FreeThreshold: decimal.NewFromInt(100000),
}

// LineItem is a single priced cart entry.
type LineItem struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// ShippingRule is a flat shipping fee waived at or above FreeThreshold.
type ShippingRule struct {
	FlatRate      decimal.Decimal
	FreeThreshold decimal.Decimal
}

// Breakdown is the full pricing result for an order. The invariant
// OrderTotal = ItemsTotal - Discount + Shipping + Tax holds exactly, with
// every component rounded to 2 decimal places.
type Breakdown struct {
	ItemsTotal decimal.Decimal
	Shipping   decimal.Decimal
	Discount   decimal.Decimal
	Tax        decimal.Decimal
	OrderTotal decimal.Decimal
}

// ComputeTotals prices a cart. discountPercent is clamped to [0,100].
// A non-nil shippingOverride bypasses the rule entirely.
//
// Negative unit prices are not validated here; callers own input sanity.
func ComputeTotals(items []LineItem, discountPercent decimal.Decimal, shippingOverride *decimal.Decimal, rule ShippingRule) Breakdown {
	itemsTotal := decimal.Zero
	for _, it := range items {
		line := it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		itemsTotal = itemsTotal.Add(line)
	}
	itemsTotal = itemsTotal.Round(2)

	shipping := ComputeShipping(itemsTotal, rule)
	if shippingOverride != nil {
		shipping = shippingOverride.Round(2)
	}

	discount := itemsTotal.Mul(ClampPercent(discountPercent)).Div(hundred).Round(2)

	taxable := itemsTotal.Sub(discount).Add(shipping)
	tax := taxable.Mul(taxRate).Round(2)

	return Breakdown{
		ItemsTotal: itemsTotal,
		Shipping:   shipping,
		Discount:   discount,
		Tax:        tax,
		OrderTotal: itemsTotal.Sub(discount).Add(shipping).Add(tax).Round(2),
	}
}

// ComputeShipping returns zero when itemsTotal meets the free threshold
// (boundary inclusive), otherwise the flat rate.
func ComputeShipping(itemsTotal decimal.Decimal, rule ShippingRule) decimal.Decimal {
	if itemsTotal.GreaterThanOrEqual(rule.FreeThreshold) {
		return decimal.Zero
	}
	return rule.FlatRate.Round(2)
}

// ClampPercent clamps a discount percentage to the [0,100] range.
func ClampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

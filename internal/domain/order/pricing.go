package order

import "github.com/shopspring/decimal"

// Policy holds the checkout pricing rules. Amounts are whole rupees.
type Policy struct {
	// Orders whose subtotal strictly exceeds the threshold ship free.
	FreeShippingThreshold int64
	ShippingFee           int64
	TaxRate               decimal.Decimal
}

// DefaultPolicy returns the storefront pricing rules: free shipping above
// 2000, otherwise 99, and 5% tax.
func DefaultPolicy() Policy {
	return Policy{
		FreeShippingThreshold: 2000,
		ShippingFee:           99,
		TaxRate:               decimal.RequireFromString("0.05"),
	}
}

// Shipping returns the shipping charge for subtotal.
func (p Policy) Shipping(subtotal int64) int64 {
	if subtotal > p.FreeShippingThreshold {
		return 0
	}
	return p.ShippingFee
}

// Tax returns subtotal times the tax rate, rounded half away from zero to
// whole rupees.
func (p Policy) Tax(subtotal int64) int64 {
	return decimal.NewFromInt(subtotal).Mul(p.TaxRate).Round(0).IntPart()
}

// Summary is the priced view of a cart.
type Summary struct {
	Subtotal  int64
	Shipping  int64
	Tax       int64
	Total     int64
	ItemCount int
	// FreeShippingGap is the smallest amount that, added to the subtotal,
	// removes the shipping charge. Zero when shipping is already free.
	FreeShippingGap int64
}

// Summarize prices a cart with the given subtotal and item count.
func (p Policy) Summarize(subtotal int64, itemCount int) Summary {
	s := Summary{
		Subtotal:  subtotal,
		Shipping:  p.Shipping(subtotal),
		Tax:       p.Tax(subtotal),
		ItemCount: itemCount,
	}
	s.Total = s.Subtotal + s.Shipping + s.Tax
	if s.Shipping > 0 {
		s.FreeShippingGap = p.FreeShippingThreshold + 1 - subtotal
	}
	return s
}

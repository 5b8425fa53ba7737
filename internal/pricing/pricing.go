// Package pricing selects role-specific unit prices and computes cart totals.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/greengrocer/storefront/internal/auth"
)

var (
	// TaxRate is applied to the cart subtotal.
	TaxRate = decimal.RequireFromString("0.07")
	// FreeShippingThreshold is the subtotal above which shipping is waived.
	FreeShippingThreshold = decimal.NewFromInt(100)
	// ShippingFee is charged when the subtotal does not exceed the threshold.
	ShippingFee = decimal.NewFromInt(10)
)

// Prices are the price columns carried by every product.
type Prices struct {
	Retail    float64
	Wholesale float64
	// Original is the pre-discount reference price; zero when absent.
	Original float64
}

// Line is one priced cart or order line.
type Line struct {
	Prices   Prices
	Quantity int
}

// Totals summarises a cart for a given role.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Shipping float64 `json:"shipping"`
	Total    float64 `json:"total"`
}

// Warning flags a product whose wholesale price exceeds its retail price.
type Warning struct {
	ProductID      int64   `json:"productId"`
	Name           string  `json:"name"`
	RetailPrice    float64 `json:"retailPrice"`
	WholesalePrice float64 `json:"wholesalePrice"`
	Message        string  `json:"message"`
}

// UnitPrice returns the wholesale price for wholesale customers and the
// retail price for everyone else.
func UnitPrice(p Prices, role auth.Role) float64 {
	if role == auth.RoleWholesale {
		return p.Wholesale
	}
	return p.Retail
}

// DiscountPercent compares the role's unit price against the original price.
// The result is rounded half up and may be negative when the unit price is
// above the original.
func DiscountPercent(p Prices, role auth.Role) int {
	if p.Original <= 0 {
		return 0
	}
	orig := decimal.NewFromFloat(p.Original)
	price := decimal.NewFromFloat(UnitPrice(p, role))
	pct := orig.Sub(price).Div(orig).Mul(decimal.NewFromInt(100))
	return int(pct.Add(decimal.RequireFromString("0.5")).Floor().IntPart())
}

// LineTotal returns price × qty rounded to cents.
func LineTotal(price float64, qty int) float64 {
	return toFloat(decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(qty))))
}

// Subtotal sums the role's unit price times quantity over lines.
func Subtotal(lines []Line, role auth.Role) float64 {
	return toFloat(subtotal(lines, role))
}

// ComputeTotals returns subtotal, tax, shipping and total for lines.
func ComputeTotals(lines []Line, role auth.Role) Totals {
	sub := subtotal(lines, role)
	tax := sub.Mul(TaxRate)
	shipping := ShippingFee
	if sub.GreaterThan(FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	return Totals{
		Subtotal: toFloat(sub),
		Tax:      toFloat(tax),
		Shipping: toFloat(shipping),
		Total:    toFloat(sub.Add(tax).Add(shipping)),
	}
}

// Check returns a warning when wholesale exceeds retail, or nil.
func Check(productID int64, name string, p Prices) *Warning {
	if p.Wholesale <= p.Retail {
		return nil
	}
	return &Warning{
		ProductID:      productID,
		Name:           name,
		RetailPrice:    p.Retail,
		WholesalePrice: p.Wholesale,
		Message:        fmt.Sprintf("wholesale price %.2f exceeds retail price %.2f", p.Wholesale, p.Retail),
	}
}

func subtotal(lines []Line, role auth.Role) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		price := decimal.NewFromFloat(UnitPrice(line.Prices, role))
		sum = sum.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return sum
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

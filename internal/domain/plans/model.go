package plans

import "github.com/shopspring/decimal"

// Currency is implicit for every tier in the catalog.
const Currency = "usd"

type Plan struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	Features []string        `json:"features"`
}

// MinorUnits returns the price in cents, as the payment provider expects it.
func (p Plan) MinorUnits() int64 {
	return p.Price.Shift(2).Round(0).IntPart()
}

// FromMinorUnits is the inverse of MinorUnits: cents back to a price.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

package models

import "github.com/shopspring/decimal"

func init() {
	// Clients read prices and totals as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// LineTotal is price × quantity.
func LineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

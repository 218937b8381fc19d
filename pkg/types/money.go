package types

import "github.com/shopspring/decimal"

func init() {
	// The backend speaks JSON numbers for prices.
	decimal.MarshalJSONWithoutQuotes = true
}

// LineTotal returns unit price × quantity.
func LineTotal(price decimal.Decimal, qty int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(qty)))
}

package model

import "github.com/shopspring/decimal"

// RoundCurrency rounds a monetary amount to cents.
func RoundCurrency(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Cents converts an amount to integer cents.
func Cents(v float64) int64 {
	return decimal.NewFromFloat(v).Shift(2).Round(0).IntPart()
}

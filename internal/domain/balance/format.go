package balance

import (
	"strings"

	"github.com/shopspring/decimal"
)

// zeroDecimalCurrencies have no minor unit
var zeroDecimalCurrencies = map[string]bool{
	"JPY": true,
	"KRW": true,
	"VND": true,
	"CLP": true,
	"ISK": true,
}

// threeDecimalCurrencies use thousandths as the minor unit
var threeDecimalCurrencies = map[string]bool{
	"BHD": true,
	"KWD": true,
	"OMR": true,
	"JOD": true,
	"TND": true,
}

// Exponent returns the number of minor-unit digits of an ISO 4217 currency
func Exponent(currency string) int32 {
	code := strings.ToUpper(currency)
	switch {
	case zeroDecimalCurrencies[code]:
		return 0
	case threeDecimalCurrencies[code]:
		return 3
	}
	return 2
}

// FormatMinorUnits renders an amount in minor units as a major-unit decimal
// string, e.g. 10000 USD -> "100.00".
func FormatMinorUnits(amount int64, currency string) string {
	exp := Exponent(currency)
	return decimal.New(amount, -exp).StringFixed(exp)
}

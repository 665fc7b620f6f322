package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

var (
	ErrInvalidCurrency = errors.New("invalid_currency")
	ErrNegativeAmount  = errors.New("negative_amount")
)

var hundred = decimal.NewFromInt(100)

// Scale returns the number of minor-unit digits for an ISO 4217 code.
func Scale(code string) (int32, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return 0, ErrInvalidCurrency
	}
	scale, _ := currency.Standard.Rounding(unit)
	return int32(scale), nil
}

// Round rounds half-up (away from zero) to the currency's minor unit.
func Round(amount decimal.Decimal, code string) (decimal.Decimal, error) {
	scale, err := Scale(code)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Round(scale), nil
}

// Sum adds amounts exactly without intermediate rounding.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(amount)
	}
	return total
}

// Percent returns amount * pct / 100, rounded to the currency's minor unit.
func Percent(amount decimal.Decimal, pct int, code string) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	return Round(amount.Mul(decimal.NewFromInt(int64(pct))).Div(hundred), code)
}

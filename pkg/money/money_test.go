package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaleFollowsCurrencyMinorUnit(t *testing.T) {
	cases := map[string]int32{
		"USD": 2,
		"eur": 2,
		"JPY": 0,
		"KWD": 3,
	}
	for code, want := range cases {
		got, err := Scale(code)
		require.NoError(t, err, code)
		assert.Equal(t, want, got, code)
	}

	_, err := Scale("XX1")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestRoundIsHalfUp(t *testing.T) {
	got, err := Round(decimal.RequireFromString("10.005"), "USD")
	require.NoError(t, err)
	assert.Equal(t, "10.01", got.StringFixed(2))

	got, err = Round(decimal.RequireFromString("10.004"), "USD")
	require.NoError(t, err)
	assert.Equal(t, "10.00", got.StringFixed(2))

	got, err = Round(decimal.RequireFromString("1500.5"), "JPY")
	require.NoError(t, err)
	assert.Equal(t, "1501", got.String())
}

func TestSumRoundsOnceAtTheEnd(t *testing.T) {
	nightly := decimal.RequireFromString("33.335")
	total := Sum(nightly, nightly, nightly)

	rounded, err := Round(total, "USD")
	require.NoError(t, err)
	assert.Equal(t, "100.01", rounded.StringFixed(2))
}

func TestPercent(t *testing.T) {
	got, err := Percent(decimal.RequireFromString("199.99"), 50, "USD")
	require.NoError(t, err)
	assert.Equal(t, "100.00", got.StringFixed(2))

	_, err = Percent(decimal.NewFromInt(-1), 50, "USD")
	assert.ErrorIs(t, err, ErrNegativeAmount)
}

package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/roomledger/pkg/daterange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func rule(id int64, start, end, price string) TariffRule {
	return TariffRule{
		ID:           snowflake.ID(id),
		RoomTypeID:   1,
		StartDate:    daterange.MustParseDate(start),
		EndDate:      daterange.MustParseDate(end),
		NightlyPrice: decimal.RequireFromString(price),
		MinNights:    1,
		Active:       true,
		CreatedAt:    baseTime,
	}
}

func stay(t *testing.T, checkIn, checkOut string) daterange.Stay {
	t.Helper()
	s, err := daterange.NewStay(daterange.MustParseDate(checkIn), daterange.MustParseDate(checkOut))
	require.NoError(t, err)
	return s
}

func ruleIDs(nights []ResolvedNight) []snowflake.ID {
	ids := make([]snowflake.ID, 0, len(nights))
	for _, night := range nights {
		ids = append(ids, night.Rule.ID)
	}
	return ids
}

func TestResolveMealPlanRuleBeatsGenericRule(t *testing.T) {
	mealPlan := snowflake.ID(9)
	generic := rule(1, "2026-03-01", "2026-03-05", "100")
	specific := rule(2, "2026-01-01", "2026-12-31", "130")
	specific.MealPlanID = &mealPlan

	nights, err := Resolve([]TariffRule{generic, specific}, stay(t, "2026-03-02", "2026-03-04"), &mealPlan)
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{2, 2}, ruleIDs(nights))

	nights, err = Resolve([]TariffRule{generic, specific}, stay(t, "2026-03-02", "2026-03-04"), nil)
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{1, 1}, ruleIDs(nights))
}

func TestResolveIgnoresOtherMealPlansAndInactiveRules(t *testing.T) {
	mealPlan := snowflake.ID(9)
	other := snowflake.ID(10)
	scoped := rule(1, "2026-03-01", "2026-03-31", "90")
	scoped.MealPlanID = &other
	inactive := rule(2, "2026-03-01", "2026-03-31", "80")
	inactive.Active = false
	fallback := rule(3, "2026-01-01", "2026-12-31", "120")

	nights, err := Resolve([]TariffRule{scoped, inactive, fallback}, stay(t, "2026-03-10", "2026-03-11"), &mealPlan)
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{3}, ruleIDs(nights))
}

func TestResolveShorterSpanWins(t *testing.T) {
	season := rule(1, "2026-01-01", "2026-12-31", "100")
	festival := rule(2, "2026-03-03", "2026-03-04", "250")

	nights, err := Resolve([]TariffRule{festival, season}, stay(t, "2026-03-02", "2026-03-06"), nil)
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{1, 2, 2, 1}, ruleIDs(nights))
}

func TestResolveEqualSpansPreferLatestCreated(t *testing.T) {
	older := rule(5, "2026-03-01", "2026-03-31", "100")
	newer := rule(4, "2026-03-01", "2026-03-31", "110")
	newer.CreatedAt = baseTime.Add(time.Hour)

	nights, err := Resolve([]TariffRule{newer, older}, stay(t, "2026-03-10", "2026-03-11"), nil)
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{4}, ruleIDs(nights))
}

func TestResolveFullTieIsIndependentOfOrder(t *testing.T) {
	a := rule(11, "2026-03-01", "2026-03-31", "100")
	b := rule(12, "2026-03-01", "2026-03-31", "105")

	first, err := Resolve([]TariffRule{a, b}, stay(t, "2026-03-10", "2026-03-11"), nil)
	require.NoError(t, err)
	second, err := Resolve([]TariffRule{b, a}, stay(t, "2026-03-10", "2026-03-11"), nil)
	require.NoError(t, err)

	assert.Equal(t, []snowflake.ID{12}, ruleIDs(first))
	assert.Equal(t, ruleIDs(first), ruleIDs(second))
}

func TestResolveReportsFirstUnpricedNight(t *testing.T) {
	march := rule(1, "2026-03-01", "2026-03-02", "100")

	_, err := Resolve([]TariffRule{march}, stay(t, "2026-03-01", "2026-03-05"), nil)

	var gap *NoPriceDefinedError
	require.True(t, errors.As(err, &gap))
	assert.Equal(t, "2026-03-03", gap.Date.String())
	assert.ErrorIs(t, err, ErrNoPriceDefined)
}

func TestResolveEnforcesMinAndMaxNights(t *testing.T) {
	weekly := rule(1, "2026-03-01", "2026-03-31", "100")
	weekly.MinNights = 3

	_, err := Resolve([]TariffRule{weekly}, stay(t, "2026-03-10", "2026-03-12"), nil)
	var violation *StayLengthViolationError
	require.True(t, errors.As(err, &violation))
	assert.Equal(t, snowflake.ID(1), violation.RuleID)
	assert.Equal(t, 2, violation.Nights)
	assert.Equal(t, 3, violation.MinNights)
	assert.ErrorIs(t, err, ErrStayLengthViolated)

	_, err = Resolve([]TariffRule{weekly}, stay(t, "2026-03-10", "2026-03-13"), nil)
	assert.NoError(t, err)

	maxNights := 2
	short := rule(2, "2026-03-01", "2026-03-31", "100")
	short.MaxNights = &maxNights
	_, err = Resolve([]TariffRule{short}, stay(t, "2026-03-10", "2026-03-13"), nil)
	assert.ErrorIs(t, err, ErrStayLengthViolated)
}

func TestResolveChecksStayLengthOnlyForWinningRules(t *testing.T) {
	march := rule(1, "2026-03-01", "2026-03-31", "100")
	longStay := rule(2, "2026-01-01", "2026-12-31", "80")
	longStay.MinNights = 5

	nights, err := Resolve([]TariffRule{longStay, march}, stay(t, "2026-03-10", "2026-03-12"), nil)
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{1, 1}, ruleIDs(nights))
}

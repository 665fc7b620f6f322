package domain

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tier(id int64, days, percent int) PolicyTier {
	return PolicyTier{
		ID:                snowflake.ID(id),
		HotelID:           1,
		Name:              "tier",
		DaysBeforeCheckin: days,
		RefundPercent:     percent,
		Active:            true,
		CreatedAt:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestSelectPicksLargestThresholdNotAboveDays(t *testing.T) {
	tiers := []PolicyTier{tier(3, 7, 100), tier(1, 0, 0), tier(2, 3, 50)}

	cases := map[int]int{0: 0, 2: 0, 3: 50, 5: 50, 7: 100, 30: 100}
	for days, want := range cases {
		got := Select(tiers, days)
		require.NotNil(t, got, "days=%d", days)
		assert.Equal(t, want, got.RefundPercent, "days=%d", days)
	}
}

func TestSelectIgnoresDisplayOrderAndInactiveTiers(t *testing.T) {
	strict := tier(1, 3, 10)
	strict.DisplayOrder = 1
	generous := tier(2, 5, 80)
	generous.DisplayOrder = 9
	generous.Active = false

	got := Select([]PolicyTier{generous, strict}, 6)
	require.NotNil(t, got)
	assert.Equal(t, snowflake.ID(1), got.ID)
}

func TestSelectWithoutMatchingTier(t *testing.T) {
	assert.Nil(t, Select([]PolicyTier{tier(1, 3, 50)}, 2))
	assert.Nil(t, Select(nil, 10))
}

func TestSelectEqualThresholdsPreferNewestThenID(t *testing.T) {
	older := tier(9, 3, 40)
	newer := tier(4, 3, 60)
	newer.CreatedAt = older.CreatedAt.Add(time.Hour)

	assert.Equal(t, 60, Select([]PolicyTier{older, newer}, 3).RefundPercent)

	a := tier(5, 3, 20)
	b := tier(6, 3, 30)
	assert.Equal(t, snowflake.ID(6), Select([]PolicyTier{a, b}, 4).ID)
	assert.Equal(t, snowflake.ID(6), Select([]PolicyTier{b, a}, 4).ID)
}

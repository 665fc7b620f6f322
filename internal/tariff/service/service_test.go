package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	auditrepository "github.com/smallbiznis/roomledger/internal/audit/repository"
	auditservice "github.com/smallbiznis/roomledger/internal/audit/service"
	"github.com/smallbiznis/roomledger/internal/clock"
	"github.com/smallbiznis/roomledger/internal/config"
	"github.com/smallbiznis/roomledger/internal/errclass"
	hoteldomain "github.com/smallbiznis/roomledger/internal/hotel/domain"
	hotelrepository "github.com/smallbiznis/roomledger/internal/hotel/repository"
	hotelservice "github.com/smallbiznis/roomledger/internal/hotel/service"
	"github.com/smallbiznis/roomledger/internal/tariff/domain"
	"github.com/smallbiznis/roomledger/internal/tariff/repository"
	"github.com/smallbiznis/roomledger/pkg/daterange"
	"github.com/smallbiznis/roomledger/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type harness struct {
	db    *gorm.DB
	svc   domain.Service
	fix   dbtest.Fixture
	clock *clock.FakeClock
}

func newHarness(t *testing.T, cacheTTL time.Duration) *harness {
	t.Helper()

	conn := dbtest.Open(t)
	node := dbtest.MustNode(t)
	fix := dbtest.Seed(t, conn, node)
	log := zap.NewNop()
	fake := clock.NewFakeClock(time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:     conn,
		Log:    log,
		GenID:  node,
		Config: config.Config{CacheTTL: cacheTTL},
		Repo:   repository.Provide(),
		Hotels: hotelservice.New(hotelservice.Params{DB: conn, Log: log, Repo: hotelrepository.Provide()}),
		Audit: auditservice.New(auditservice.Params{
			DB:    conn,
			Log:   log,
			GenID: node,
			Repo:  auditrepository.Provide(),
			Clock: fake,
		}),
		Clock: fake,
	})
	return &harness{db: conn, svc: svc, fix: fix, clock: fake}
}

func (h *harness) createRule(t *testing.T, req domain.CreateRuleRequest) *domain.TariffRule {
	t.Helper()
	if req.RoomTypeID == 0 {
		req.RoomTypeID = h.fix.RoomType.ID
	}
	h.clock.Advance(time.Minute)
	rule, err := h.svc.CreateRule(context.Background(), req)
	require.NoError(t, err)
	return rule
}

func (h *harness) quote(checkIn, checkOut string, mealPlan *hoteldomain.MealPlan) (*domain.Quote, error) {
	req := domain.PriceRequest{
		RoomTypeID: h.fix.RoomType.ID,
		CheckIn:    daterange.MustParseDate(checkIn),
		CheckOut:   daterange.MustParseDate(checkOut),
	}
	if mealPlan != nil {
		req.MealPlanID = &mealPlan.ID
	}
	return h.svc.CalculateTotalPrice(context.Background(), req)
}

func span(start, end string) (daterange.Date, daterange.Date) {
	return daterange.MustParseDate(start), daterange.MustParseDate(end)
}

func TestCalculateTotalPriceSumsNightsAndRoundsOnce(t *testing.T) {
	h := newHarness(t, 0)
	start, end := span("2026-03-01", "2026-03-31")
	h.createRule(t, domain.CreateRuleRequest{
		StartDate:    start,
		EndDate:      end,
		NightlyPrice: decimal.RequireFromString("33.335"),
	})

	quote, err := h.quote("2026-03-10", "2026-03-13", nil)

	require.NoError(t, err)
	assert.Equal(t, "USD", quote.Currency)
	assert.Equal(t, 3, quote.Nights)
	require.Len(t, quote.PerNight, 3)
	assert.Equal(t, "100.01", quote.TotalPrice.StringFixed(2))
	assert.Equal(t, "2026-03-10", quote.PerNight[0].Date.String())
}

func TestCalculateTotalPriceLabelsSpecialPeriods(t *testing.T) {
	h := newHarness(t, 0)
	start, end := span("2026-01-01", "2026-12-31")
	h.createRule(t, domain.CreateRuleRequest{StartDate: start, EndDate: end, NightlyPrice: decimal.NewFromInt(100)})
	name := "Chinese New Year"
	start, end = span("2026-02-16", "2026-02-17")
	festival := h.createRule(t, domain.CreateRuleRequest{
		StartDate:         start,
		EndDate:           end,
		NightlyPrice:      decimal.NewFromInt(180),
		SpecialPeriodName: &name,
	})

	quote, err := h.quote("2026-02-15", "2026-02-18", nil)

	require.NoError(t, err)
	assert.True(t, quote.TotalPrice.Equal(decimal.NewFromInt(460)))
	assert.Empty(t, quote.PerNight[0].SpecialPeriod)
	assert.Equal(t, festival.ID, quote.PerNight[1].RuleID)
	assert.Equal(t, "Chinese New Year", quote.PerNight[1].SpecialPeriod)
	assert.Equal(t, "chinese-new-year", quote.PerNight[1].SpecialPeriodKey)
}

func TestCalculateTotalPricePrefersMealPlanRule(t *testing.T) {
	h := newHarness(t, 0)
	start, end := span("2026-03-01", "2026-03-05")
	h.createRule(t, domain.CreateRuleRequest{StartDate: start, EndDate: end, NightlyPrice: decimal.NewFromInt(100)})
	start, end = span("2026-01-01", "2026-12-31")
	h.createRule(t, domain.CreateRuleRequest{
		StartDate:    start,
		EndDate:      end,
		NightlyPrice: decimal.NewFromInt(125),
		MealPlanID:   &h.fix.MealPlan.ID,
	})

	withPlan, err := h.quote("2026-03-02", "2026-03-04", &h.fix.MealPlan)
	require.NoError(t, err)
	assert.True(t, withPlan.TotalPrice.Equal(decimal.NewFromInt(250)))

	roomOnly, err := h.quote("2026-03-02", "2026-03-04", nil)
	require.NoError(t, err)
	assert.True(t, roomOnly.TotalPrice.Equal(decimal.NewFromInt(200)))
}

func TestCalculateTotalPricePolicyGaps(t *testing.T) {
	h := newHarness(t, 0)
	start, end := span("2026-03-01", "2026-03-31")
	h.createRule(t, domain.CreateRuleRequest{StartDate: start, EndDate: end, NightlyPrice: decimal.NewFromInt(90), MinNights: 3})

	_, err := h.quote("2026-03-10", "2026-03-12", nil)
	assert.ErrorIs(t, err, domain.ErrStayLengthViolated)
	assert.Equal(t, errclass.ClassPolicyGap, errclass.Of(err))

	_, err = h.quote("2026-03-30", "2026-04-03", nil)
	var gap *domain.NoPriceDefinedError
	require.True(t, errors.As(err, &gap))
	assert.Equal(t, "2026-04-01", gap.Date.String())
}

func TestCalculateTotalPriceValidatesInput(t *testing.T) {
	h := newHarness(t, 0)

	_, err := h.quote("2026-03-10", "2026-03-10", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidStay)

	_, err = h.quote("2026-01-01", "2027-01-02", nil)
	assert.ErrorIs(t, err, domain.ErrStayTooLong)

	_, err = h.quote("2026-01-01", "2400-01-01", nil)
	assert.ErrorIs(t, err, domain.ErrStayTooLong)

	unknown := hoteldomain.MealPlan{ID: 99}
	_, err = h.quote("2026-03-10", "2026-03-11", &unknown)
	assert.ErrorIs(t, err, hoteldomain.ErrUnknownMealPlan)

	require.NoError(t, h.db.Exec(
		`INSERT INTO meal_plans (id, code, name, active, created_at) VALUES (?, ?, ?, ?, ?)`,
		101, "HB", "Half Board", false, time.Now().UTC(),
	).Error)
	inactive := hoteldomain.MealPlan{ID: 101}
	_, err = h.quote("2026-03-10", "2026-03-11", &inactive)
	assert.ErrorIs(t, err, hoteldomain.ErrInactiveMealPlan)
	assert.Equal(t, errclass.ClassInput, errclass.Of(err))
}

func TestCreateRuleInvalidatesCachedRules(t *testing.T) {
	h := newHarness(t, time.Minute)
	start, end := span("2026-01-01", "2026-12-31")
	h.createRule(t, domain.CreateRuleRequest{StartDate: start, EndDate: end, NightlyPrice: decimal.NewFromInt(100)})

	first, err := h.quote("2026-05-01", "2026-05-02", nil)
	require.NoError(t, err)
	assert.True(t, first.TotalPrice.Equal(decimal.NewFromInt(100)))

	start, end = span("2026-05-01", "2026-05-03")
	h.createRule(t, domain.CreateRuleRequest{StartDate: start, EndDate: end, NightlyPrice: decimal.NewFromInt(140)})

	second, err := h.quote("2026-05-01", "2026-05-02", nil)
	require.NoError(t, err)
	assert.True(t, second.TotalPrice.Equal(decimal.NewFromInt(140)))
}

func TestCreateRuleValidation(t *testing.T) {
	h := newHarness(t, 0)
	ctx := context.Background()
	start, end := span("2026-03-10", "2026-03-01")

	_, err := h.svc.CreateRule(ctx, domain.CreateRuleRequest{RoomTypeID: h.fix.RoomType.ID, StartDate: start, EndDate: end})
	assert.ErrorIs(t, err, domain.ErrInvalidSpan)

	start, end = span("2026-03-01", "2026-03-10")
	_, err = h.svc.CreateRule(ctx, domain.CreateRuleRequest{
		RoomTypeID:   h.fix.RoomType.ID,
		StartDate:    start,
		EndDate:      end,
		NightlyPrice: decimal.NewFromInt(-1),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	maxNights := 1
	_, err = h.svc.CreateRule(ctx, domain.CreateRuleRequest{
		RoomTypeID:   h.fix.RoomType.ID,
		StartDate:    start,
		EndDate:      end,
		NightlyPrice: decimal.NewFromInt(10),
		MinNights:    2,
		MaxNights:    &maxNights,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidStayLimits)

	rules, err := h.svc.ListRules(ctx, h.fix.RoomType.ID)
	require.NoError(t, err)
	assert.Empty(t, rules)

	var audits int64
	require.NoError(t, h.db.Table("audit_logs").Where("action = ?", "tariff.create_rule").Count(&audits).Error)
	assert.Zero(t, audits)
}

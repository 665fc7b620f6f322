package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/roomledger/internal/audit/domain"
	"github.com/smallbiznis/roomledger/internal/cache"
	"github.com/smallbiznis/roomledger/internal/clock"
	"github.com/smallbiznis/roomledger/internal/config"
	"github.com/smallbiznis/roomledger/internal/errclass"
	hoteldomain "github.com/smallbiznis/roomledger/internal/hotel/domain"
	"github.com/smallbiznis/roomledger/internal/observability/metrics"
	"github.com/smallbiznis/roomledger/internal/observability/tracing"
	"github.com/smallbiznis/roomledger/internal/tariff/domain"
	"github.com/smallbiznis/roomledger/pkg/daterange"
	"github.com/smallbiznis/roomledger/pkg/money"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Config  config.Config
	Repo    domain.Repository
	Hotels  hoteldomain.Service
	Audit   auditdomain.Service
	Redis   *redis.Client    `optional:"true"`
	Clock   clock.Clock      `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	hotels   hoteldomain.Service
	audit    auditdomain.Service
	rules    cache.Cache[[]domain.TariffRule]
	cacheTTL time.Duration
	maxStay  int
	clock    clock.Clock
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	c := p.Clock
	if c == nil {
		c = clock.SystemClock{}
	}
	log := p.Log.Named("tariff.service")
	return &Service{
		db:       p.DB,
		log:      log,
		genID:    p.GenID,
		repo:     p.Repo,
		hotels:   p.Hotels,
		audit:    p.Audit,
		rules:    cache.New[[]domain.TariffRule](p.Redis, "tariff:rules:", log),
		cacheTTL: p.Config.CacheTTL,
		maxStay:  p.Config.Inventory.StayNightsLimit(),
		clock:    c,
		metrics:  p.Metrics,
	}
}

func (s *Service) CalculateTotalPrice(ctx context.Context, req domain.PriceRequest) (*domain.Quote, error) {
	if req.RoomTypeID == 0 {
		return nil, domain.ErrInvalidRoomType
	}
	stay, err := daterange.NewStay(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, domain.ErrInvalidStay
	}
	if stay.Nights() > s.maxStay {
		return nil, domain.ErrStayTooLong
	}

	ctx, span := tracing.StartSpan(ctx, "tariff.calculate_total_price", attribute.Int("nights", stay.Nights()))
	quote, err := s.calculate(ctx, req, stay)
	tracing.EndSpan(span, err)
	s.metrics.RecordPriceQuote(ctx, outcomeOf(err))

	if errclass.Of(err) == errclass.ClassPolicyGap {
		s.reportGap(ctx, req.RoomTypeID, err)
	}
	return quote, err
}

func (s *Service) calculate(ctx context.Context, req domain.PriceRequest, stay daterange.Stay) (*domain.Quote, error) {
	if req.MealPlanID != nil {
		if _, err := s.hotels.MealPlan(ctx, *req.MealPlanID); err != nil {
			return nil, err
		}
	}
	hotel, err := s.hotels.HotelForRoomType(ctx, req.RoomTypeID)
	if err != nil {
		return nil, err
	}

	rules, err := s.activeRules(ctx, req.RoomTypeID)
	if err != nil {
		return nil, err
	}
	resolved, err := domain.Resolve(rules, stay, req.MealPlanID)
	if err != nil {
		return nil, err
	}

	perNight := make([]domain.NightPrice, 0, len(resolved))
	prices := make([]decimal.Decimal, 0, len(resolved))
	for _, night := range resolved {
		entry := domain.NightPrice{
			Date:   night.Date,
			Price:  night.Rule.NightlyPrice,
			RuleID: night.Rule.ID,
		}
		if name := night.Rule.SpecialPeriodName; name != nil && strings.TrimSpace(*name) != "" {
			entry.SpecialPeriod = strings.TrimSpace(*name)
			entry.SpecialPeriodKey = slug.Make(entry.SpecialPeriod)
		}
		perNight = append(perNight, entry)
		prices = append(prices, night.Rule.NightlyPrice)
	}

	total, err := money.Round(money.Sum(prices...), hotel.Currency)
	if err != nil {
		return nil, fmt.Errorf("round total for %s: %w", hotel.Currency, err)
	}

	return &domain.Quote{
		RoomTypeID: req.RoomTypeID,
		MealPlanID: req.MealPlanID,
		Currency:   hotel.Currency,
		Nights:     stay.Nights(),
		TotalPrice: total,
		PerNight:   perNight,
	}, nil
}

func (s *Service) activeRules(ctx context.Context, roomTypeID snowflake.ID) ([]domain.TariffRule, error) {
	key := roomTypeID.String()
	if rules, ok := s.rules.Get(ctx, key); ok {
		return rules, nil
	}
	rules, err := s.repo.ListByRoomType(ctx, s.db, roomTypeID, true)
	if err != nil {
		return nil, fmt.Errorf("list tariff rules: %w", err)
	}
	s.rules.Set(ctx, key, rules, s.cacheTTL)
	return rules, nil
}

func (s *Service) reportGap(ctx context.Context, roomTypeID snowflake.ID, err error) {
	fields := []zap.Field{
		zap.String("room_type_id", roomTypeID.String()),
		zap.String("error_code", errclass.Code(err)),
	}
	var noPrice *domain.NoPriceDefinedError
	var stayLength *domain.StayLengthViolationError
	switch {
	case errors.As(err, &noPrice):
		fields = append(fields, zap.String("date", noPrice.Date.String()))
	case errors.As(err, &stayLength):
		fields = append(fields,
			zap.String("rule_id", stayLength.RuleID.String()),
			zap.Int("nights", stayLength.Nights),
			zap.Int("min_nights", stayLength.MinNights),
		)
	}
	s.log.Warn("tariff configuration gap", fields...)
	s.metrics.RecordPolicyGap(ctx, "tariff", errclass.Code(err))
}

func (s *Service) CreateRule(ctx context.Context, req domain.CreateRuleRequest) (*domain.TariffRule, error) {
	if req.RoomTypeID == 0 {
		return nil, domain.ErrInvalidRoomType
	}
	if _, err := daterange.NewSpan(req.StartDate, req.EndDate); err != nil {
		return nil, domain.ErrInvalidSpan
	}
	if req.NightlyPrice.IsNegative() {
		return nil, domain.ErrInvalidPrice
	}
	if req.MinNights == 0 {
		req.MinNights = 1
	}
	if req.MinNights < 1 || (req.MaxNights != nil && *req.MaxNights < req.MinNights) {
		return nil, domain.ErrInvalidStayLimits
	}
	if _, err := s.hotels.RoomType(ctx, req.RoomTypeID); err != nil {
		return nil, err
	}
	if req.MealPlanID != nil {
		if _, err := s.hotels.MealPlan(ctx, *req.MealPlanID); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now()
	rule := &domain.TariffRule{
		ID:                s.genID.Generate(),
		RoomTypeID:        req.RoomTypeID,
		MealPlanID:        req.MealPlanID,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		NightlyPrice:      req.NightlyPrice,
		MinNights:         req.MinNights,
		MaxNights:         req.MaxNights,
		SpecialPeriodName: req.SpecialPeriodName,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, rule); err != nil {
			return fmt.Errorf("insert tariff rule: %w", err)
		}
		return s.audit.Record(ctx, tx, auditdomain.Entry{
			Action:     "tariff.create_rule",
			TargetType: "tariff_rule",
			TargetID:   rule.ID.String(),
			RoomTypeID: rule.RoomTypeID.String(),
			Metadata: map[string]any{
				"start_date":    rule.StartDate.String(),
				"end_date":      rule.EndDate.String(),
				"nightly_price": rule.NightlyPrice.String(),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	s.rules.Delete(ctx, req.RoomTypeID.String())
	return rule, nil
}

func (s *Service) ListRules(ctx context.Context, roomTypeID snowflake.ID) ([]domain.TariffRule, error) {
	if roomTypeID == 0 {
		return nil, domain.ErrInvalidRoomType
	}
	rules, err := s.repo.ListByRoomType(ctx, s.db, roomTypeID, false)
	if err != nil {
		return nil, fmt.Errorf("list tariff rules: %w", err)
	}
	return rules, nil
}

func outcomeOf(err error) string {
	switch errclass.Of(err) {
	case "":
		return "ok"
	case errclass.ClassPolicyGap:
		return "policy_gap"
	case errclass.ClassInput, errclass.ClassNotFound:
		return "rejected"
	default:
		return "error"
	}
}

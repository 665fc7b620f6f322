package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	auditdomain "github.com/smallbiznis/roomledger/internal/audit/domain"
	"github.com/smallbiznis/roomledger/internal/cache"
	"github.com/smallbiznis/roomledger/internal/cancellation/domain"
	"github.com/smallbiznis/roomledger/internal/clock"
	"github.com/smallbiznis/roomledger/internal/config"
	"github.com/smallbiznis/roomledger/internal/errclass"
	hoteldomain "github.com/smallbiznis/roomledger/internal/hotel/domain"
	"github.com/smallbiznis/roomledger/internal/observability/metrics"
	"github.com/smallbiznis/roomledger/pkg/daterange"
	"github.com/smallbiznis/roomledger/pkg/money"
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
	tiers    cache.Cache[[]domain.PolicyTier]
	cacheTTL time.Duration
	clock    clock.Clock
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	c := p.Clock
	if c == nil {
		c = clock.SystemClock{}
	}
	log := p.Log.Named("cancellation.service")
	return &Service{
		db:       p.DB,
		log:      log,
		genID:    p.GenID,
		repo:     p.Repo,
		hotels:   p.Hotels,
		audit:    p.Audit,
		tiers:    cache.New[[]domain.PolicyTier](p.Redis, "cancellation:tiers:", log),
		cacheTTL: p.Config.CacheTTL,
		clock:    c,
		metrics:  p.Metrics,
	}
}

func (s *Service) ResolveRefund(ctx context.Context, hotelID snowflake.ID, daysBeforeCheckin int) (*domain.Resolution, error) {
	resolution, err := s.resolve(ctx, hotelID, daysBeforeCheckin)
	s.metrics.RecordRefundResolution(ctx, outcomeOf(err))
	return resolution, err
}

func (s *Service) resolve(ctx context.Context, hotelID snowflake.ID, daysBeforeCheckin int) (*domain.Resolution, error) {
	if hotelID == 0 {
		return nil, domain.ErrInvalidHotel
	}
	if daysBeforeCheckin < 0 {
		return nil, domain.ErrNegativeDays
	}
	if _, err := s.hotels.Hotel(ctx, hotelID); err != nil {
		return nil, err
	}

	tiers, err := s.activeTiers(ctx, hotelID)
	if err != nil {
		return nil, err
	}
	tier := domain.Select(tiers, daysBeforeCheckin)
	if tier == nil {
		s.log.Warn("no cancellation tier matches",
			zap.String("hotel_id", hotelID.String()),
			zap.Int("days_before_checkin", daysBeforeCheckin),
			zap.Int("active_tiers", len(tiers)),
		)
		s.metrics.RecordPolicyGap(ctx, "cancellation", errclass.Code(domain.ErrNoPolicyDefined))
		return nil, domain.ErrNoPolicyDefined
	}

	return &domain.Resolution{
		HotelID:           hotelID,
		TierID:            tier.ID,
		TierName:          tier.Name,
		RefundPercent:     tier.RefundPercent,
		DaysBeforeCheckin: daysBeforeCheckin,
	}, nil
}

func (s *Service) QuoteRefund(ctx context.Context, req domain.QuoteRequest) (*domain.RefundQuote, error) {
	if req.HotelID == 0 {
		return nil, domain.ErrInvalidHotel
	}
	if req.CheckIn.IsZero() {
		return nil, domain.ErrInvalidCheckIn
	}
	if req.AmountPaid.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}
	cancelledAt := req.CancelledAt
	if cancelledAt.IsZero() {
		cancelledAt = s.clock.Now()
	}
	cancelledOn := daterange.DateOf(cancelledAt.UTC())

	hotel, err := s.hotels.Hotel(ctx, req.HotelID)
	if err != nil {
		return nil, err
	}
	resolution, err := s.ResolveRefund(ctx, req.HotelID, cancelledOn.DaysUntil(req.CheckIn))
	if err != nil {
		return nil, err
	}

	refund, err := money.Percent(req.AmountPaid, resolution.RefundPercent, hotel.Currency)
	if err != nil {
		return nil, fmt.Errorf("compute refund in %s: %w", hotel.Currency, err)
	}
	paid, err := money.Round(req.AmountPaid, hotel.Currency)
	if err != nil {
		return nil, fmt.Errorf("round amount paid in %s: %w", hotel.Currency, err)
	}

	return &domain.RefundQuote{
		Resolution:   *resolution,
		Currency:     hotel.Currency,
		AmountPaid:   paid,
		RefundAmount: refund,
		CheckIn:      req.CheckIn,
		CancelledOn:  cancelledOn,
	}, nil
}

func (s *Service) activeTiers(ctx context.Context, hotelID snowflake.ID) ([]domain.PolicyTier, error) {
	key := hotelID.String()
	if tiers, ok := s.tiers.Get(ctx, key); ok {
		return tiers, nil
	}
	tiers, err := s.repo.ListByHotel(ctx, s.db, hotelID, true)
	if err != nil {
		return nil, fmt.Errorf("list cancellation tiers: %w", err)
	}
	s.tiers.Set(ctx, key, tiers, s.cacheTTL)
	return tiers, nil
}

func (s *Service) CreateTier(ctx context.Context, req domain.CreateTierRequest) (*domain.PolicyTier, error) {
	if req.HotelID == 0 {
		return nil, domain.ErrInvalidHotel
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if req.DaysBeforeCheckin < 0 {
		return nil, domain.ErrNegativeDays
	}
	if req.RefundPercent < 0 || req.RefundPercent > 100 {
		return nil, domain.ErrInvalidRefundPercent
	}
	if _, err := s.hotels.Hotel(ctx, req.HotelID); err != nil {
		return nil, err
	}

	tier := &domain.PolicyTier{
		ID:                s.genID.Generate(),
		HotelID:           req.HotelID,
		Name:              name,
		DaysBeforeCheckin: req.DaysBeforeCheckin,
		RefundPercent:     req.RefundPercent,
		Description:       req.Description,
		DisplayOrder:      req.DisplayOrder,
		Active:            true,
		CreatedAt:         s.clock.Now(),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, tier); err != nil {
			return fmt.Errorf("insert cancellation tier: %w", err)
		}
		return s.audit.Record(ctx, tx, auditdomain.Entry{
			Action:     "cancellation.create_tier",
			TargetType: "cancellation_policy_tier",
			TargetID:   tier.ID.String(),
			Metadata: map[string]any{
				"hotel_id":            tier.HotelID.String(),
				"days_before_checkin": tier.DaysBeforeCheckin,
				"refund_percent":      tier.RefundPercent,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	s.tiers.Delete(ctx, req.HotelID.String())
	return tier, nil
}

func (s *Service) ListTiers(ctx context.Context, hotelID snowflake.ID) ([]domain.PolicyTier, error) {
	if hotelID == 0 {
		return nil, domain.ErrInvalidHotel
	}
	tiers, err := s.repo.ListByHotel(ctx, s.db, hotelID, false)
	if err != nil {
		return nil, fmt.Errorf("list cancellation tiers: %w", err)
	}
	return tiers, nil
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

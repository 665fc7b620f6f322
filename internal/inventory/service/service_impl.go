package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/roomledger/internal/audit/domain"
	"github.com/smallbiznis/roomledger/internal/clock"
	"github.com/smallbiznis/roomledger/internal/config"
	"github.com/smallbiznis/roomledger/internal/errclass"
	hoteldomain "github.com/smallbiznis/roomledger/internal/hotel/domain"
	"github.com/smallbiznis/roomledger/internal/inventory/domain"
	"github.com/smallbiznis/roomledger/internal/lock"
	"github.com/smallbiznis/roomledger/internal/observability/metrics"
	"github.com/smallbiznis/roomledger/internal/observability/tracing"
	"github.com/smallbiznis/roomledger/pkg/daterange"
	"github.com/smallbiznis/roomledger/pkg/db"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	opReserve    = "reserve"
	opRelease    = "release"
	opBlock      = "block"
	opUnblock    = "unblock"
	opUpsert     = "upsert"
	opDelete     = "delete"
	opInitialize = "initialize"

	targetCalendarDay = "calendar_day"
	targetRoomType    = "room_type"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Config       config.Config
	Repo         domain.Repository
	Audit        auditdomain.Service
	Hotels       hoteldomain.Service
	Locker       lock.Locker
	Clock        clock.Clock           `optional:"true"`
	Metrics      *metrics.Metrics      `optional:"true"`
	StoreMetrics *metrics.StoreMetrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	cfg          config.InventoryConfig
	repo         domain.Repository
	audit        auditdomain.Service
	hotels       hoteldomain.Service
	locker       lock.Locker
	clock        clock.Clock
	metrics      *metrics.Metrics
	storeMetrics *metrics.StoreMetrics
}

func New(p Params) domain.Service {
	c := p.Clock
	if c == nil {
		c = clock.SystemClock{}
	}
	cfg := p.Config.Inventory
	if cfg.InitBatchSize <= 0 {
		cfg.InitBatchSize = 100
	}
	if cfg.MaxInitDays <= 0 {
		cfg.MaxInitDays = 731
	}
	if cfg.InitLockTTL <= 0 {
		cfg.InitLockTTL = 5 * time.Minute
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	cfg.MaxStayNights = cfg.StayNightsLimit()
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("inventory.service"),
		genID:        p.GenID,
		cfg:          cfg,
		repo:         p.Repo,
		audit:        p.Audit,
		hotels:       p.Hotels,
		locker:       p.Locker,
		clock:        c,
		metrics:      p.Metrics,
		storeMetrics: p.StoreMetrics,
	}
}

func (s *Service) Get(ctx context.Context, roomTypeID snowflake.ID, date daterange.Date) (*domain.CalendarDay, error) {
	if roomTypeID == 0 {
		return nil, domain.ErrInvalidRoomType
	}
	if date.IsZero() {
		return nil, domain.ErrInvalidDate
	}
	day, err := s.repo.FindDay(ctx, s.db, roomTypeID, date)
	if err != nil {
		return nil, fmt.Errorf("find calendar day: %w", err)
	}
	return day, nil
}

func (s *Service) GetRange(ctx context.Context, roomTypeID snowflake.ID, stay daterange.Stay) ([]domain.DayView, error) {
	if roomTypeID == 0 {
		return nil, domain.ErrInvalidRoomType
	}
	if stay.Nights() <= 0 {
		return nil, domain.ErrInvalidStay
	}
	if stay.Nights() > s.cfg.MaxStayNights {
		return nil, domain.ErrStayTooLong
	}
	return s.views(ctx, s.db, roomTypeID, stay)
}

func (s *Service) views(ctx context.Context, tx *gorm.DB, roomTypeID snowflake.ID, stay daterange.Stay) ([]domain.DayView, error) {
	rows, err := s.repo.ListDays(ctx, tx, roomTypeID, stay.CheckIn, stay.CheckOut)
	if err != nil {
		return nil, fmt.Errorf("list calendar days: %w", err)
	}
	byDate := make(map[string]*domain.CalendarDay, len(rows))
	for _, row := range rows {
		byDate[row.StayDate.String()] = row
	}
	views := make([]domain.DayView, 0, stay.Nights())
	for _, date := range stay.Dates() {
		views = append(views, domain.ViewOf(date, byDate[date.String()]))
	}
	return views, nil
}

func (s *Service) Upsert(ctx context.Context, req domain.UpsertRequest) (*domain.CalendarDay, error) {
	if req.RoomTypeID == 0 {
		return nil, domain.ErrInvalidRoomType
	}
	if req.Date.IsZero() {
		return nil, domain.ErrInvalidDate
	}
	if req.TotalRooms < 0 || req.BlockedRooms < 0 || req.BlockedRooms > req.TotalRooms {
		return nil, domain.ErrInvalidCapacity
	}
	if _, err := s.hotels.RoomType(ctx, req.RoomTypeID); err != nil {
		return nil, err
	}

	var saved *domain.CalendarDay
	retryable := func(err error) bool { return db.IsRetryable(err) || db.IsDuplicateKeyErr(err) }
	err := s.runTx(ctx, opUpsert, retryable, func(tx *gorm.DB) error {
		now := s.clock.Now()
		updated, err := s.repo.UpdateCapacity(ctx, tx, req.RoomTypeID, req.Date, req.TotalRooms, req.BlockedRooms, req.Note, now)
		if err != nil {
			return fmt.Errorf("update calendar day: %w", err)
		}

		created := false
		if updated == 0 {
			existing, err := s.repo.FindDay(ctx, tx, req.RoomTypeID, req.Date)
			if err != nil {
				return fmt.Errorf("find calendar day: %w", err)
			}
			if existing != nil {
				return domain.ErrInvalidCapacity
			}
			day := &domain.CalendarDay{
				ID:           s.genID.Generate(),
				RoomTypeID:   req.RoomTypeID,
				StayDate:     req.Date,
				TotalRooms:   req.TotalRooms,
				BlockedRooms: req.BlockedRooms,
				Note:         req.Note,
				Version:      1,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := s.repo.Insert(ctx, tx, day); err != nil {
				return fmt.Errorf("insert calendar day: %w", err)
			}
			created = true
		}

		saved, err = s.repo.FindDay(ctx, tx, req.RoomTypeID, req.Date)
		if err != nil {
			return fmt.Errorf("find calendar day: %w", err)
		}
		if saved == nil {
			return domain.ErrDayNotFound
		}
		return s.audit.Record(ctx, tx, auditdomain.Entry{
			Action:     "inventory.upsert",
			TargetType: targetCalendarDay,
			TargetID:   saved.ID.String(),
			RoomTypeID: req.RoomTypeID.String(),
			Metadata: map[string]any{
				"stay_date":     req.Date.String(),
				"total_rooms":   req.TotalRooms,
				"blocked_rooms": req.BlockedRooms,
				"created":       created,
				"version":       saved.Version,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *Service) Reserve(ctx context.Context, req domain.ReserveRequest) ([]domain.DayView, error) {
	views, err := s.mutate(ctx, stayMutation{
		operation:  opReserve,
		action:     "inventory.reserve",
		roomTypeID: req.RoomTypeID,
		stay:       req.Stay,
		rooms:      req.Rooms,
		reference:  req.Reference,
		apply:      s.repo.Reserve,
		rejected:   s.capacityError,
	})
	s.metrics.RecordReservation(ctx, outcomeOf(err))
	return views, err
}

func (s *Service) Release(ctx context.Context, req domain.ReleaseRequest) ([]domain.DayView, error) {
	views, err := s.mutate(ctx, stayMutation{
		operation:  opRelease,
		action:     "inventory.release",
		roomTypeID: req.RoomTypeID,
		stay:       req.Stay,
		rooms:      req.Rooms,
		reference:  req.Reference,
		apply:      s.repo.Release,
		rejected:   rejectWith(domain.ErrReleaseExceedsReserved),
	})
	s.metrics.RecordRelease(ctx, outcomeOf(err))
	return views, err
}

func (s *Service) Block(ctx context.Context, req domain.BlockRequest) ([]domain.DayView, error) {
	return s.mutate(ctx, stayMutation{
		operation:  opBlock,
		action:     "inventory.block",
		roomTypeID: req.RoomTypeID,
		stay:       req.Stay,
		rooms:      req.Rooms,
		reference:  req.Reason,
		apply:      s.repo.Block,
		rejected:   s.capacityError,
	})
}

func (s *Service) Unblock(ctx context.Context, req domain.BlockRequest) ([]domain.DayView, error) {
	return s.mutate(ctx, stayMutation{
		operation:  opUnblock,
		action:     "inventory.unblock",
		roomTypeID: req.RoomTypeID,
		stay:       req.Stay,
		rooms:      req.Rooms,
		reference:  req.Reason,
		apply:      s.repo.Unblock,
		rejected:   rejectWith(domain.ErrUnblockExceedsBlocked),
	})
}

func (s *Service) Delete(ctx context.Context, roomTypeID snowflake.ID, date daterange.Date) error {
	if roomTypeID == 0 {
		return domain.ErrInvalidRoomType
	}
	if date.IsZero() {
		return domain.ErrInvalidDate
	}
	return s.runTx(ctx, opDelete, db.IsRetryable, func(tx *gorm.DB) error {
		existing, err := s.repo.FindDay(ctx, tx, roomTypeID, date)
		if err != nil {
			return fmt.Errorf("find calendar day: %w", err)
		}
		if existing == nil {
			return domain.ErrDayNotFound
		}
		deleted, err := s.repo.DeleteUnreserved(ctx, tx, roomTypeID, date)
		if err != nil {
			return fmt.Errorf("delete calendar day: %w", err)
		}
		if deleted == 0 {
			return domain.ErrDayHasReservations
		}
		return s.audit.Record(ctx, tx, auditdomain.Entry{
			Action:     "inventory.delete",
			TargetType: targetCalendarDay,
			TargetID:   existing.ID.String(),
			RoomTypeID: roomTypeID.String(),
			Metadata: map[string]any{
				"stay_date":   date.String(),
				"total_rooms": existing.TotalRooms,
			},
		})
	})
}

type stayMutation struct {
	operation  string
	action     string
	roomTypeID snowflake.ID
	stay       daterange.Stay
	rooms      int
	reference  string
	apply      func(ctx context.Context, db *gorm.DB, roomTypeID snowflake.ID, date daterange.Date, rooms int, now time.Time) (int64, error)
	rejected   func(ctx context.Context, tx *gorm.DB, roomTypeID snowflake.ID, date daterange.Date, rooms int) error
}

// mutate applies one guarded counter change to every night of the stay in a
// single transaction. The first night whose guard fails rolls back the rest.
func (s *Service) mutate(ctx context.Context, m stayMutation) ([]domain.DayView, error) {
	if m.roomTypeID == 0 {
		return nil, domain.ErrInvalidRoomType
	}
	if m.stay.Nights() <= 0 {
		return nil, domain.ErrInvalidStay
	}
	if m.stay.Nights() > s.cfg.MaxStayNights {
		return nil, domain.ErrStayTooLong
	}
	if m.rooms <= 0 {
		return nil, domain.ErrInvalidRooms
	}

	ctx, span := tracing.StartSpan(ctx, "inventory."+m.operation,
		attribute.Int("nights", m.stay.Nights()),
		attribute.Int("rooms", m.rooms),
	)

	var views []domain.DayView
	err := s.runTx(ctx, m.operation, db.IsRetryable, func(tx *gorm.DB) error {
		now := s.clock.Now()
		for _, date := range m.stay.Dates() {
			affected, err := m.apply(ctx, tx, m.roomTypeID, date, m.rooms, now)
			if err != nil {
				return fmt.Errorf("%s %s: %w", m.operation, date, err)
			}
			if affected == 0 {
				return m.rejected(ctx, tx, m.roomTypeID, date, m.rooms)
			}
		}

		metadata := map[string]any{
			"checkin":  m.stay.CheckIn.String(),
			"checkout": m.stay.CheckOut.String(),
			"nights":   m.stay.Nights(),
			"rooms":    m.rooms,
		}
		if m.reference != "" {
			metadata["reference"] = m.reference
		}
		if err := s.audit.Record(ctx, tx, auditdomain.Entry{
			Action:     m.action,
			TargetType: targetRoomType,
			TargetID:   m.roomTypeID.String(),
			RoomTypeID: m.roomTypeID.String(),
			Metadata:   metadata,
		}); err != nil {
			return err
		}

		var err error
		views, err = s.views(ctx, tx, m.roomTypeID, m.stay)
		return err
	})
	tracing.EndSpan(span, err)

	switch errclass.Of(err) {
	case "":
	case errclass.ClassCapacity:
		s.log.Debug("stay rejected",
			zap.String("operation", m.operation),
			zap.String("room_type_id", m.roomTypeID.String()),
			zap.Error(err),
		)
	case errclass.ClassStore:
		s.log.Error("calendar transaction failed",
			zap.String("operation", m.operation),
			zap.String("room_type_id", m.roomTypeID.String()),
			zap.Error(err),
		)
	}
	if err != nil {
		return nil, err
	}
	return views, nil
}

func (s *Service) capacityError(ctx context.Context, tx *gorm.DB, roomTypeID snowflake.ID, date daterange.Date, rooms int) error {
	day, err := s.repo.FindDay(ctx, tx, roomTypeID, date)
	if err != nil {
		return fmt.Errorf("find calendar day: %w", err)
	}
	view := domain.ViewOf(date, day)
	return &domain.CapacityError{
		Date:        date,
		Requested:   rooms,
		Available:   view.AvailableRooms,
		Initialized: view.Initialized,
	}
}

func rejectWith(err error) func(context.Context, *gorm.DB, snowflake.ID, daterange.Date, int) error {
	return func(context.Context, *gorm.DB, snowflake.ID, daterange.Date, int) error {
		return err
	}
}

// runTx runs fn in a transaction, replaying it while retryable reports a
// transient failure and the retry budget lasts.
func (s *Service) runTx(ctx context.Context, operation string, retryable func(error) bool, fn func(tx *gorm.DB) error) error {
	start := time.Now()
	defer func() { s.storeMetrics.ObserveTx(operation, time.Since(start)) }()

	attempts := s.cfg.MaxRetries + 1
	for attempt := 1; ; attempt++ {
		err := s.db.WithContext(ctx).Transaction(fn)
		if err == nil {
			return nil
		}
		if attempt >= attempts || ctx.Err() != nil || errclass.Of(err) != errclass.ClassStore || !retryable(err) {
			s.storeMetrics.IncFailure(operation, err)
			return err
		}
		s.storeMetrics.IncRetry(operation, metrics.ClassifyStoreReason(err))
		s.log.Debug("retrying calendar transaction",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInsufficientCapacity):
		return "insufficient_capacity"
	case errclass.Of(err) == errclass.ClassInput:
		return "rejected"
	default:
		return "error"
	}
}

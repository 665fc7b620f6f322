package service

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	auditdomain "github.com/smallbiznis/roomledger/internal/audit/domain"
	"github.com/smallbiznis/roomledger/internal/inventory/domain"
	"github.com/smallbiznis/roomledger/internal/observability/tracing"
	"github.com/smallbiznis/roomledger/pkg/daterange"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// InitializeRange creates the missing nights of [From, To] with TotalRooms
// each. Nights that already exist are counted as skipped and never changed,
// so a cancelled run can simply be repeated.
func (s *Service) InitializeRange(ctx context.Context, req domain.InitializeRequest) (domain.InitializeResult, error) {
	if req.RoomTypeID == 0 {
		return domain.InitializeResult{}, domain.ErrInvalidRoomType
	}
	if req.TotalRooms < 0 {
		return domain.InitializeResult{}, domain.ErrInvalidCapacity
	}
	span, err := daterange.NewSpan(req.From, req.To)
	if err != nil {
		return domain.InitializeResult{}, domain.ErrInvalidRange
	}
	if span.Days() > s.cfg.MaxInitDays {
		return domain.InitializeResult{}, domain.ErrRangeTooLong
	}
	if _, err := s.hotels.RoomType(ctx, req.RoomTypeID); err != nil {
		return domain.InitializeResult{}, err
	}

	lockKey := "inventory:init:" + req.RoomTypeID.String()
	token, ok, err := s.locker.TryLock(ctx, lockKey, s.cfg.InitLockTTL)
	if err != nil {
		return domain.InitializeResult{}, fmt.Errorf("acquire initialization lock: %w", err)
	}
	if !ok {
		return domain.InitializeResult{}, domain.ErrInitializationInProgress
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), lockKey, token); err != nil {
			s.log.Warn("failed to release initialization lock", zap.String("key", lockKey), zap.Error(err))
		}
	}()

	ctx, traceSpan := tracing.StartSpan(ctx, "inventory.initialize", attribute.Int("days", span.Days()))
	start := time.Now()

	result := domain.InitializeResult{
		RunID: ulid.Make().String(),
		Days:  span.Days(),
	}
	runErr := s.insertBatches(ctx, req, span.Dates(), &result)
	result.Completed = runErr == nil

	s.storeMetrics.AddDaysInitialized(result.Created, result.Skipped)
	s.storeMetrics.ObserveInitialize(time.Since(start))

	auditErr := s.audit.Record(context.WithoutCancel(ctx), nil, auditdomain.Entry{
		Action:     "inventory.initialize",
		TargetType: targetRoomType,
		TargetID:   req.RoomTypeID.String(),
		RoomTypeID: req.RoomTypeID.String(),
		Metadata: map[string]any{
			"run_id":      result.RunID,
			"from":        req.From.String(),
			"to":          req.To.String(),
			"total_rooms": req.TotalRooms,
			"created":     result.Created,
			"skipped":     result.Skipped,
			"completed":   result.Completed,
		},
	})

	fields := []zap.Field{
		zap.String("run_id", result.RunID),
		zap.String("room_type_id", req.RoomTypeID.String()),
		zap.Int64("created", result.Created),
		zap.Int64("skipped", result.Skipped),
	}
	if runErr != nil {
		s.log.Warn("initialization stopped early", append(fields, zap.Error(runErr))...)
		s.storeMetrics.IncFailure(opInitialize, runErr)
		tracing.EndSpan(traceSpan, runErr)
		return result, runErr
	}
	tracing.EndSpan(traceSpan, auditErr)
	if auditErr != nil {
		return result, auditErr
	}
	s.log.Info("initialization finished", fields...)
	return result, nil
}

func (s *Service) insertBatches(ctx context.Context, req domain.InitializeRequest, dates []daterange.Date, result *domain.InitializeResult) error {
	for offset := 0; offset < len(dates); offset += s.cfg.InitBatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := offset + s.cfg.InitBatchSize
		if end > len(dates) {
			end = len(dates)
		}

		now := s.clock.Now()
		batch := make([]*domain.CalendarDay, 0, end-offset)
		for _, date := range dates[offset:end] {
			batch = append(batch, &domain.CalendarDay{
				ID:         s.genID.Generate(),
				RoomTypeID: req.RoomTypeID,
				StayDate:   date,
				TotalRooms: req.TotalRooms,
				Version:    1,
				CreatedAt:  now,
				UpdatedAt:  now,
			})
		}

		created, err := s.repo.InsertMissing(ctx, s.db, batch)
		if err != nil {
			return fmt.Errorf("insert calendar batch: %w", err)
		}
		result.Created += created
		result.Skipped += int64(len(batch)) - created
	}
	return nil
}

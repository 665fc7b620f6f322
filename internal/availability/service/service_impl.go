package service

import (
	"context"

	"github.com/smallbiznis/roomledger/internal/availability/domain"
	"github.com/smallbiznis/roomledger/internal/config"
	inventorydomain "github.com/smallbiznis/roomledger/internal/inventory/domain"
	"github.com/smallbiznis/roomledger/internal/observability/metrics"
	"github.com/smallbiznis/roomledger/internal/observability/tracing"
	"github.com/smallbiznis/roomledger/pkg/daterange"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log       *zap.Logger
	Config    config.Config
	Inventory inventorydomain.Service
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	log       *zap.Logger
	maxNights int
	inventory inventorydomain.Service
	metrics   *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		log:       p.Log.Named("availability.service"),
		maxNights: p.Config.Inventory.StayNightsLimit(),
		inventory: p.Inventory,
		metrics:   p.Metrics,
	}
}

// CheckAvailability reports every night of [CheckIn, CheckOut). Nights with
// no calendar row count as zero rooms. With ShortCircuit the report ends at
// the first night that cannot take the request.
func (s *Service) CheckAvailability(ctx context.Context, req domain.Request) (*domain.Result, error) {
	if req.RoomTypeID == 0 {
		return nil, domain.ErrInvalidRoomType
	}
	stay, err := daterange.NewStay(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, domain.ErrInvalidStay
	}
	if stay.Nights() > s.maxNights {
		return nil, domain.ErrStayTooLong
	}
	if req.Rooms <= 0 {
		return nil, domain.ErrInvalidRooms
	}

	ctx, span := tracing.StartSpan(ctx, "availability.check",
		attribute.Int("nights", stay.Nights()),
		attribute.Int("rooms", req.Rooms),
	)
	views, err := s.inventory.GetRange(ctx, req.RoomTypeID, stay)
	tracing.EndSpan(span, err)
	if err != nil {
		return nil, err
	}

	result := &domain.Result{
		Available: true,
		Nights:    stay.Nights(),
		Rooms:     req.Rooms,
		PerNight:  make([]domain.NightAvailability, 0, len(views)),
	}
	for _, view := range views {
		night := domain.NightAvailability{
			Date:           view.Date,
			AvailableRooms: view.AvailableRooms,
			Initialized:    view.Initialized,
			Sufficient:     view.AvailableRooms >= req.Rooms,
		}
		result.PerNight = append(result.PerNight, night)
		if night.Sufficient {
			continue
		}
		if result.Available {
			date := night.Date
			result.Available = false
			result.FirstUnavailableDate = &date
		}
		if req.ShortCircuit {
			break
		}
	}

	s.metrics.RecordAvailabilityCheck(ctx, result.Available)
	return result, nil
}

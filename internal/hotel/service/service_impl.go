package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/roomledger/internal/hotel/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("hotel.service"),
		repo: p.Repo,
	}
}

func (s *Service) Hotel(ctx context.Context, id snowflake.ID) (*domain.Hotel, error) {
	if id == 0 {
		return nil, domain.ErrInvalidID
	}
	hotel, err := s.repo.FindHotel(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if hotel == nil {
		return nil, domain.ErrHotelNotFound
	}
	return hotel, nil
}

func (s *Service) RoomType(ctx context.Context, id snowflake.ID) (*domain.RoomType, error) {
	if id == 0 {
		return nil, domain.ErrInvalidID
	}
	roomType, err := s.repo.FindRoomType(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if roomType == nil {
		return nil, domain.ErrRoomTypeNotFound
	}
	return roomType, nil
}

func (s *Service) HotelForRoomType(ctx context.Context, roomTypeID snowflake.ID) (*domain.Hotel, error) {
	roomType, err := s.RoomType(ctx, roomTypeID)
	if err != nil {
		return nil, err
	}
	return s.Hotel(ctx, roomType.HotelID)
}

// MealPlan returns the plan only when it exists and is active.
func (s *Service) MealPlan(ctx context.Context, id snowflake.ID) (*domain.MealPlan, error) {
	if id == 0 {
		return nil, domain.ErrUnknownMealPlan
	}
	plan, err := s.repo.FindMealPlan(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domain.ErrUnknownMealPlan
	}
	if !plan.Active {
		return nil, domain.ErrInactiveMealPlan
	}
	return plan, nil
}

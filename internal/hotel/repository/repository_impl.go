package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/roomledger/internal/hotel/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindHotel(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Hotel, error) {
	var hotel domain.Hotel
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, currency, created_at FROM hotels WHERE id = ?`,
		id,
	).Scan(&hotel).Error
	if err != nil {
		return nil, err
	}
	if hotel.ID == 0 {
		return nil, nil
	}
	return &hotel, nil
}

func (r *repo) FindRoomType(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.RoomType, error) {
	var roomType domain.RoomType
	err := db.WithContext(ctx).Raw(
		`SELECT id, hotel_id, code, name, created_at FROM room_types WHERE id = ?`,
		id,
	).Scan(&roomType).Error
	if err != nil {
		return nil, err
	}
	if roomType.ID == 0 {
		return nil, nil
	}
	return &roomType, nil
}

func (r *repo) FindMealPlan(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.MealPlan, error) {
	var plan domain.MealPlan
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, active, created_at FROM meal_plans WHERE id = ?`,
		id,
	).Scan(&plan).Error
	if err != nil {
		return nil, err
	}
	if plan.ID == 0 {
		return nil, nil
	}
	return &plan, nil
}

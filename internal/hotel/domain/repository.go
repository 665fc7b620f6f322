package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindHotel(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Hotel, error)
	FindRoomType(ctx context.Context, db *gorm.DB, id snowflake.ID) (*RoomType, error)
	FindMealPlan(ctx context.Context, db *gorm.DB, id snowflake.ID) (*MealPlan, error)
}

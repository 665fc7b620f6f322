package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/roomledger/internal/errclass"
)

// Service is a read-only view of the hotel catalog. Hotels, room types and
// meal plans are maintained elsewhere.
type Service interface {
	Hotel(ctx context.Context, id snowflake.ID) (*Hotel, error)
	RoomType(ctx context.Context, id snowflake.ID) (*RoomType, error)
	HotelForRoomType(ctx context.Context, roomTypeID snowflake.ID) (*Hotel, error)
	MealPlan(ctx context.Context, id snowflake.ID) (*MealPlan, error)
}

var (
	ErrHotelNotFound    = errclass.NotFound("hotel_not_found")
	ErrRoomTypeNotFound = errclass.NotFound("room_type_not_found")
	ErrUnknownMealPlan  = errclass.Input("unknown_meal_plan")
	ErrInactiveMealPlan = errclass.Input("inactive_meal_plan")
	ErrInvalidID        = errclass.Input("invalid_id")
)

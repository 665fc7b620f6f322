package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, rule *TariffRule) error
	// ListByRoomType returns the room type's rules oldest first.
	ListByRoomType(ctx context.Context, db *gorm.DB, roomTypeID snowflake.ID, activeOnly bool) ([]TariffRule, error)
}

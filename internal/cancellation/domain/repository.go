package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, tier *PolicyTier) error
	// ListByHotel returns tiers ordered by display_order for presentation.
	ListByHotel(ctx context.Context, db *gorm.DB, hotelID snowflake.ID, activeOnly bool) ([]PolicyTier, error)
}

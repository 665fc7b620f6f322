package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/roomledger/internal/cancellation/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, tier *domain.PolicyTier) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO cancellation_policy_tiers (
			id, hotel_id, name, days_before_checkin, refund_percent,
			description, display_order, active, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tier.ID,
		tier.HotelID,
		tier.Name,
		tier.DaysBeforeCheckin,
		tier.RefundPercent,
		tier.Description,
		tier.DisplayOrder,
		tier.Active,
		tier.CreatedAt,
	).Error
}

func (r *repo) ListByHotel(ctx context.Context, db *gorm.DB, hotelID snowflake.ID, activeOnly bool) ([]domain.PolicyTier, error) {
	stmt := db.WithContext(ctx).Model(&domain.PolicyTier{}).Where("hotel_id = ?", hotelID)
	if activeOnly {
		stmt = stmt.Where("active = ?", true)
	}

	var tiers []domain.PolicyTier
	if err := stmt.Order("display_order asc, id asc").Find(&tiers).Error; err != nil {
		return nil, err
	}
	return tiers, nil
}

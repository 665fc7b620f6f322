package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/roomledger/internal/tariff/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, rule *domain.TariffRule) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO tariff_rules (
			id, room_type_id, meal_plan_id, start_date, end_date, nightly_price,
			min_nights, max_nights, special_period_name, active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.ID,
		rule.RoomTypeID,
		rule.MealPlanID,
		rule.StartDate,
		rule.EndDate,
		rule.NightlyPrice,
		rule.MinNights,
		rule.MaxNights,
		rule.SpecialPeriodName,
		rule.Active,
		rule.CreatedAt,
		rule.UpdatedAt,
	).Error
}

func (r *repo) ListByRoomType(ctx context.Context, db *gorm.DB, roomTypeID snowflake.ID, activeOnly bool) ([]domain.TariffRule, error) {
	stmt := db.WithContext(ctx).Model(&domain.TariffRule{}).Where("room_type_id = ?", roomTypeID)
	if activeOnly {
		stmt = stmt.Where("active = ?", true)
	}

	var rules []domain.TariffRule
	if err := stmt.Order("created_at asc, id asc").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

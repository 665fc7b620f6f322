package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/roomledger/pkg/daterange"
)

// TariffRule prices every night of [StartDate, EndDate] for a room type.
// A nil MealPlanID applies to all meal plans.
type TariffRule struct {
	ID                snowflake.ID    `json:"id" gorm:"primaryKey"`
	RoomTypeID        snowflake.ID    `json:"room_type_id" gorm:"not null;index:idx_tariff_rules_lookup,priority:1"`
	MealPlanID        *snowflake.ID   `json:"meal_plan_id,omitempty"`
	StartDate         daterange.Date  `json:"start_date" gorm:"not null;index:idx_tariff_rules_lookup,priority:2"`
	EndDate           daterange.Date  `json:"end_date" gorm:"not null;index:idx_tariff_rules_lookup,priority:3"`
	NightlyPrice      decimal.Decimal `json:"nightly_price" gorm:"type:decimal(18,4);not null"`
	MinNights         int             `json:"min_nights" gorm:"not null;default:1"`
	MaxNights         *int            `json:"max_nights,omitempty"`
	SpecialPeriodName *string         `json:"special_period_name,omitempty" gorm:"type:varchar(255)"`
	Active            bool            `json:"active" gorm:"not null;default:true"`
	CreatedAt         time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt         time.Time       `json:"updated_at" gorm:"not null"`
}

func (TariffRule) TableName() string { return "tariff_rules" }

func (r TariffRule) Span() daterange.Span {
	return daterange.Span{Start: r.StartDate, End: r.EndDate}
}

func (r TariffRule) specificTo(mealPlanID *snowflake.ID) bool {
	return r.MealPlanID != nil && mealPlanID != nil && *r.MealPlanID == *mealPlanID
}

type NightPrice struct {
	Date             daterange.Date  `json:"date"`
	Price            decimal.Decimal `json:"price"`
	RuleID           snowflake.ID    `json:"rule_id"`
	SpecialPeriod    string          `json:"special_period,omitempty"`
	SpecialPeriodKey string          `json:"special_period_key,omitempty"`
}

type Quote struct {
	RoomTypeID snowflake.ID    `json:"room_type_id"`
	MealPlanID *snowflake.ID   `json:"meal_plan_id,omitempty"`
	Currency   string          `json:"currency"`
	Nights     int             `json:"nights"`
	TotalPrice decimal.Decimal `json:"total_price"`
	PerNight   []NightPrice    `json:"per_night"`
}

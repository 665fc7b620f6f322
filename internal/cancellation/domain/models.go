package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/roomledger/pkg/daterange"
)

// PolicyTier refunds RefundPercent when the guest cancels at least
// DaysBeforeCheckin days ahead. DisplayOrder is for presentation only.
type PolicyTier struct {
	ID                snowflake.ID `json:"id" gorm:"primaryKey"`
	HotelID           snowflake.ID `json:"hotel_id" gorm:"not null;index"`
	Name              string       `json:"name" gorm:"type:varchar(255);not null"`
	DaysBeforeCheckin int          `json:"days_before_checkin" gorm:"not null"`
	RefundPercent     int          `json:"refund_percent" gorm:"not null"`
	Description       *string      `json:"description,omitempty" gorm:"type:text"`
	DisplayOrder      int          `json:"display_order" gorm:"not null;default:0"`
	Active            bool         `json:"active" gorm:"not null;default:true"`
	CreatedAt         time.Time    `json:"created_at" gorm:"not null"`
}

func (PolicyTier) TableName() string { return "cancellation_policy_tiers" }

type Resolution struct {
	HotelID           snowflake.ID `json:"hotel_id"`
	TierID            snowflake.ID `json:"tier_id"`
	TierName          string       `json:"tier_name"`
	RefundPercent     int          `json:"refund_percent"`
	DaysBeforeCheckin int          `json:"days_before_checkin"`
}

type RefundQuote struct {
	Resolution
	Currency     string          `json:"currency"`
	AmountPaid   decimal.Decimal `json:"amount_paid"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	CheckIn      daterange.Date  `json:"checkin"`
	CancelledOn  daterange.Date  `json:"cancelled_on"`
}

package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/roomledger/internal/errclass"
	"github.com/smallbiznis/roomledger/pkg/daterange"
)

type QuoteRequest struct {
	HotelID     snowflake.ID    `json:"-"`
	CheckIn     daterange.Date  `json:"checkin"`
	CancelledAt time.Time       `json:"cancelled_at"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
}

type CreateTierRequest struct {
	HotelID           snowflake.ID `json:"-"`
	Name              string       `json:"name"`
	DaysBeforeCheckin int          `json:"days_before_checkin"`
	RefundPercent     int          `json:"refund_percent"`
	Description       *string      `json:"description,omitempty"`
	DisplayOrder      int          `json:"display_order"`
}

type Service interface {
	ResolveRefund(ctx context.Context, hotelID snowflake.ID, daysBeforeCheckin int) (*Resolution, error)
	// QuoteRefund counts calendar days from the cancellation date to check-in.
	QuoteRefund(ctx context.Context, req QuoteRequest) (*RefundQuote, error)
	CreateTier(ctx context.Context, req CreateTierRequest) (*PolicyTier, error)
	ListTiers(ctx context.Context, hotelID snowflake.ID) ([]PolicyTier, error)
}

var (
	ErrInvalidHotel         = errclass.Input("invalid_hotel")
	ErrNegativeDays         = errclass.Input("negative_days_before_checkin")
	ErrInvalidRefundPercent = errclass.Input("invalid_refund_percent")
	ErrInvalidName          = errclass.Input("invalid_name")
	ErrInvalidAmount        = errclass.Input("invalid_amount")
	ErrInvalidCheckIn       = errclass.Input("invalid_checkin")
	ErrNoPolicyDefined      = errclass.PolicyGap("no_policy_defined")
)

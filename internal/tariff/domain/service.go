package domain

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/roomledger/internal/errclass"
	"github.com/smallbiznis/roomledger/pkg/daterange"
)

type PriceRequest struct {
	RoomTypeID snowflake.ID
	CheckIn    daterange.Date
	CheckOut   daterange.Date
	MealPlanID *snowflake.ID
}

type CreateRuleRequest struct {
	RoomTypeID        snowflake.ID    `json:"-"`
	MealPlanID        *snowflake.ID   `json:"meal_plan_id,omitempty"`
	StartDate         daterange.Date  `json:"start_date"`
	EndDate           daterange.Date  `json:"end_date"`
	NightlyPrice      decimal.Decimal `json:"nightly_price"`
	MinNights         int             `json:"min_nights"`
	MaxNights         *int            `json:"max_nights,omitempty"`
	SpecialPeriodName *string         `json:"special_period_name,omitempty"`
}

type Service interface {
	CalculateTotalPrice(ctx context.Context, req PriceRequest) (*Quote, error)
	CreateRule(ctx context.Context, req CreateRuleRequest) (*TariffRule, error)
	ListRules(ctx context.Context, roomTypeID snowflake.ID) ([]TariffRule, error)
}

var (
	ErrInvalidRoomType    = errclass.Input("invalid_room_type")
	ErrInvalidStay        = errclass.Input("invalid_stay")
	ErrStayTooLong        = errclass.Input("stay_too_long")
	ErrInvalidSpan        = errclass.Input("invalid_span")
	ErrInvalidPrice       = errclass.Input("invalid_price")
	ErrInvalidStayLimits  = errclass.Input("invalid_stay_limits")
	ErrNoPriceDefined     = errclass.PolicyGap("no_price_defined")
	ErrStayLengthViolated = errclass.PolicyGap("stay_length_violation")
)

// NoPriceDefinedError reports a night that no active rule covers.
type NoPriceDefinedError struct {
	Date daterange.Date `json:"date"`
}

func (e *NoPriceDefinedError) Error() string {
	return fmt.Sprintf("no_price_defined: %s", e.Date)
}

func (e *NoPriceDefinedError) Code() string { return "no_price_defined" }

func (e *NoPriceDefinedError) Unwrap() error { return ErrNoPriceDefined }

// StayLengthViolationError reports a stay shorter or longer than a rule allows.
type StayLengthViolationError struct {
	RuleID    snowflake.ID `json:"rule_id"`
	Nights    int          `json:"nights"`
	MinNights int          `json:"min_nights"`
	MaxNights *int         `json:"max_nights,omitempty"`
}

func (e *StayLengthViolationError) Error() string {
	return fmt.Sprintf("stay_length_violation: rule %s nights %d", e.RuleID, e.Nights)
}

func (e *StayLengthViolationError) Code() string { return "stay_length_violation" }

func (e *StayLengthViolationError) Unwrap() error { return ErrStayLengthViolated }

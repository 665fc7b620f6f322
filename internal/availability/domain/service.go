package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/roomledger/internal/errclass"
	"github.com/smallbiznis/roomledger/pkg/daterange"
)

type Request struct {
	RoomTypeID   snowflake.ID
	CheckIn      daterange.Date
	CheckOut     daterange.Date
	Rooms        int
	ShortCircuit bool
}

type NightAvailability struct {
	Date           daterange.Date `json:"date"`
	AvailableRooms int            `json:"available_rooms"`
	Initialized    bool           `json:"initialized"`
	Sufficient     bool           `json:"sufficient"`
}

type Result struct {
	Available            bool                `json:"available"`
	Nights               int                 `json:"nights"`
	Rooms                int                 `json:"rooms"`
	PerNight             []NightAvailability `json:"per_night"`
	FirstUnavailableDate *daterange.Date     `json:"first_unavailable_date,omitempty"`
}

// Service answers whether a stay fits. The answer is advisory: another
// booking may take the rooms before the caller reserves them, and only
// the inventory Reserve call is authoritative.
type Service interface {
	CheckAvailability(ctx context.Context, req Request) (*Result, error)
}

var (
	ErrInvalidRoomType = errclass.Input("invalid_room_type")
	ErrInvalidStay     = errclass.Input("invalid_stay")
	ErrStayTooLong     = errclass.Input("stay_too_long")
	ErrInvalidRooms    = errclass.Input("invalid_rooms")
)

package domain

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/roomledger/internal/errclass"
	"github.com/smallbiznis/roomledger/pkg/daterange"
)

type UpsertRequest struct {
	RoomTypeID   snowflake.ID   `json:"-"`
	Date         daterange.Date `json:"-"`
	TotalRooms   int            `json:"total_rooms"`
	BlockedRooms int            `json:"blocked_rooms"`
	Note         *string        `json:"note,omitempty"`
}

// ReserveRequest holds Rooms units on every night of Stay.
type ReserveRequest struct {
	RoomTypeID snowflake.ID
	Stay       daterange.Stay
	Rooms      int
	Reference  string
}

type ReleaseRequest struct {
	RoomTypeID snowflake.ID
	Stay       daterange.Stay
	Rooms      int
	Reference  string
}

// BlockRequest takes rooms out of sale without a booking, e.g. for maintenance.
type BlockRequest struct {
	RoomTypeID snowflake.ID
	Stay       daterange.Stay
	Rooms      int
	Reason     string
}

// InitializeRequest seeds [From, To] inclusive with TotalRooms per night.
type InitializeRequest struct {
	RoomTypeID snowflake.ID
	TotalRooms int
	From       daterange.Date
	To         daterange.Date
}

type InitializeResult struct {
	RunID     string `json:"run_id"`
	Days      int    `json:"days"`
	Created   int64  `json:"created"`
	Skipped   int64  `json:"skipped"`
	Completed bool   `json:"completed"`
}

type Service interface {
	Get(ctx context.Context, roomTypeID snowflake.ID, date daterange.Date) (*CalendarDay, error)
	GetRange(ctx context.Context, roomTypeID snowflake.ID, stay daterange.Stay) ([]DayView, error)
	Upsert(ctx context.Context, req UpsertRequest) (*CalendarDay, error)
	// Reserve is the only authoritative availability gate. Either every
	// night is incremented or none is.
	Reserve(ctx context.Context, req ReserveRequest) ([]DayView, error)
	Release(ctx context.Context, req ReleaseRequest) ([]DayView, error)
	Block(ctx context.Context, req BlockRequest) ([]DayView, error)
	Unblock(ctx context.Context, req BlockRequest) ([]DayView, error)
	Delete(ctx context.Context, roomTypeID snowflake.ID, date daterange.Date) error
	InitializeRange(ctx context.Context, req InitializeRequest) (InitializeResult, error)
}

var (
	ErrInvalidRoomType          = errclass.Input("invalid_room_type")
	ErrInvalidDate              = errclass.Input("invalid_date")
	ErrInvalidStay              = errclass.Input("invalid_stay")
	ErrInvalidRooms             = errclass.Input("invalid_rooms")
	ErrInvalidCapacity          = errclass.Input("invalid_capacity")
	ErrInvalidRange             = errclass.Input("invalid_range")
	ErrRangeTooLong             = errclass.Input("range_too_long")
	ErrStayTooLong              = errclass.Input("stay_too_long")
	ErrReleaseExceedsReserved   = errclass.Input("release_exceeds_reserved")
	ErrUnblockExceedsBlocked    = errclass.Input("unblock_exceeds_blocked")
	ErrInsufficientCapacity     = errclass.Capacity("insufficient_capacity")
	ErrDayNotFound              = errclass.NotFound("calendar_day_not_found")
	ErrDayHasReservations       = errclass.Conflict("day_has_reservations")
	ErrInitializationInProgress = errclass.Conflict("initialization_in_progress")
)

// CapacityError names the first night that could not take the request.
type CapacityError struct {
	Date        daterange.Date `json:"date"`
	Requested   int            `json:"requested"`
	Available   int            `json:"available"`
	Initialized bool           `json:"initialized"`
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("insufficient_capacity: %s requested %d available %d", e.Date, e.Requested, e.Available)
}

func (e *CapacityError) Code() string { return "insufficient_capacity" }

func (e *CapacityError) Unwrap() error { return ErrInsufficientCapacity }

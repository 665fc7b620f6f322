package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/roomledger/pkg/daterange"
	"gorm.io/gorm"
)

// Repository guards every counter change with a conditional UPDATE. Methods
// returning a row count report 0 when the guard or the row was missing.
type Repository interface {
	FindDay(ctx context.Context, db *gorm.DB, roomTypeID snowflake.ID, date daterange.Date) (*CalendarDay, error)
	// ListDays returns rows with from <= stay_date < to ordered by date.
	ListDays(ctx context.Context, db *gorm.DB, roomTypeID snowflake.ID, from, to daterange.Date) ([]*CalendarDay, error)
	Insert(ctx context.Context, db *gorm.DB, day *CalendarDay) error
	InsertMissing(ctx context.Context, db *gorm.DB, days []*CalendarDay) (int64, error)
	UpdateCapacity(ctx context.Context, db *gorm.DB, roomTypeID snowflake.ID, date daterange.Date, totalRooms, blockedRooms int, note *string, now time.Time) (int64, error)
	Reserve(ctx context.Context, db *gorm.DB, roomTypeID snowflake.ID, date daterange.Date, rooms int, now time.Time) (int64, error)
	Release(ctx context.Context, db *gorm.DB, roomTypeID snowflake.ID, date daterange.Date, rooms int, now time.Time) (int64, error)
	Block(ctx context.Context, db *gorm.DB, roomTypeID snowflake.ID, date daterange.Date, rooms int, now time.Time) (int64, error)
	Unblock(ctx context.Context, db *gorm.DB, roomTypeID snowflake.ID, date daterange.Date, rooms int, now time.Time) (int64, error)
	DeleteUnreserved(ctx context.Context, db *gorm.DB, roomTypeID snowflake.ID, date daterange.Date) (int64, error)
}

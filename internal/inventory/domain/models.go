package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/roomledger/pkg/daterange"
)

// CalendarDay is the stock of one room type on one night.
// reserved_rooms + blocked_rooms never exceeds total_rooms.
type CalendarDay struct {
	ID            snowflake.ID   `json:"id" gorm:"primaryKey"`
	RoomTypeID    snowflake.ID   `json:"room_type_id" gorm:"not null;uniqueIndex:ux_calendar_days_room_type_date,priority:1"`
	StayDate      daterange.Date `json:"stay_date" gorm:"not null;uniqueIndex:ux_calendar_days_room_type_date,priority:2"`
	TotalRooms    int            `json:"total_rooms" gorm:"not null;default:0"`
	ReservedRooms int            `json:"reserved_rooms" gorm:"not null;default:0"`
	BlockedRooms  int            `json:"blocked_rooms" gorm:"not null;default:0"`
	Note          *string        `json:"note,omitempty" gorm:"type:varchar(500)"`
	Version       int64          `json:"version" gorm:"not null;default:1"`
	CreatedAt     time.Time      `json:"created_at" gorm:"not null"`
	UpdatedAt     time.Time      `json:"updated_at" gorm:"not null"`
}

func (CalendarDay) TableName() string { return "calendar_days" }

func (d CalendarDay) AvailableRooms() int {
	available := d.TotalRooms - d.ReservedRooms - d.BlockedRooms
	if available < 0 {
		return 0
	}
	return available
}

// DayView reports one night of a range. Nights without a row have
// Initialized false and zero counts.
type DayView struct {
	Date           daterange.Date `json:"date"`
	Initialized    bool           `json:"initialized"`
	TotalRooms     int            `json:"total_rooms"`
	ReservedRooms  int            `json:"reserved_rooms"`
	BlockedRooms   int            `json:"blocked_rooms"`
	AvailableRooms int            `json:"available_rooms"`
	Version        int64          `json:"version,omitempty"`
}

func ViewOf(date daterange.Date, day *CalendarDay) DayView {
	if day == nil {
		return DayView{Date: date}
	}
	return DayView{
		Date:           date,
		Initialized:    true,
		TotalRooms:     day.TotalRooms,
		ReservedRooms:  day.ReservedRooms,
		BlockedRooms:   day.BlockedRooms,
		AvailableRooms: day.AvailableRooms(),
		Version:        day.Version,
	}
}

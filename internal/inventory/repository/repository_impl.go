package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/roomledger/internal/inventory/domain"
	"github.com/smallbiznis/roomledger/pkg/daterange"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const dayColumns = `id, room_type_id, stay_date, total_rooms, reserved_rooms, blocked_rooms,
	note, version, created_at, updated_at`

func (r *repo) FindDay(ctx context.Context, db *gorm.DB, roomTypeID snowflake.ID, date daterange.Date) (*domain.CalendarDay, error) {
	var day domain.CalendarDay
	err := db.WithContext(ctx).Raw(
		`SELECT `+dayColumns+`
		FROM calendar_days
		WHERE room_type_id = ? AND stay_date = ?`,
		roomTypeID,
		date,
	).Scan(&day).Error
	if err != nil {
		return nil, err
	}
	if day.ID == 0 {
		return nil, nil
	}
	return &day, nil
}

func (r *repo) ListDays(ctx context.Context, db *gorm.DB, roomTypeID snowflake.ID, from, to daterange.Date) ([]*domain.CalendarDay, error) {
	var days []*domain.CalendarDay
	err := db.WithContext(ctx).Raw(
		`SELECT `+dayColumns+`
		FROM calendar_days
		WHERE room_type_id = ? AND stay_date >= ? AND stay_date < ?
		ORDER BY stay_date ASC`,
		roomTypeID,
		from,
		to,
	).Scan(&days).Error
	if err != nil {
		return nil, err
	}
	return days, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, day *domain.CalendarDay) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO calendar_days (
			id, room_type_id, stay_date, total_rooms, reserved_rooms, blocked_rooms,
			note, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		day.ID,
		day.RoomTypeID,
		day.StayDate,
		day.TotalRooms,
		day.ReservedRooms,
		day.BlockedRooms,
		day.Note,
		day.Version,
		day.CreatedAt,
		day.UpdatedAt,
	).Error
}

// InsertMissing inserts days whose (room_type_id, stay_date) is free and
// returns how many rows were created. Existing rows are left untouched.
func (r *repo) InsertMissing(ctx context.Context, db *gorm.DB, days []*domain.CalendarDay) (int64, error) {
	if len(days) == 0 {
		return 0, nil
	}

	values := make([]string, 0, len(days))
	args := make([]any, 0, len(days)*10)
	for _, day := range days {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			day.ID,
			day.RoomTypeID,
			day.StayDate,
			day.TotalRooms,
			day.ReservedRooms,
			day.BlockedRooms,
			day.Note,
			day.Version,
			day.CreatedAt,
			day.UpdatedAt,
		)
	}

	insert, conflict := "INSERT INTO", " ON CONFLICT (room_type_id, stay_date) DO NOTHING"
	if db.Dialector.Name() == "mysql" {
		insert, conflict = "INSERT IGNORE INTO", ""
	}
	result := db.WithContext(ctx).Exec(
		insert+` calendar_days (`+dayColumns+`)
		VALUES `+strings.Join(values, ", ")+conflict,
		args...,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) UpdateCapacity(ctx context.Context, db *gorm.DB, roomTypeID snowflake.ID, date daterange.Date, totalRooms, blockedRooms int, note *string, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE calendar_days
		SET total_rooms = ?, blocked_rooms = ?, note = ?, version = version + 1, updated_at = ?
		WHERE room_type_id = ? AND stay_date = ? AND reserved_rooms + ? <= ?`,
		totalRooms,
		blockedRooms,
		note,
		now,
		roomTypeID,
		date,
		blockedRooms,
		totalRooms,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) Reserve(ctx context.Context, db *gorm.DB, roomTypeID snowflake.ID, date daterange.Date, rooms int, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE calendar_days
		SET reserved_rooms = reserved_rooms + ?, version = version + 1, updated_at = ?
		WHERE room_type_id = ? AND stay_date = ?
			AND total_rooms - reserved_rooms - blocked_rooms >= ?`,
		rooms,
		now,
		roomTypeID,
		date,
		rooms,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) Release(ctx context.Context, db *gorm.DB, roomTypeID snowflake.ID, date daterange.Date, rooms int, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE calendar_days
		SET reserved_rooms = reserved_rooms - ?, version = version + 1, updated_at = ?
		WHERE room_type_id = ? AND stay_date = ? AND reserved_rooms >= ?`,
		rooms,
		now,
		roomTypeID,
		date,
		rooms,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) Block(ctx context.Context, db *gorm.DB, roomTypeID snowflake.ID, date daterange.Date, rooms int, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE calendar_days
		SET blocked_rooms = blocked_rooms + ?, version = version + 1, updated_at = ?
		WHERE room_type_id = ? AND stay_date = ?
			AND total_rooms - reserved_rooms - blocked_rooms >= ?`,
		rooms,
		now,
		roomTypeID,
		date,
		rooms,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) Unblock(ctx context.Context, db *gorm.DB, roomTypeID snowflake.ID, date daterange.Date, rooms int, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE calendar_days
		SET blocked_rooms = blocked_rooms - ?, version = version + 1, updated_at = ?
		WHERE room_type_id = ? AND stay_date = ? AND blocked_rooms >= ?`,
		rooms,
		now,
		roomTypeID,
		date,
		rooms,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) DeleteUnreserved(ctx context.Context, db *gorm.DB, roomTypeID snowflake.ID, date daterange.Date) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`DELETE FROM calendar_days
		WHERE room_type_id = ? AND stay_date = ? AND reserved_rooms = 0`,
		roomTypeID,
		date,
	)
	return result.RowsAffected, result.Error
}

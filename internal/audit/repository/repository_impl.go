package repository

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/smallbiznis/roomledger/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const logColumns = `id, actor_type, actor_id, action, target_type, target_id, room_type_id,
	metadata, created_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.AuditLog) error {
	if entry == nil {
		return nil
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO audit_logs (`+logColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.ActorType,
		entry.ActorID,
		entry.Action,
		entry.TargetType,
		entry.TargetID,
		entry.RoomTypeID,
		entry.Metadata,
		entry.CreatedAt,
	).Error
}

// List returns rows newest first. RoomTypeID matches every row recorded for
// the room type, whether it targeted the room type, one of its calendar days
// or one of its tariff rules.
func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.AuditLog, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, values ...any) {
		where = append(where, cond)
		args = append(args, values...)
	}

	if roomTypeID := strings.TrimSpace(filter.RoomTypeID); roomTypeID != "" {
		add("room_type_id = ?", roomTypeID)
	}
	if action := strings.TrimSpace(filter.Action); action != "" {
		add("action = ?", action)
	} else if prefix := strings.TrimSpace(filter.ActionPrefix); prefix != "" {
		add("SUBSTR(action, 1, ?) = ?", utf8.RuneCountInString(prefix), prefix)
	}
	if targetType := strings.TrimSpace(filter.TargetType); targetType != "" {
		add("target_type = ?", targetType)
	}
	if targetID := strings.TrimSpace(filter.TargetID); targetID != "" {
		add("target_id = ?", targetID)
	}
	if actorType := strings.TrimSpace(filter.ActorType); actorType != "" {
		add("actor_type = ?", actorType)
	}
	if filter.StartAt != nil {
		add("created_at >= ?", filter.StartAt.UTC())
	}
	if filter.EndAt != nil {
		add("created_at <= ?", filter.EndAt.UTC())
	}
	if filter.Cursor != nil {
		add("(created_at < ? OR (created_at = ? AND id < ?))",
			filter.Cursor.CreatedAt,
			filter.Cursor.CreatedAt,
			filter.Cursor.ID,
		)
	}

	query := `SELECT ` + logColumns + ` FROM audit_logs`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit+1)
	}

	var logs []*domain.AuditLog
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

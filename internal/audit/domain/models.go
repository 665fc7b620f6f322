package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type ActorType string

const (
	ActorTypeSystem  ActorType = "system"
	ActorTypeAdmin   ActorType = "admin"
	ActorTypeBooking ActorType = "booking"
)

type AuditLog struct {
	ID         snowflake.ID      `json:"id" gorm:"primaryKey"`
	ActorType  string            `json:"actor_type" gorm:"type:varchar(32);not null"`
	ActorID    *string           `json:"actor_id,omitempty" gorm:"type:varchar(128)"`
	Action     string            `json:"action" gorm:"type:varchar(64);not null;index"`
	TargetType string            `json:"target_type" gorm:"type:varchar(64);not null;index:idx_audit_target"`
	TargetID   *string           `json:"target_id,omitempty" gorm:"type:varchar(128);index:idx_audit_target"`
	RoomTypeID *string           `json:"room_type_id,omitempty" gorm:"type:varchar(32);index:idx_audit_room_type,priority:1"`
	Metadata   datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at" gorm:"not null;index;index:idx_audit_room_type,priority:2"`
}

func (AuditLog) TableName() string { return "audit_logs" }

// Entry is one mutation to record.
type Entry struct {
	ActorType  string
	ActorID    string
	Action     string
	TargetType string
	TargetID   string
	// RoomTypeID groups entries that belong to one room type's history.
	RoomTypeID string
	Metadata   map[string]any
}

type AuditCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type ListFilter struct {
	RoomTypeID   string
	Action       string
	ActionPrefix string
	TargetType   string
	TargetID     string
	ActorType    string
	StartAt      *time.Time
	EndAt        *time.Time
	Cursor       *AuditCursor
	Limit        int
}

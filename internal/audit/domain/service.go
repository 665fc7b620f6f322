package domain

import (
	"context"
	"time"

	"github.com/smallbiznis/roomledger/internal/errclass"
	"github.com/smallbiznis/roomledger/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListAuditLogRequest struct {
	pagination.Pagination
	RoomTypeID   string
	Action       string
	ActionPrefix string
	TargetType   string
	TargetID     string
	ActorType    string
	StartAt      *time.Time
	EndAt        *time.Time
}

type ListAuditLogResponse struct {
	pagination.PageInfo
	AuditLogs []AuditLog `json:"audit_logs"`
}

type Service interface {
	// Record writes entry using tx when given so the log commits with the mutation.
	Record(ctx context.Context, tx *gorm.DB, entry Entry) error
	List(ctx context.Context, req ListAuditLogRequest) (ListAuditLogResponse, error)
}

var (
	ErrInvalidPageToken = errclass.Input("invalid_page_token")
	ErrInvalidTimeRange = errclass.Input("invalid_time_range")
	ErrInvalidAction    = errclass.Input("invalid_action")
)

package authorization

import (
	"context"
	_ "embed"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	auditdomain "github.com/smallbiznis/roomledger/internal/audit/domain"
	"github.com/smallbiznis/roomledger/internal/errclass"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	RoleAdmin   = "admin"
	RoleBooking = "booking"
)

const (
	ObjectCalendar     = "calendar"
	ObjectAvailability = "availability"
	ObjectReservation  = "reservation"
	ObjectTariff       = "tariff"
	ObjectCancellation = "cancellation"
	ObjectAuditLog     = "audit_log"
)

const (
	ActionView       = "view"
	ActionReserve    = "reserve"
	ActionRelease    = "release"
	ActionManage     = "manage"
	ActionInitialize = "initialize"
	ActionQuote      = "quote"
)

var (
	ErrForbidden    = errclass.Forbidden("forbidden")
	ErrInvalidActor = errclass.Input("invalid_actor")
)

type Service interface {
	Authorize(ctx context.Context, role, object, action string) error
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	Audit    auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	audit    auditdomain.Service
}

// NewEnforcer loads policies from the casbin_rule table and seeds the
// built-in role grants.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	return buildEnforcer(adapter)
}

func buildEnforcer(adapter persist.Adapter) (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}

	var enforcer *casbin.SyncedEnforcer
	if adapter == nil {
		enforcer, err = casbin.NewSyncedEnforcer(m)
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m, adapter)
	}
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoBuildRoleLinks(true)
	if adapter != nil {
		enforcer.EnableAutoSave(true)
		if err := enforcer.LoadPolicy(); err != nil {
			return nil, err
		}
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		audit:    p.Audit,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, role, object, action string) error {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return ErrInvalidActor
	}

	allowed, err := s.enforcer.Enforce(subject(role), strings.TrimSpace(object), strings.TrimSpace(action))
	if err != nil {
		return err
	}
	if !allowed {
		s.auditDenied(ctx, role, object, action)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) auditDenied(ctx context.Context, role, object, action string) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, nil, auditdomain.Entry{
		Action:     "authorization.denied",
		TargetType: "authorization",
		TargetID:   object,
		Metadata: map[string]any{
			"role":   role,
			"object": object,
			"action": action,
		},
	})
	if err != nil {
		s.log.Warn("failed to audit denied request", zap.Error(err))
	}
}

func subject(role string) string {
	return "role:" + role
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// booking workflow
		{subject(RoleBooking), ObjectAvailability, ActionView},
		{subject(RoleBooking), ObjectCalendar, ActionView},
		{subject(RoleBooking), ObjectReservation, ActionReserve},
		{subject(RoleBooking), ObjectReservation, ActionRelease},
		{subject(RoleBooking), ObjectTariff, ActionQuote},
		{subject(RoleBooking), ObjectCancellation, ActionQuote},

		// administrators
		{subject(RoleAdmin), ObjectCalendar, ActionManage},
		{subject(RoleAdmin), ObjectCalendar, ActionInitialize},
		{subject(RoleAdmin), ObjectTariff, ActionManage},
		{subject(RoleAdmin), ObjectCancellation, ActionManage},
		{subject(RoleAdmin), ObjectAuditLog, ActionView},
	}
	for _, policy := range policies {
		has, err := enforcer.HasPolicy(policy[0], policy[1], policy[2])
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddPolicy(policy[0], policy[1], policy[2]); err != nil {
			return err
		}
	}

	has, err := enforcer.HasGroupingPolicy(subject(RoleAdmin), subject(RoleBooking))
	if err != nil {
		return err
	}
	if !has {
		if _, err := enforcer.AddGroupingPolicy(subject(RoleAdmin), subject(RoleBooking)); err != nil {
			return err
		}
	}
	return nil
}

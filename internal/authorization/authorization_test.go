package authorization

import (
	"context"
	"testing"

	auditdomain "github.com/smallbiznis/roomledger/internal/audit/domain"
	"github.com/smallbiznis/roomledger/internal/errclass"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingAudit struct {
	entries []auditdomain.Entry
}

func (r *recordingAudit) Record(ctx context.Context, tx *gorm.DB, entry auditdomain.Entry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *recordingAudit) List(ctx context.Context, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	return auditdomain.ListAuditLogResponse{}, nil
}

func newTestService(t *testing.T) (Service, *recordingAudit) {
	t.Helper()
	enforcer, err := buildEnforcer(nil)
	require.NoError(t, err)
	audit := &recordingAudit{}
	return NewService(Params{Log: zap.NewNop(), Enforcer: enforcer, Audit: audit}), audit
}

func TestBookingRoleCoversBookingWorkflow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	assert.NoError(t, svc.Authorize(ctx, RoleBooking, ObjectAvailability, ActionView))
	assert.NoError(t, svc.Authorize(ctx, RoleBooking, ObjectReservation, ActionReserve))
	assert.NoError(t, svc.Authorize(ctx, RoleBooking, ObjectReservation, ActionRelease))
	assert.NoError(t, svc.Authorize(ctx, RoleBooking, ObjectTariff, ActionQuote))
	assert.NoError(t, svc.Authorize(ctx, RoleBooking, ObjectCancellation, ActionQuote))
}

func TestBookingRoleCannotAdminister(t *testing.T) {
	svc, audit := newTestService(t)
	ctx := context.Background()

	err := svc.Authorize(ctx, RoleBooking, ObjectCalendar, ActionInitialize)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, errclass.ClassForbidden, errclass.Of(err))

	assert.ErrorIs(t, svc.Authorize(ctx, RoleBooking, ObjectTariff, ActionManage), ErrForbidden)

	require.Len(t, audit.entries, 2)
	assert.Equal(t, "authorization.denied", audit.entries[0].Action)
	assert.Equal(t, ObjectCalendar, audit.entries[0].TargetID)
}

func TestAdminInheritsBookingGrants(t *testing.T) {
	svc, audit := newTestService(t)
	ctx := context.Background()

	assert.NoError(t, svc.Authorize(ctx, RoleAdmin, ObjectCalendar, ActionInitialize))
	assert.NoError(t, svc.Authorize(ctx, RoleAdmin, ObjectAuditLog, ActionView))
	assert.NoError(t, svc.Authorize(ctx, " Admin ", ObjectReservation, ActionReserve))
	assert.Empty(t, audit.entries)
}

func TestUnknownOrMissingRole(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Authorize(ctx, "", ObjectAvailability, ActionView), ErrInvalidActor)
	assert.ErrorIs(t, svc.Authorize(ctx, "guest", ObjectAvailability, ActionView), ErrForbidden)
}

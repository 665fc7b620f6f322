package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	auditrepository "github.com/smallbiznis/roomledger/internal/audit/repository"
	auditservice "github.com/smallbiznis/roomledger/internal/audit/service"
	"github.com/smallbiznis/roomledger/internal/clock"
	"github.com/smallbiznis/roomledger/internal/config"
	"github.com/smallbiznis/roomledger/internal/errclass"
	hotelrepository "github.com/smallbiznis/roomledger/internal/hotel/repository"
	hotelservice "github.com/smallbiznis/roomledger/internal/hotel/service"
	"github.com/smallbiznis/roomledger/internal/inventory/domain"
	"github.com/smallbiznis/roomledger/internal/inventory/repository"
	"github.com/smallbiznis/roomledger/internal/lock"
	"github.com/smallbiznis/roomledger/pkg/daterange"
	"github.com/smallbiznis/roomledger/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type harness struct {
	db     *gorm.DB
	svc    domain.Service
	fix    dbtest.Fixture
	locker lock.Locker
}

func newHarness(t *testing.T, locker lock.Locker, inv config.InventoryConfig) *harness {
	t.Helper()

	conn := dbtest.Open(t)
	node := dbtest.MustNode(t)
	fix := dbtest.Seed(t, conn, node)
	log := zap.NewNop()
	fake := clock.NewFakeClock(time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))

	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	svc := New(Params{
		DB:     conn,
		Log:    log,
		GenID:  node,
		Config: config.Config{Inventory: inv},
		Repo:   repository.Provide(),
		Audit: auditservice.New(auditservice.Params{
			DB:    conn,
			Log:   log,
			GenID: node,
			Repo:  auditrepository.Provide(),
			Clock: fake,
		}),
		Hotels: hotelservice.New(hotelservice.Params{
			DB:   conn,
			Log:  log,
			Repo: hotelrepository.Provide(),
		}),
		Locker: locker,
		Clock:  fake,
	})
	return &harness{db: conn, svc: svc, fix: fix, locker: locker}
}

func mustStay(t *testing.T, checkIn, checkOut string) daterange.Stay {
	t.Helper()
	stay, err := daterange.NewStay(daterange.MustParseDate(checkIn), daterange.MustParseDate(checkOut))
	require.NoError(t, err)
	return stay
}

func (h *harness) initialize(t *testing.T, from, to string, total int) domain.InitializeResult {
	t.Helper()
	result, err := h.svc.InitializeRange(context.Background(), domain.InitializeRequest{
		RoomTypeID: h.fix.RoomType.ID,
		TotalRooms: total,
		From:       daterange.MustParseDate(from),
		To:         daterange.MustParseDate(to),
	})
	require.NoError(t, err)
	return result
}

func (h *harness) day(t *testing.T, date string) *domain.CalendarDay {
	t.Helper()
	day, err := h.svc.Get(context.Background(), h.fix.RoomType.ID, daterange.MustParseDate(date))
	require.NoError(t, err)
	return day
}

func (h *harness) auditCount(t *testing.T, action string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, h.db.Table("audit_logs").Where("action = ?", action).Count(&count).Error)
	return count
}

func TestInitializeRangeIsIdempotent(t *testing.T) {
	h := newHarness(t, nil, config.InventoryConfig{InitBatchSize: 7})

	first := h.initialize(t, "2026-03-01", "2026-03-31", 10)
	assert.Equal(t, 31, first.Days)
	assert.EqualValues(t, 31, first.Created)
	assert.EqualValues(t, 0, first.Skipped)
	assert.True(t, first.Completed)
	assert.NotEmpty(t, first.RunID)

	second := h.initialize(t, "2026-03-01", "2026-03-31", 5)
	assert.EqualValues(t, 0, second.Created)
	assert.EqualValues(t, 31, second.Skipped)
	assert.NotEqual(t, first.RunID, second.RunID)

	day := h.day(t, "2026-03-15")
	require.NotNil(t, day)
	assert.Equal(t, 10, day.TotalRooms)
	assert.EqualValues(t, 2, h.auditCount(t, "inventory.initialize"))
}

func TestInitializeRangeFillsOnlyMissingNights(t *testing.T) {
	h := newHarness(t, nil, config.InventoryConfig{})
	h.initialize(t, "2026-03-10", "2026-03-12", 4)

	result := h.initialize(t, "2026-03-08", "2026-03-14", 6)

	assert.EqualValues(t, 4, result.Created)
	assert.EqualValues(t, 3, result.Skipped)
	assert.Equal(t, 4, h.day(t, "2026-03-11").TotalRooms)
	assert.Equal(t, 6, h.day(t, "2026-03-08").TotalRooms)
}

func TestInitializeRangeCountsCreatedPerBatch(t *testing.T) {
	h := newHarness(t, nil, config.InventoryConfig{InitBatchSize: 2})
	h.initialize(t, "2026-03-10", "2026-03-10", 4)
	h.initialize(t, "2026-03-13", "2026-03-13", 4)

	result := h.initialize(t, "2026-03-09", "2026-03-14", 6)

	assert.EqualValues(t, 4, result.Created)
	assert.EqualValues(t, 2, result.Skipped)
	assert.Equal(t, 4, h.day(t, "2026-03-10").TotalRooms)
	assert.Equal(t, 6, h.day(t, "2026-03-14").TotalRooms)

	var rows int64
	require.NoError(t, h.db.Table("calendar_days").Count(&rows).Error)
	assert.EqualValues(t, 6, rows)

	var runs int64
	require.NoError(t, h.db.Table("audit_logs").
		Where("room_type_id = ? AND action = ?", h.fix.RoomType.ID.String(), "inventory.initialize").
		Count(&runs).Error)
	assert.EqualValues(t, 3, runs)
}

func TestInitializeRangeValidation(t *testing.T) {
	h := newHarness(t, nil, config.InventoryConfig{MaxInitDays: 10})
	ctx := context.Background()

	_, err := h.svc.InitializeRange(ctx, domain.InitializeRequest{
		RoomTypeID: h.fix.RoomType.ID,
		TotalRooms: 1,
		From:       daterange.MustParseDate("2026-03-10"),
		To:         daterange.MustParseDate("2026-03-01"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRange)

	_, err = h.svc.InitializeRange(ctx, domain.InitializeRequest{
		RoomTypeID: h.fix.RoomType.ID,
		TotalRooms: 1,
		From:       daterange.MustParseDate("2026-03-01"),
		To:         daterange.MustParseDate("2026-03-11"),
	})
	assert.ErrorIs(t, err, domain.ErrRangeTooLong)

	_, err = h.svc.InitializeRange(ctx, domain.InitializeRequest{
		RoomTypeID: h.fix.RoomType.ID,
		TotalRooms: -1,
		From:       daterange.MustParseDate("2026-03-01"),
		To:         daterange.MustParseDate("2026-03-02"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCapacity)
	assert.Equal(t, errclass.ClassInput, errclass.Of(err))
}

func TestInitializeRangeRefusesConcurrentRun(t *testing.T) {
	locker := lock.NewLocalLocker()
	h := newHarness(t, locker, config.InventoryConfig{})

	_, ok, err := locker.TryLock(context.Background(), "inventory:init:"+h.fix.RoomType.ID.String(), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = h.svc.InitializeRange(context.Background(), domain.InitializeRequest{
		RoomTypeID: h.fix.RoomType.ID,
		TotalRooms: 3,
		From:       daterange.MustParseDate("2026-03-01"),
		To:         daterange.MustParseDate("2026-03-02"),
	})
	assert.ErrorIs(t, err, domain.ErrInitializationInProgress)
	assert.Equal(t, errclass.ClassConflict, errclass.Of(err))
}

// cancellingLocker cancels the run as soon as the lock is granted.
type cancellingLocker struct {
	lock.Locker
	cancel context.CancelFunc
}

func (l *cancellingLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token, ok, err := l.Locker.TryLock(ctx, key, ttl)
	l.cancel()
	return token, ok, err
}

func TestInitializeRangeStopsOnCancelAndCanBeRepeated(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	locker := &cancellingLocker{Locker: lock.NewLocalLocker(), cancel: cancel}
	h := newHarness(t, locker, config.InventoryConfig{InitBatchSize: 2})

	result, err := h.svc.InitializeRange(ctx, domain.InitializeRequest{
		RoomTypeID: h.fix.RoomType.ID,
		TotalRooms: 3,
		From:       daterange.MustParseDate("2026-03-01"),
		To:         daterange.MustParseDate("2026-03-05"),
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, result.Completed)
	assert.EqualValues(t, 0, result.Created)
	assert.EqualValues(t, 1, h.auditCount(t, "inventory.initialize"))

	locker.cancel = func() {}
	rerun := h.initialize(t, "2026-03-01", "2026-03-05", 3)
	assert.True(t, rerun.Completed)
	assert.EqualValues(t, 5, rerun.Created)
}

func TestReserveAndReleaseAreInverse(t *testing.T) {
	h := newHarness(t, nil, config.InventoryConfig{})
	h.initialize(t, "2026-03-01", "2026-03-10", 5)
	ctx := context.Background()
	stay := mustStay(t, "2026-03-02", "2026-03-05")

	views, err := h.svc.Reserve(ctx, domain.ReserveRequest{RoomTypeID: h.fix.RoomType.ID, Stay: stay, Rooms: 2, Reference: "BK-1"})
	require.NoError(t, err)
	require.Len(t, views, 3)
	for _, view := range views {
		assert.Equal(t, 2, view.ReservedRooms)
		assert.Equal(t, 3, view.AvailableRooms)
	}
	assert.Equal(t, 0, h.day(t, "2026-03-05").ReservedRooms)

	_, err = h.svc.Release(ctx, domain.ReleaseRequest{RoomTypeID: h.fix.RoomType.ID, Stay: stay, Rooms: 2, Reference: "BK-1"})
	require.NoError(t, err)

	for _, date := range stay.Dates() {
		day := h.day(t, date.String())
		assert.Equal(t, 0, day.ReservedRooms)
		assert.EqualValues(t, 3, day.Version)
	}
	assert.EqualValues(t, 1, h.auditCount(t, "inventory.reserve"))
	assert.EqualValues(t, 1, h.auditCount(t, "inventory.release"))
}

func TestReserveIsAllOrNothing(t *testing.T) {
	h := newHarness(t, nil, config.InventoryConfig{})
	h.initialize(t, "2026-03-01", "2026-03-10", 2)
	ctx := context.Background()

	_, err := h.svc.Reserve(ctx, domain.ReserveRequest{
		RoomTypeID: h.fix.RoomType.ID,
		Stay:       mustStay(t, "2026-03-03", "2026-03-04"),
		Rooms:      2,
	})
	require.NoError(t, err)

	_, err = h.svc.Reserve(ctx, domain.ReserveRequest{
		RoomTypeID: h.fix.RoomType.ID,
		Stay:       mustStay(t, "2026-03-01", "2026-03-05"),
		Rooms:      1,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientCapacity)
	var capErr *domain.CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, "2026-03-03", capErr.Date.String())
	assert.Equal(t, 0, capErr.Available)
	assert.True(t, capErr.Initialized)

	assert.Equal(t, 0, h.day(t, "2026-03-01").ReservedRooms)
	assert.Equal(t, 0, h.day(t, "2026-03-02").ReservedRooms)
	assert.EqualValues(t, 1, h.auditCount(t, "inventory.reserve"))
}

func TestReserveOnUninitializedNightReportsCapacity(t *testing.T) {
	h := newHarness(t, nil, config.InventoryConfig{})
	h.initialize(t, "2026-03-01", "2026-03-02", 2)

	_, err := h.svc.Reserve(context.Background(), domain.ReserveRequest{
		RoomTypeID: h.fix.RoomType.ID,
		Stay:       mustStay(t, "2026-03-01", "2026-03-04"),
		Rooms:      1,
	})

	var capErr *domain.CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, "2026-03-03", capErr.Date.String())
	assert.False(t, capErr.Initialized)
	assert.Equal(t, 0, h.day(t, "2026-03-01").ReservedRooms)
}

func TestConcurrentReserveForLastRoom(t *testing.T) {
	h := newHarness(t, nil, config.InventoryConfig{})
	h.initialize(t, "2026-03-01", "2026-03-03", 1)
	stay := mustStay(t, "2026-03-01", "2026-03-03")

	const callers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.svc.Reserve(context.Background(), domain.ReserveRequest{
				RoomTypeID: h.fix.RoomType.ID,
				Stay:       stay,
				Rooms:      1,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrInsufficientCapacity):
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, callers-1, rejected)
	for _, date := range stay.Dates() {
		day := h.day(t, date.String())
		assert.Equal(t, 1, day.ReservedRooms)
		assert.LessOrEqual(t, day.ReservedRooms+day.BlockedRooms, day.TotalRooms)
	}
}

func TestReleaseCannotExceedReserved(t *testing.T) {
	h := newHarness(t, nil, config.InventoryConfig{})
	h.initialize(t, "2026-03-01", "2026-03-05", 4)
	ctx := context.Background()
	stay := mustStay(t, "2026-03-01", "2026-03-03")

	_, err := h.svc.Reserve(ctx, domain.ReserveRequest{RoomTypeID: h.fix.RoomType.ID, Stay: stay, Rooms: 1})
	require.NoError(t, err)

	_, err = h.svc.Release(ctx, domain.ReleaseRequest{RoomTypeID: h.fix.RoomType.ID, Stay: stay, Rooms: 2})
	assert.ErrorIs(t, err, domain.ErrReleaseExceedsReserved)
	assert.Equal(t, 1, h.day(t, "2026-03-01").ReservedRooms)
}

func TestMutationsRejectInvalidInput(t *testing.T) {
	h := newHarness(t, nil, config.InventoryConfig{})
	ctx := context.Background()

	_, err := h.svc.Reserve(ctx, domain.ReserveRequest{RoomTypeID: h.fix.RoomType.ID, Stay: mustStay(t, "2026-03-01", "2026-03-02"), Rooms: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidRooms)

	_, err = h.svc.Reserve(ctx, domain.ReserveRequest{RoomTypeID: h.fix.RoomType.ID, Rooms: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidStay)

	_, err = h.svc.Release(ctx, domain.ReleaseRequest{Stay: mustStay(t, "2026-03-01", "2026-03-02"), Rooms: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidRoomType)
}

func TestStayLengthIsBounded(t *testing.T) {
	h := newHarness(t, nil, config.InventoryConfig{MaxStayNights: 3})
	h.initialize(t, "2026-03-01", "2026-03-10", 5)
	ctx := context.Background()

	_, err := h.svc.Reserve(ctx, domain.ReserveRequest{RoomTypeID: h.fix.RoomType.ID, Stay: mustStay(t, "2026-03-01", "2026-03-05"), Rooms: 1})
	assert.ErrorIs(t, err, domain.ErrStayTooLong)
	assert.Equal(t, errclass.ClassInput, errclass.Of(err))
	assert.Equal(t, 0, h.day(t, "2026-03-01").ReservedRooms)

	_, err = h.svc.GetRange(ctx, h.fix.RoomType.ID, mustStay(t, "2026-03-01", "2026-03-05"))
	assert.ErrorIs(t, err, domain.ErrStayTooLong)

	_, err = h.svc.Reserve(ctx, domain.ReserveRequest{RoomTypeID: h.fix.RoomType.ID, Stay: mustStay(t, "2026-03-01", "2026-03-04"), Rooms: 1})
	require.NoError(t, err)
}

func TestBlockConsumesCapacity(t *testing.T) {
	h := newHarness(t, nil, config.InventoryConfig{})
	h.initialize(t, "2026-03-01", "2026-03-02", 3)
	ctx := context.Background()
	stay := mustStay(t, "2026-03-01", "2026-03-02")

	views, err := h.svc.Block(ctx, domain.BlockRequest{RoomTypeID: h.fix.RoomType.ID, Stay: stay, Rooms: 2, Reason: "maintenance"})
	require.NoError(t, err)
	assert.Equal(t, 1, views[0].AvailableRooms)

	_, err = h.svc.Reserve(ctx, domain.ReserveRequest{RoomTypeID: h.fix.RoomType.ID, Stay: stay, Rooms: 2})
	assert.ErrorIs(t, err, domain.ErrInsufficientCapacity)

	_, err = h.svc.Unblock(ctx, domain.BlockRequest{RoomTypeID: h.fix.RoomType.ID, Stay: stay, Rooms: 3})
	assert.ErrorIs(t, err, domain.ErrUnblockExceedsBlocked)

	views, err = h.svc.Unblock(ctx, domain.BlockRequest{RoomTypeID: h.fix.RoomType.ID, Stay: stay, Rooms: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, views[0].AvailableRooms)
}

func TestUpsertCreatesAndGuardsCapacity(t *testing.T) {
	h := newHarness(t, nil, config.InventoryConfig{})
	ctx := context.Background()
	date := daterange.MustParseDate("2026-04-01")

	day, err := h.svc.Upsert(ctx, domain.UpsertRequest{RoomTypeID: h.fix.RoomType.ID, Date: date, TotalRooms: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, day.TotalRooms)
	assert.EqualValues(t, 1, day.Version)

	_, err = h.svc.Reserve(ctx, domain.ReserveRequest{
		RoomTypeID: h.fix.RoomType.ID,
		Stay:       mustStay(t, "2026-04-01", "2026-04-02"),
		Rooms:      2,
	})
	require.NoError(t, err)

	_, err = h.svc.Upsert(ctx, domain.UpsertRequest{RoomTypeID: h.fix.RoomType.ID, Date: date, TotalRooms: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidCapacity)

	day, err = h.svc.Upsert(ctx, domain.UpsertRequest{RoomTypeID: h.fix.RoomType.ID, Date: date, TotalRooms: 6, BlockedRooms: 1})
	require.NoError(t, err)
	assert.Equal(t, 6, day.TotalRooms)
	assert.Equal(t, 2, day.ReservedRooms)
	assert.Equal(t, 1, day.BlockedRooms)
	assert.Equal(t, 3, day.AvailableRooms())

	_, err = h.svc.Upsert(ctx, domain.UpsertRequest{RoomTypeID: 42, Date: date, TotalRooms: 1})
	assert.Equal(t, errclass.ClassNotFound, errclass.Of(err))
}

func TestDeleteRefusesReservedNight(t *testing.T) {
	h := newHarness(t, nil, config.InventoryConfig{})
	h.initialize(t, "2026-03-01", "2026-03-02", 2)
	ctx := context.Background()

	_, err := h.svc.Reserve(ctx, domain.ReserveRequest{
		RoomTypeID: h.fix.RoomType.ID,
		Stay:       mustStay(t, "2026-03-01", "2026-03-02"),
		Rooms:      1,
	})
	require.NoError(t, err)

	err = h.svc.Delete(ctx, h.fix.RoomType.ID, daterange.MustParseDate("2026-03-01"))
	assert.ErrorIs(t, err, domain.ErrDayHasReservations)

	require.NoError(t, h.svc.Delete(ctx, h.fix.RoomType.ID, daterange.MustParseDate("2026-03-02")))
	assert.Nil(t, h.day(t, "2026-03-02"))

	err = h.svc.Delete(ctx, h.fix.RoomType.ID, daterange.MustParseDate("2026-03-02"))
	assert.ErrorIs(t, err, domain.ErrDayNotFound)
}

func TestGetRangeMarksUninitializedNights(t *testing.T) {
	h := newHarness(t, nil, config.InventoryConfig{})
	h.initialize(t, "2026-03-01", "2026-03-01", 4)

	views, err := h.svc.GetRange(context.Background(), h.fix.RoomType.ID, mustStay(t, "2026-03-01", "2026-03-03"))
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.True(t, views[0].Initialized)
	assert.Equal(t, 4, views[0].AvailableRooms)
	assert.False(t, views[1].Initialized)
	assert.Equal(t, 0, views[1].AvailableRooms)
}

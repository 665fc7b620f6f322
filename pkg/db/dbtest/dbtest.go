// Package dbtest opens isolated in-memory sqlite databases for tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	hoteldomain "github.com/smallbiznis/roomledger/internal/hotel/domain"
	"github.com/smallbiznis/roomledger/internal/migration"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open returns a migrated database private to t.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Discard,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := migration.AutoMigrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func MustNode(t testing.TB) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return node
}

// Fixture is a hotel with one room type and one meal plan.
type Fixture struct {
	Hotel    hoteldomain.Hotel
	RoomType hoteldomain.RoomType
	MealPlan hoteldomain.MealPlan
}

func Seed(t testing.TB, conn *gorm.DB, node *snowflake.Node) Fixture {
	t.Helper()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := Fixture{
		Hotel: hoteldomain.Hotel{ID: node.Generate(), Name: "Harbour View", Currency: "USD", CreatedAt: now},
	}
	f.RoomType = hoteldomain.RoomType{ID: node.Generate(), HotelID: f.Hotel.ID, Code: "DLX", Name: "Deluxe", CreatedAt: now}
	f.MealPlan = hoteldomain.MealPlan{ID: node.Generate(), Code: "BB", Name: "Bed & Breakfast", Active: true, CreatedAt: now}

	for _, row := range []any{&f.Hotel, &f.RoomType, &f.MealPlan} {
		if err := conn.Create(row).Error; err != nil {
			t.Fatalf("seed %T: %v", row, err)
		}
	}
	return f
}

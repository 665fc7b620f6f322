package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/smallbiznis/roomledger/internal/audit/domain"
	cancellationdomain "github.com/smallbiznis/roomledger/internal/cancellation/domain"
	hoteldomain "github.com/smallbiznis/roomledger/internal/hotel/domain"
	inventorydomain "github.com/smallbiznis/roomledger/internal/inventory/domain"
	tariffdomain "github.com/smallbiznis/roomledger/internal/tariff/domain"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "migrations"

// Files exposes the embedded SQL migrations rooted at the migrations directory.
func Files() fs.FS {
	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		panic(err)
	}
	return sub
}

// RunMigrations applies the embedded SQL migrations to a postgres database.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	source, err := iofs.New(Files(), ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// migrator.Close would close the shared *sql.DB.
	return nil
}

// Models lists every table the engine owns.
func Models() []any {
	return []any{
		&hoteldomain.Hotel{},
		&hoteldomain.RoomType{},
		&hoteldomain.MealPlan{},
		&inventorydomain.CalendarDay{},
		&tariffdomain.TariffRule{},
		&cancellationdomain.PolicyTier{},
		&auditdomain.AuditLog{},
	}
}

// AutoMigrate creates the schema from the models for sqlite and mysql.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

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
	bookingdomain "github.com/montessori/ecole/internal/booking/domain"
	familydomain "github.com/montessori/ecole/internal/family/domain"
	invoicedomain "github.com/montessori/ecole/internal/invoice/domain"
	justificatifdomain "github.com/montessori/ecole/internal/justificatif/domain"
	preinscriptiondomain "github.com/montessori/ecole/internal/preinscription/domain"
	reinscriptiondomain "github.com/montessori/ecole/internal/reinscription/domain"
	tariffdomain "github.com/montessori/ecole/internal/tariff/domain"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Models lists every persisted type, parents first.
func Models() []any {
	return []any{
		&familydomain.Parent{},
		&familydomain.Child{},
		&familydomain.Enrollment{},
		&familydomain.RegulationSignature{},
		&tariffdomain.Tariff{},
		&bookingdomain.Booking{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceLine{},
		&invoicedomain.Payment{},
		&invoicedomain.InvoiceSequence{},
		&reinscriptiondomain.Reinscription{},
		&preinscriptiondomain.Preinscription{},
		&justificatifdomain.JustificatifType{},
		&justificatifdomain.Justificatif{},
	}
}

// RunMigrations applies the embedded postgres migrations.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
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
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// AutoMigrate creates the schema from the models on dialects without SQL migrations.
func AutoMigrate(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	if err := conn.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Apply migrates conn according to its dialect.
func Apply(conn *gorm.DB, dbType string) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	if dbType != "postgres" {
		return AutoMigrate(conn)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB)
}

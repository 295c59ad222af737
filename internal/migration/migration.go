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
	billingcycledomain "github.com/smallbiznis/billingengine/internal/billingcycle/domain"
	companydomain "github.com/smallbiznis/billingengine/internal/company/domain"
	discountdomain "github.com/smallbiznis/billingengine/internal/discount/domain"
	invoicedomain "github.com/smallbiznis/billingengine/internal/invoice/domain"
	ledgerdomain "github.com/smallbiznis/billingengine/internal/ledger/domain"
	plandomain "github.com/smallbiznis/billingengine/internal/plan/domain"
	taxdomain "github.com/smallbiznis/billingengine/internal/tax/domain"
	timeentrydomain "github.com/smallbiznis/billingengine/internal/timeentry/domain"
	usagedomain "github.com/smallbiznis/billingengine/internal/usage/domain"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies the embedded postgres schema.
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

// Models lists every persisted model in dependency order.
func Models() []any {
	return []any{
		&companydomain.Company{},
		&plandomain.BillingPlan{},
		&plandomain.ServiceCatalog{},
		&plandomain.PlanService{},
		&plandomain.CompanyBillingPlan{},
		&billingcycledomain.CompanyBillingCycle{},
		&discountdomain.Discount{},
		&discountdomain.PlanDiscount{},
		&taxdomain.TaxRate{},
		&taxdomain.CompanyTaxRate{},
		&usagedomain.UsageRecord{},
		&usagedomain.BucketPlan{},
		&usagedomain.BucketUsage{},
		&timeentrydomain.User{},
		&timeentrydomain.Ticket{},
		&timeentrydomain.Project{},
		&timeentrydomain.ProjectPhase{},
		&timeentrydomain.ProjectTask{},
		&timeentrydomain.TimeEntry{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
		&ledgerdomain.Transaction{},
	}
}

// AutoMigrate creates the schema from the gorm models for non-postgres
// dialects, which the SQL migrations do not target.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

package migration

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/smallbiznis/billingengine/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(embeddedMigrations, migrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Fatalf("unexpected migration file %s", name)
		}
	}
	assert.Equal(t, ups, downs)
}

func TestEmbeddedMigrationsCoverModels(t *testing.T) {
	entries, err := fs.ReadDir(embeddedMigrations, migrationsDir)
	require.NoError(t, err)

	var schema strings.Builder
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}
		body, err := fs.ReadFile(embeddedMigrations, migrationsDir+"/"+entry.Name())
		require.NoError(t, err)
		schema.Write(body)
	}

	db := dbtest.Open(t)
	for _, model := range Models() {
		stmt := db.Model(model).Statement
		require.NoError(t, stmt.Parse(model))
		assert.Contains(t, schema.String(), "CREATE TABLE IF NOT EXISTS "+stmt.Schema.Table+" (", stmt.Schema.Table)
	}
}

func TestAutoMigrateCreatesTables(t *testing.T) {
	db := dbtest.Open(t)

	require.NoError(t, AutoMigrate(db))
	for _, table := range []string{"companies", "invoices", "invoice_items", "transactions", "bucket_usage", "time_entries"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex("invoices", "ux_invoices_company_cycle"))
}

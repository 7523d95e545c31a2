package migration

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/montessori/ecole/pkg/db"
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

func TestEmbeddedMigrationsCreateEveryTable(t *testing.T) {
	var all strings.Builder
	err := fs.WalkDir(embeddedMigrations, migrationsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".up.sql") {
			return err
		}
		content, err := fs.ReadFile(embeddedMigrations, path)
		if err != nil {
			return err
		}
		all.Write(content)
		return nil
	})
	require.NoError(t, err)

	for _, model := range Models() {
		table := model.(interface{ TableName() string }).TableName()
		assert.Contains(t, all.String(), "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
}

func TestApplyAutoMigratesSQLite(t *testing.T) {
	conn := db.NewTest(t)

	require.NoError(t, Apply(conn, "sqlite"))
	for _, table := range []string{"parents", "children", "invoices", "reinscriptions", "preinscriptions", "justificatifs"} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}
}

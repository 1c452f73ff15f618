package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/helpdesk-ml/helpdesk/internal/config"
)

func TestSQLiteMigrationsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	cfg := config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    fmt.Sprintf("file:migrate_%d?mode=memory&cache=shared", time.Now().UnixNano()),
	}
	db, err := OpenSQL(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunSQLMigrations(ctx, db, zap.NewNop()))
	require.NoError(t, RunSQLMigrations(ctx, db, zap.NewNop()))

	var tables []string
	require.NoError(t, db.SelectContext(ctx, &tables,
		`SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name`))
	assert.Equal(t, []string{
		"admins", "assignments", "model_logs", "notifications",
		"system_logs", "technicians", "tickets", "users",
	}, tables)
}

func TestMySQLDSNForcesOptions(t *testing.T) {
	dsn, err := mysqlDSN("helpdesk:secret@tcp(localhost:3306)/helpdesk")
	require.NoError(t, err)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "clientFoundRows=true")
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("CREATE TABLE a (id INT);\n\n CREATE TABLE b (id INT);\n")
	assert.Equal(t, []string{"CREATE TABLE a (id INT)", "CREATE TABLE b (id INT)"}, stmts)
}

func TestOpenSQLRejectsPostgres(t *testing.T) {
	_, err := OpenSQL(context.Background(), config.DatabaseConfig{Driver: config.DriverPostgres}, zap.NewNop())
	assert.Error(t, err)
}

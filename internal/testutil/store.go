// Package testutil builds throwaway backends for package tests.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/helpdesk-ml/helpdesk/internal/config"
	"github.com/helpdesk-ml/helpdesk/internal/persistence"
	"github.com/helpdesk-ml/helpdesk/internal/repository/sqlstore"
)

var dbSeq atomic.Int64

// NewSQLiteStore returns a migrated in-memory store closed at test end.
func NewSQLiteStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	ctx := context.Background()
	cfg := config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    fmt.Sprintf("file:helpdesk_test_%d?mode=memory&cache=shared", dbSeq.Add(1)),
	}
	db, err := persistence.OpenSQL(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, persistence.RunSQLMigrations(ctx, db, zap.NewNop()))

	store := sqlstore.New(db)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

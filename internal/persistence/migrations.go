package persistence

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

//go:embed migrations
var migrationFiles embed.FS

type execFunc func(ctx context.Context, statement string) error

// RunPostgresMigrations applies the embedded Postgres schema.
func RunPostgresMigrations(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	if pool == nil {
		logger.Warn("no postgres pool available; skipping migrations")
		return nil
	}
	return runMigrations(ctx, "postgres", func(ctx context.Context, stmt string) error {
		_, err := pool.Exec(ctx, stmt)
		return err
	}, logger)
}

// RunSQLMigrations applies the embedded schema matching the sqlx driver.
func RunSQLMigrations(ctx context.Context, db *sqlx.DB, logger *zap.Logger) error {
	dialect, err := dialectFor(db.DriverName())
	if err != nil {
		return err
	}
	return runMigrations(ctx, dialect, func(ctx context.Context, stmt string) error {
		_, err := db.ExecContext(ctx, stmt)
		return err
	}, logger)
}

func dialectFor(driverName string) (string, error) {
	switch driverName {
	case sqliteDriverName:
		return "sqlite", nil
	case mysqlDriverName:
		return "mysql", nil
	}
	return "", fmt.Errorf("no migrations for driver %q", driverName)
}

func runMigrations(ctx context.Context, dialect string, exec execFunc, logger *zap.Logger) error {
	dir := path.Join("migrations", dialect)
	entries, err := fs.ReadDir(migrationFiles, dir)
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	filenames := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		filenames = append(filenames, entry.Name())
	}
	sort.Strings(filenames)

	for _, name := range filenames {
		content, err := fs.ReadFile(migrationFiles, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		logger.Info("applying migration", zap.String("dialect", dialect), zap.String("file", name))
		for _, stmt := range splitStatements(string(content)) {
			if err := exec(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", name, err)
			}
		}
	}

	logger.Info("migrations applied", zap.Int("count", len(filenames)))
	return nil
}

// splitStatements cuts a script on semicolons. The schema files contain no
// semicolons inside literals.
func splitStatements(script string) []string {
	var out []string
	for _, part := range strings.Split(script, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

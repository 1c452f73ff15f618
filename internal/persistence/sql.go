package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/helpdesk-ml/helpdesk/internal/config"
)

const (
	sqliteDriverName = "sqlite3"
	mysqlDriverName  = "mysql"
)

// OpenSQL opens the embedded SQLite file or a MySQL server through sqlx.
func OpenSQL(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*sqlx.DB, error) {
	var driverName string
	dsn := cfg.DSN
	switch cfg.Driver {
	case config.DriverSQLite:
		driverName = sqliteDriverName
	case config.DriverMySQL:
		driverName = mysqlDriverName
		var err error
		if dsn, err = mysqlDSN(dsn); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("driver %q is not served by sqlx", cfg.Driver)
	}

	db, err := sqlx.ConnectContext(ctx, driverName, dsn)
	if err != nil {
		return nil, err
	}

	if driverName == sqliteDriverName {
		// One writer; transactions must not wait on a second connection.
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	} else {
		if cfg.MaxConns > 0 {
			db.SetMaxOpenConns(int(cfg.MaxConns))
		}
		if cfg.MinConns > 0 {
			db.SetMaxIdleConns(int(cfg.MinConns))
		}
		if cfg.ConnMaxLifeSec > 0 {
			db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifeSec) * time.Second)
		}
		if cfg.ConnMaxIdleSec > 0 {
			db.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleSec) * time.Second)
		}
	}

	logger.Info("connected to database", zap.String("driver", cfg.Driver))
	return db, nil
}

// mysqlDSN forces the options the repositories rely on: DATETIME columns
// scan into time.Time and UPDATE reports matched rather than changed rows.
func mysqlDSN(raw string) (string, error) {
	mc, err := mysql.ParseDSN(raw)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	mc.ParseTime = true
	mc.ClientFoundRows = true
	if mc.Loc == nil {
		mc.Loc = time.UTC
	}
	return mc.FormatDSN(), nil
}

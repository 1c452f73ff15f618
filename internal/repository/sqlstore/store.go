// Package sqlstore implements the repository interfaces on database/sql
// drivers through sqlx. It serves the embedded SQLite file and MySQL.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/helpdesk-ml/helpdesk/internal/repository"
)

// querier is satisfied by both *sqlx.DB and *sqlx.Tx.
type querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// Store serves every repository from a sqlx handle.
type Store struct {
	db *sqlx.DB
}

// New wraps db. The schema must already exist.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// DB exposes the handle for migrations and tooling.
func (s *Store) DB() *sqlx.DB { return s.db }

func repos(q querier) repository.Repositories {
	return repository.Repositories{
		Users:         &userRepository{q: q},
		Admins:        &adminRepository{q: q},
		Technicians:   &technicianRepository{q: q},
		Tickets:       &ticketRepository{q: q},
		Assignments:   &assignmentRepository{q: q},
		Notifications: &notificationRepository{q: q},
		AuditLogs:     &auditLogRepository{q: q},
		ModelLogs:     &modelLogRepository{q: q},
	}
}

func (s *Store) Repos() repository.Repositories {
	return repos(s.db)
}

func (s *Store) WithTx(ctx context.Context, fn func(repository.Repositories) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(repos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}

func exec(ctx context.Context, q querier, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, q.Rebind(query), args...)
}

// execOne runs a write that must touch exactly one row.
func execOne(ctx context.Context, q querier, query string, args ...any) error {
	res, err := exec(ctx, q, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func insert(ctx context.Context, q querier, query string, args ...any) (int64, error) {
	res, err := exec(ctx, q, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func get(ctx context.Context, q querier, dest any, query string, args ...any) error {
	return notFound(q.GetContext(ctx, dest, q.Rebind(query), args...))
}

func selectRows(ctx context.Context, q querier, dest any, query string, args ...any) error {
	return q.SelectContext(ctx, dest, q.Rebind(query), args...)
}

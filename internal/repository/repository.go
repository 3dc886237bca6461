// Package repository implements raw-SQL persistence for all entities.
// Repositories are constructed over a DBTX so the same code runs against
// the pooled *sql.DB or inside a handler-owned *sql.Tx; every mutating
// request binds its repositories to one transaction so the row change,
// the link reconciliation and the audit append commit or roll back as a
// unit.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// DBTX is the subset of database/sql used by repositories. Both *sql.DB
// and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ErrNotFound is returned when a referenced row is absent. Handlers
// translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned on unique-constraint violations (duplicate
// email, slug or media URL) and when a delete cannot proceed because of
// dependent rows, such as removing a category that still has live
// contents. Handlers translate it into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// isDuplicate reports whether err is a MySQL duplicate-key violation.
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

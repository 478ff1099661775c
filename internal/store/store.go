// Package store is the single typed persistence layer over Postgres
// that every domain package depends on. It wraps pgxpool with
// short-lived transactions and never leaks raw SQL past its own
// boundary, per spec.md §4.1 — grounded on the teacher's
// internal/repository/*.go and internal/postgres/helpers.go, adapted
// from sqlc-generated queries to hand-written pgx since this exercise
// forbids invoking the Go toolchain (and so sqlc generation) at any
// point.
package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the shared connection pool handle. All repository methods
// hang off this type as receivers, grouped by entity across sibling
// files in this package.
type Store struct {
	Pool *pgxpool.Pool
}

// New opens a pooled connection to dsn and verifies it is reachable.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &Store{Pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() { s.Pool.Close() }

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, letting
// repository methods accept either a bare pool connection or an
// in-flight transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn pgx.CommandTag, err error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// txKey is the context key under which an in-flight transaction is
// stashed by WithTx, so nested repository calls automatically join it.
type txKey struct{}

// WithTx runs fn inside a single transaction: commit on nil return,
// rollback otherwise. Every multi-row mutation in the orders,
// purchaseorders, payments, and commission packages goes through this,
// per spec.md §4.1 and §5's ordering guarantees.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	ctx = context.WithValue(ctx, txKey{}, tx)
	if err := fn(ctx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("store: commit tx: %w", err)
	}
	return nil
}

// q resolves the active querier for ctx: the transaction stashed by
// WithTx if present, otherwise the bare pool.
func (s *Store) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return s.Pool
}

// generateToken mints a cryptographically random n-byte session/2FA
// token rendered as hex, grounded on the teacher's
// postgres.generateSessionID.
func generateToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("store: generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// IsNoRows reports whether err is pgx's not-found sentinel.
func IsNoRows(err error) bool { return err == pgx.ErrNoRows }

package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Open connects to postgres (pgdriver) or sqlite (modernc, pure Go).
func Open(driver, dsn string) (*bun.DB, error) {
	switch strings.ToLower(driver) {
	case "postgres", "postgresql":
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		return bun.NewDB(sqldb, pgdialect.New()), nil
	case "sqlite", "":
		sqldb, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// sqlite allows one writer; a single connection also keeps ":memory:" databases alive
		sqldb.SetMaxOpenConns(1)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Store is the bun-backed implementation of the catalog and attempt repositories.
type Store struct {
	db *bun.DB
}

func New(db *bun.DB) *Store {
	return &Store{db: db}
}

// Catalog returns the app.CatalogRepository view of the store.
func (s *Store) Catalog() *CatalogStore { return &CatalogStore{s} }

// Attempts returns the app.AttemptRepository view of the store.
func (s *Store) Attempts() *AttemptStore { return &AttemptStore{s} }

type txKey struct{}

// idb returns the transaction carried by ctx, or the pool.
func (s *Store) idb(ctx context.Context) bun.IDB {
	if tx, ok := ctx.Value(txKey{}).(bun.Tx); ok {
		return tx
	}
	return s.db
}

// runInTx joins the transaction carried by ctx or starts a new one.
func (s *Store) runInTx(ctx context.Context, fn func(ctx context.Context, db bun.IDB) error) error {
	if tx, ok := ctx.Value(txKey{}).(bun.Tx); ok {
		return fn(ctx, tx)
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx), tx)
	})
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return true
		}
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func rowsAffected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}

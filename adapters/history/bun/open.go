package historybun

import (
	"context"
	"database/sql"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/goliatone/go-cvwizard/cv"
)

// OpenSQLite opens a SQLite-backed history at dsn and creates its schema.
// An empty dsn selects a private in-memory database.
func OpenSQLite(ctx context.Context, dsn string) (*Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = "file::memory:"
	}
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, cv.NewError(cv.KindInternal, "open history database failed", err)
	}
	// A single connection keeps in-memory databases alive and serializes writers.
	sqldb.SetMaxOpenConns(1)

	store := NewStore(bun.NewDB(sqldb, sqlitedialect.New()))
	if err := store.CreateSchema(ctx); err != nil {
		_ = store.DB.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

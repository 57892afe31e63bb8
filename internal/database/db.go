package database

import (
	"database/sql"
	"fmt"
	"strings"

	"churchadmin/internal/config"
)

// DB is a connection pool bound to one dialect. Queries written with ?
// placeholders are rewritten for the engine in use.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Initialize opens a SQLite database at dbPath
func Initialize(dbPath string) (*DB, error) {
	return connect(NewSQLiteDialect(), DialectConfig{Path: dbPath})
}

// InitializeWithConfig opens the database named by DATABASE_TYPE
func InitializeWithConfig(cfg *config.Config) (*DB, error) {
	dialect, err := DialectFor(cfg.DatabaseType)
	if err != nil {
		return nil, err
	}
	return connect(dialect, DialectConfig{Path: cfg.DatabasePath, URL: cfg.DatabaseURL})
}

// DialectFor maps a DATABASE_TYPE value to its dialect. Empty means sqlite.
func DialectFor(kind string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "sqlite", "sqlite3":
		return NewSQLiteDialect(), nil
	case "postgres", "postgresql":
		return NewPostgresDialect(), nil
	case "mysql":
		return NewMySQLDialect(), nil
	}
	return nil, fmt.Errorf("unsupported database type: %s", kind)
}

func connect(dialect Dialect, target DialectConfig) (*DB, error) {
	pool, err := sql.Open(dialect.DriverName(), dialect.DSN(target))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := pool.Ping(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach %s database: %w", dialect.DriverName(), err)
	}

	defaultPool.apply(pool)
	if err := dialect.ConfigureConnection(pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to configure connection: %w", err)
	}
	return &DB{DB: pool, Dialect: dialect}, nil
}

func (db *DB) Query(query string, args ...any) (*sql.Rows, error) {
	return db.DB.Query(db.Dialect.RewriteQuery(query), args...)
}

func (db *DB) QueryRow(query string, args ...any) *sql.Row {
	return db.DB.QueryRow(db.Dialect.RewriteQuery(query), args...)
}

func (db *DB) Exec(query string, args ...any) (sql.Result, error) {
	return db.DB.Exec(db.Dialect.RewriteQuery(query), args...)
}

// ExecReturningID runs an INSERT and returns the new row's id
func (db *DB) ExecReturningID(query string, args ...any) (int64, error) {
	return insertReturningID(db.DB, db.Dialect, query, args)
}

// IsUniqueViolation reports whether err was caused by a unique constraint
func (db *DB) IsUniqueViolation(err error) bool {
	return err != nil && db.Dialect.IsUniqueViolation(err)
}

type runner interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

func insertReturningID(r runner, dialect Dialect, query string, args []any) (int64, error) {
	query = dialect.RewriteQuery(query)

	if !dialect.SupportsLastInsertId() {
		var id int64
		query = strings.TrimSuffix(strings.TrimSpace(query), ";") + " RETURNING id"
		if err := r.QueryRow(query, args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	result, err := r.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

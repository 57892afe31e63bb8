package repository

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

// ErrDuplicate is returned when an insert violates a unique constraint
var ErrDuplicate = errors.New("duplicate record")

// ErrAlreadyLinked is returned when a user already has an OAuth provider
var ErrAlreadyLinked = errors.New("oauth provider already linked")

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// nullableID converts an optional foreign key into a driver value
func nullableID(id *int64) interface{} {
	if id == nil {
		return nil
	}
	return *id
}

// idPtr converts a scanned nullable foreign key back to a pointer
func idPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	v := n.Time
	return &v
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// likePattern builds a case-insensitive substring pattern for LIKE
func likePattern(q string) string {
	return "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
}

// whereClause joins conditions with AND, or returns "" when empty
func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

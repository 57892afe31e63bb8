package database

import (
	"database/sql"
	"strconv"
	"strings"
	"time"
)

// Dialect hides the differences between the supported SQL engines.
// Repositories write every query with ? placeholders.
type Dialect interface {
	DriverName() string
	DSN(config DialectConfig) string
	RewriteQuery(query string) string

	// SupportsLastInsertId is false for engines that need RETURNING id
	SupportsLastInsertId() bool

	// ConfigureConnection runs once after the pool is opened
	ConfigureConnection(db *sql.DB) error

	MigrationsSubdir() string
	CreateMigrationsTableQuery() string

	// ResetSequenceQuery moves a table's id counter past its largest row.
	// It is empty when inserting explicit IDs already does that.
	ResetSequenceQuery(table string) string

	IsUniqueViolation(err error) bool
}

// DialectConfig is the connection target. SQLite reads Path, the servers read URL.
type DialectConfig struct {
	Path string
	URL  string
}

type poolSettings struct {
	maxOpen  int
	maxIdle  int
	lifetime time.Duration
	idleTime time.Duration
}

var defaultPool = poolSettings{maxOpen: 25, maxIdle: 5, lifetime: 5 * time.Minute, idleTime: time.Minute}

func (p poolSettings) apply(db *sql.DB) {
	db.SetMaxOpenConns(p.maxOpen)
	db.SetMaxIdleConns(p.maxIdle)
	db.SetConnMaxLifetime(p.lifetime)
	db.SetConnMaxIdleTime(p.idleTime)
}

// numberPlaceholders rewrites ? as $1, $2, ... leaving single-quoted literals alone
func numberPlaceholders(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	quoted := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		if c == '\'' {
			quoted = !quoted
		}
		if c == '?' && !quoted {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

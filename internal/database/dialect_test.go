package database

import (
	"errors"
	"reflect"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

func TestDialectBasics(t *testing.T) {
	tests := []struct {
		name         string
		dialect      Dialect
		driver       string
		subdir       string
		lastInsertID bool
		resets       bool
	}{
		{"SQLite", NewSQLiteDialect(), "sqlite3", "sqlite", true, false},
		{"PostgreSQL", NewPostgresDialect(), "postgres", "postgres", false, true},
		{"MySQL", NewMySQLDialect(), "mysql", "mysql", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.DriverName(); got != tt.driver {
				t.Errorf("DriverName() = %v, want %v", got, tt.driver)
			}
			if got := tt.dialect.MigrationsSubdir(); got != tt.subdir {
				t.Errorf("MigrationsSubdir() = %v, want %v", got, tt.subdir)
			}
			if got := tt.dialect.SupportsLastInsertId(); got != tt.lastInsertID {
				t.Errorf("SupportsLastInsertId() = %v, want %v", got, tt.lastInsertID)
			}
			if got := tt.dialect.ResetSequenceQuery("persons") != ""; got != tt.resets {
				t.Errorf("ResetSequenceQuery() non-empty = %v, want %v", got, tt.resets)
			}
			if tt.dialect.CreateMigrationsTableQuery() == "" {
				t.Error("CreateMigrationsTableQuery() returned empty string")
			}
		})
	}
}

func TestDialectDSN(t *testing.T) {
	cfg := DialectConfig{Path: "./churchadmin.db", URL: "postgres://localhost/churchadmin"}

	if got, want := NewSQLiteDialect().DSN(cfg), "./churchadmin.db?_foreign_keys=on&_busy_timeout=5000"; got != want {
		t.Errorf("SQLite DSN() = %v, want %v", got, want)
	}
	if got := NewSQLiteDialect().DSN(DialectConfig{Path: "file:test.db?cache=shared"}); got != "file:test.db?cache=shared" {
		t.Errorf("SQLite DSN() with params = %v", got)
	}
	if got := NewPostgresDialect().DSN(cfg); got != cfg.URL {
		t.Errorf("Postgres DSN() = %v, want %v", got, cfg.URL)
	}

	mysqlTests := []struct {
		url  string
		want string
	}{
		{"user:pw@tcp(db:3306)/church", "user:pw@tcp(db:3306)/church?parseTime=true"},
		{"user:pw@tcp(db:3306)/church?charset=utf8mb4", "user:pw@tcp(db:3306)/church?charset=utf8mb4&parseTime=true"},
		{"user:pw@tcp(db:3306)/church?parseTime=false", "user:pw@tcp(db:3306)/church?parseTime=false"},
	}
	for _, tt := range mysqlTests {
		if got := NewMySQLDialect().DSN(DialectConfig{URL: tt.url}); got != tt.want {
			t.Errorf("MySQL DSN(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT * FROM persons WHERE id = ?",
			expected: "SELECT * FROM persons WHERE id = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT * FROM persons WHERE id = ?",
			expected: "SELECT * FROM persons WHERE id = $1",
		},
		{
			name:     "PostgreSQL multiple placeholders",
			dialect:  NewPostgresDialect(),
			query:    "INSERT INTO lesson_progress (person_id, lesson_id) VALUES (?, ?)",
			expected: "INSERT INTO lesson_progress (person_id, lesson_id) VALUES ($1, $2)",
		},
		{
			name:     "PostgreSQL skips quoted literals",
			dialect:  NewPostgresDialect(),
			query:    "SELECT * FROM events WHERE title = 'Why?' AND id = ? AND notes <> 'it''s ?'",
			expected: "SELECT * FROM events WHERE title = 'Why?' AND id = $1 AND notes <> 'it''s ?'",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "UPDATE lessons SET title = ?, content = ? WHERE id = ?",
			expected: "UPDATE lessons SET title = ?, content = ? WHERE id = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.dialect.RewriteQuery(tt.query)
			if result != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		kind    string
		driver  string
		wantErr bool
	}{
		{"", "sqlite3", false},
		{"SQLite", "sqlite3", false},
		{"postgresql", "postgres", false},
		{" mysql ", "mysql", false},
		{"oracle", "", true},
	}

	for _, tt := range tests {
		d, err := DialectFor(tt.kind)
		if (err != nil) != tt.wantErr {
			t.Errorf("DialectFor(%q) error = %v, wantErr %v", tt.kind, err, tt.wantErr)
			continue
		}
		if err == nil && d.DriverName() != tt.driver {
			t.Errorf("DialectFor(%q) driver = %v, want %v", tt.kind, d.DriverName(), tt.driver)
		}
	}
}

func TestPostgresResetSequenceQuery(t *testing.T) {
	want := "SELECT setval(pg_get_serial_sequence('pledges', 'id'), COALESCE(MAX(id), 0) + 1, false) FROM pledges"
	if got := NewPostgresDialect().ResetSequenceQuery("pledges"); got != want {
		t.Errorf("ResetSequenceQuery() = %v, want %v", got, want)
	}
}

func TestDriverUniqueViolation(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		err     error
		want    bool
	}{
		{"postgres unique", NewPostgresDialect(), &pq.Error{Code: "23505"}, true},
		{"postgres fk", NewPostgresDialect(), &pq.Error{Code: "23503"}, false},
		{"mysql duplicate entry", NewMySQLDialect(), &mysql.MySQLError{Number: 1062}, true},
		{"mysql other", NewMySQLDialect(), &mysql.MySQLError{Number: 1452}, false},
		{"plain error", NewSQLiteDialect(), errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.IsUniqueViolation(tt.err); got != tt.want {
				t.Errorf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitStatements(t *testing.T) {
	content := `-- header comment
CREATE TABLE a (
    id INTEGER
);

CREATE INDEX idx_a ON a(id);
`
	want := []string{
		"CREATE TABLE a (\n    id INTEGER\n)",
		"CREATE INDEX idx_a ON a(id)",
	}

	got := SplitStatements(content)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitStatements() = %q, want %q", got, want)
	}
}

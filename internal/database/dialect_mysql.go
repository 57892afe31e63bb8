package database

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// erDupEntry is MySQL's duplicate key error number
const erDupEntry = 1062

type MySQLDialect struct{}

func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) DriverName() string { return "mysql" }

// DSN enables parseTime so DATETIME columns scan into time.Time,
// unless the URL sets it explicitly.
func (d *MySQLDialect) DSN(config DialectConfig) string {
	url := config.URL
	switch {
	case strings.Contains(url, "parseTime="):
		return url
	case strings.Contains(url, "?"):
		return url + "&parseTime=true"
	default:
		return url + "?parseTime=true"
	}
}

func (d *MySQLDialect) RewriteQuery(query string) string { return query }

func (d *MySQLDialect) SupportsLastInsertId() bool { return true }

func (d *MySQLDialect) ConfigureConnection(db *sql.DB) error {
	_, err := db.Exec("SET FOREIGN_KEY_CHECKS = 1")
	return err
}

func (d *MySQLDialect) MigrationsSubdir() string { return "mysql" }

func (d *MySQLDialect) CreateMigrationsTableQuery() string {
	return `CREATE TABLE IF NOT EXISTS migrations (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		filename VARCHAR(255) UNIQUE NOT NULL,
		executed_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)
	)`
}

// ResetSequenceQuery is empty: InnoDB raises AUTO_INCREMENT on explicit inserts
func (d *MySQLDialect) ResetSequenceQuery(table string) string { return "" }

func (d *MySQLDialect) IsUniqueViolation(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == erDupEntry
}

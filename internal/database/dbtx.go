package database

import (
	"database/sql"
	"fmt"
	"log"
)

// DBTX is the query surface shared by *DB and *Tx, so repository helpers
// run the same way inside and outside a transaction.
type DBTX interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	ExecReturningID(query string, args ...any) (int64, error)
}

// Tx is an open transaction that rewrites placeholders like DB does
type Tx struct {
	tx      *sql.Tx
	dialect Dialect
}

// InTx runs fn in a transaction. It commits when fn returns nil and rolls
// back otherwise, returning fn's error unwrapped.
func (db *DB) InTx(fn func(tx *Tx) error) error {
	sqlTx, err := db.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	tx := &Tx{tx: sqlTx, dialect: db.Dialect}

	defer func() {
		if p := recover(); p != nil {
			sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			log.Printf("Warning: rollback failed: %v", rbErr)
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (tx *Tx) Query(query string, args ...any) (*sql.Rows, error) {
	return tx.tx.Query(tx.dialect.RewriteQuery(query), args...)
}

func (tx *Tx) QueryRow(query string, args ...any) *sql.Row {
	return tx.tx.QueryRow(tx.dialect.RewriteQuery(query), args...)
}

func (tx *Tx) Exec(query string, args ...any) (sql.Result, error) {
	return tx.tx.Exec(tx.dialect.RewriteQuery(query), args...)
}

func (tx *Tx) ExecReturningID(query string, args ...any) (int64, error) {
	return insertReturningID(tx.tx, tx.dialect, query, args)
}

// ResetSequence advances table's id counter after rows were inserted with
// explicit IDs. It is a no-op on engines that track this themselves.
func (tx *Tx) ResetSequence(table string) error {
	query := tx.dialect.ResetSequenceQuery(table)
	if query == "" {
		return nil
	}
	_, err := tx.tx.Exec(query)
	return err
}

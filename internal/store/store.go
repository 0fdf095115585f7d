// internal/store/store.go
//
// Persistence sink for form submissions.
//
// Context
// -------
// Route handlers treat the database as a black box with one operation:
// insert a row, get back nil or a structured error.  SQLSink implements
// that contract over sqlx so the same code runs against MySQL (default)
// and PostgreSQL.  Memory implements it in-process for tests and local
// runs without a database.
//
// Uniqueness
// ----------
// The only error callers branch on is a uniqueness violation (a second
// waitlist signup with the same email).  Each driver reports it
// differently, so Error keeps the raw driver code and IsUniqueViolation
// recognises both dialects:
//
//	• MySQL / MariaDB  – error number 1062 (ER_DUP_ENTRY)
//	• PostgreSQL       – SQLSTATE 23505 (unique_violation)
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
// • The sink never logs; handlers decide what reaches the log.
package store

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Driver codes that signal a duplicate key.
const (
	CodeMySQLDuplicate    = "1062"
	CodePostgresDuplicate = "23505"
)

// Row is anything that can be inserted.  Columns double as the named
// parameters, so struct fields must carry matching `db` tags.
type Row interface {
	Table() string
	Columns() []string
}

// Sink is the insert-only contract the route handlers depend on.
type Sink interface {
	Insert(ctx context.Context, row Row) error
}

// Error is the structured failure returned by every Sink.
type Error struct {
	Code    string // driver code, empty when the driver gave none
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Code == "" {
		return "store: " + e.Message
	}
	return "store: " + e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// IsUniqueViolation reports whether err is a duplicate-key failure.
func IsUniqueViolation(err error) bool {
	var se *Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == CodeMySQLDuplicate || se.Code == CodePostgresDuplicate
}

/*────────────────────────────── SQLSink ────────────────────────────────────*/

// SQLSink inserts rows through a sqlx pool.
type SQLSink struct {
	db *sqlx.DB
}

// NewSQLSink wraps db.
func NewSQLSink(db *sqlx.DB) *SQLSink { return &SQLSink{db: db} }

// Insert runs one INSERT for row.
func (s *SQLSink) Insert(ctx context.Context, row Row) error {
	if _, err := s.db.NamedExecContext(ctx, insertQuery(row), row); err != nil {
		return classify(err)
	}
	return nil
}

// insertQuery renders "INSERT INTO t (a, b) VALUES (:a, :b)".  sqlx rebinds
// the named parameters for the active driver.
func insertQuery(row Row) string {
	cols := row.Columns()
	params := make([]string, len(cols))
	for i, c := range cols {
		params[i] = ":" + c
	}
	return "INSERT INTO " + row.Table() +
		" (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(params, ", ") + ")"
}

// classify lifts driver errors into *Error.
func classify(err error) *Error {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return &Error{Code: strconv.Itoa(int(me.Number)), Message: me.Message, Err: err}
	}
	var pe *pq.Error
	if errors.As(err, &pe) {
		return &Error{Code: string(pe.Code), Message: pe.Message, Err: err}
	}
	return &Error{Message: err.Error(), Err: err}
}

package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Violation is the kind of integrity constraint a write tripped.
type Violation string

const (
	ViolationNone       Violation = ""
	ViolationUnique     Violation = "unique"
	ViolationForeignKey Violation = "foreign_key"
	ViolationCheck      Violation = "check"
)

var pgViolationCodes = map[string]Violation{
	"23505": ViolationUnique,
	"23503": ViolationForeignKey,
	"23514": ViolationCheck,
}

// sqlite reports constraint failures only through the message text.
var sqliteViolationPrefixes = map[string]Violation{
	"UNIQUE constraint failed":      ViolationUnique,
	"FOREIGN KEY constraint failed": ViolationForeignKey,
	"CHECK constraint failed":       ViolationCheck,
}

// PGError is the driver-neutral view of a Postgres error raised through pgx or lib/pq.
type PGError struct {
	Code       string
	Constraint string
	Table      string
	Column     string
	Detail     string
	Message    string
}

// AsPGError extracts Postgres diagnostics from err regardless of driver.
func AsPGError(err error) (PGError, bool) {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return PGError{
			Code:       pgxErr.Code,
			Constraint: pgxErr.ConstraintName,
			Table:      pgxErr.TableName,
			Column:     pgxErr.ColumnName,
			Detail:     pgxErr.Detail,
			Message:    pgxErr.Message,
		}, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return PGError{
			Code:       string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Column:     pqErr.Column,
			Detail:     pqErr.Detail,
			Message:    pqErr.Message,
		}, true
	}
	return PGError{}, false
}

// Classify reports which constraint kind err violated and, when known, the constraint name.
func Classify(err error) (Violation, string) {
	if err == nil {
		return ViolationNone, ""
	}
	if pgErr, ok := AsPGError(err); ok {
		return pgViolationCodes[pgErr.Code], pgErr.Constraint
	}
	msg := err.Error()
	for prefix, kind := range sqliteViolationPrefixes {
		if idx := strings.Index(msg, prefix); idx >= 0 {
			return kind, strings.TrimSpace(strings.TrimPrefix(msg[idx+len(prefix):], ":"))
		}
	}
	return ViolationNone, ""
}

// IsViolation reports whether err is a violation of kind. A non-empty
// constraint must also appear in the reported constraint name.
func IsViolation(err error, kind Violation, constraint string) bool {
	got, name := Classify(err)
	if got != kind || got == ViolationNone {
		return false
	}
	return constraint == "" || strings.Contains(name, constraint)
}

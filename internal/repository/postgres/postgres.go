// Package postgres implements the repository interfaces on PostgreSQL.
package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return err != nil && strings.Contains(err.Error(), "SQLSTATE "+uniqueViolation)
}

// where accumulates positional SQL conditions.
type where struct {
	conditions []string
	args       []any
}

// add appends a condition; each "?" in cond is replaced by the next
// positional placeholder bound to the matching arg.
func (w *where) add(cond string, args ...any) {
	for _, a := range args {
		w.args = append(w.args, a)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(w.args)), 1)
	}
	w.conditions = append(w.conditions, cond)
}

func (w *where) clause() string {
	if len(w.conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.conditions, " AND ")
}

// limit appends LIMIT/OFFSET placeholders for take and skip.
func (w *where) limit(take, skip int) string {
	w.args = append(w.args, take, skip)
	n := len(w.args)
	return fmt.Sprintf("LIMIT $%d OFFSET $%d", n-1, n)
}

// Package sqlxrepos implements the domain repositories over PostgreSQL
// using sqlx. Every method takes an optional exec override so a service can
// group calls under one transaction.
package sqlxrepos

import (
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core"
)

const pgUniqueViolation = "23505"

func getExec(repoExec core.DBExecutor, svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repoExec
}

func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && string(pqErr.Code) == pgUniqueViolation
}

// queryBuilder accumulates numbered args for a handwritten query.
type queryBuilder struct {
	conds []string
	args  []interface{}
}

// arg registers v and returns its placeholder ($1, $2, ...).
func (qb *queryBuilder) arg(v interface{}) string {
	qb.args = append(qb.args, v)
	return "$" + strconv.Itoa(len(qb.args))
}

func (qb *queryBuilder) where(cond string) { qb.conds = append(qb.conds, cond) }

// clause returns the assembled WHERE clause, or "" when unfiltered.
func (qb *queryBuilder) clause() string {
	if len(qb.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(qb.conds, " AND ")
}

func orderBy(ordering []core.DBOrdering) string {
	if len(ordering) == 0 {
		return ""
	}
	parts := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		parts = append(parts, ord.String())
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

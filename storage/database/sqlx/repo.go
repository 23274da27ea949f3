package sqlxrepos

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/storage/database"
)

// repo holds the default executor; repository methods use the transaction's executor when given one.
type repo struct {
	exec core.DBExecutor
}

func (r repo) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return r.exec
}

// selectAll runs q and scans every row into dest, a pointer to a slice of structs with `db` tags.
func selectAll(ctx context.Context, exec core.DBExecutor, dest interface{}, q string, args ...interface{}) error {
	rows, err := exec.QueryContext(ctx, q, args...)
	if err != nil {
		return database.TranslateError(err)
	}
	defer func() { _ = rows.Close() }()
	return sqlx.StructScan(rows, dest)
}

// execAffected runs q and returns the number of affected rows.
func execAffected(ctx context.Context, exec core.DBExecutor, q string, args ...interface{}) (int, error) {
	res, err := exec.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, database.TranslateError(err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func count(ctx context.Context, exec core.DBExecutor, q string, args ...interface{}) (int, error) {
	var n int
	if err := exec.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, database.TranslateError(err)
	}
	return n, nil
}

// in expands slice arguments of q (sqlx.In) and rebinds it for postgres.
func in(q string, args ...interface{}) (string, []interface{}, error) {
	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return "", nil, err
	}
	return sqlx.Rebind(sqlx.DOLLAR, q), args, nil
}

// orderBy renders the orderings whose field is allowed, mapped to their column.
func orderBy(ordering []core.DBOrdering, columns map[string]string, fallback string) string {
	clauses := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		col, ok := columns[ord.Field]
		if !ok {
			continue
		}
		clauses = append(clauses, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	if len(clauses) == 0 {
		return " ORDER BY " + fallback
	}
	return " ORDER BY " + strings.Join(clauses, ", ")
}

// where accumulates "col = ?" conditions.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) eq(col string, val interface{}) {
	w.conds = append(w.conds, fmt.Sprintf("%s = ?", col))
	w.args = append(w.args, val)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

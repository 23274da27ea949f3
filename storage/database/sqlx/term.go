package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/term"
	"github.com/trezcool/academia/storage/database"
)

const termColumns = `id, name, status, created_at`

type termRow struct {
	ID        int       `db:"id"`
	Name      string    `db:"name"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

func (r termRow) term() term.Term {
	return term.Term{
		ID:        r.ID,
		Name:      r.Name,
		Status:    term.Status(r.Status),
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type termRepository struct {
	repo
}

var _ term.Repository = (*termRepository)(nil) // interface compliance check

func NewTermRepository(exec core.DBExecutor) *termRepository {
	return &termRepository{repo{exec: exec}}
}

func (r *termRepository) one(ctx context.Context, exec core.DBExecutor, notFound error, q string, args ...interface{}) (term.Term, error) {
	var rows []termRow
	if err := selectAll(ctx, exec, &rows, q, args...); err != nil {
		return term.Term{}, err
	}
	if len(rows) == 0 {
		return term.Term{}, notFound
	}
	return rows[0].term(), nil
}

func (r *termRepository) CheckNameUniqueness(ctx context.Context, name string, exec ...core.DBExecutor) error {
	n, err := count(ctx, r.getExec(exec), `SELECT COUNT(*) FROM school_years WHERE name = $1`, name)
	if err != nil {
		return err
	}
	if n > 0 {
		return term.ErrNameExists
	}
	return nil
}

func (r *termRepository) CreateTerm(ctx context.Context, t term.Term, exec ...core.DBExecutor) (term.Term, error) {
	q := `INSERT INTO school_years (name, status, created_at) VALUES ($1, $2, $3) RETURNING ` + termColumns
	return r.one(ctx, r.getExec(exec), sql.ErrNoRows, q, t.Name, string(t.Status), t.CreatedAt.UTC())
}

func (r *termRepository) QueryTerms(ctx context.Context, exec ...core.DBExecutor) ([]term.Term, error) {
	var rows []termRow
	if err := selectAll(ctx, r.getExec(exec), &rows, `SELECT `+termColumns+` FROM school_years ORDER BY name DESC`); err != nil {
		return nil, errors.Wrap(err, "querying school years")
	}
	terms := make([]term.Term, 0, len(rows))
	for _, row := range rows {
		terms = append(terms, row.term())
	}
	return terms, nil
}

func (r *termRepository) GetTerm(ctx context.Context, id int, exec ...core.DBExecutor) (term.Term, error) {
	return r.one(ctx, r.getExec(exec), term.ErrNotFound, `SELECT `+termColumns+` FROM school_years WHERE id = $1`, id)
}

func (r *termRepository) GetActiveTerm(ctx context.Context, exec ...core.DBExecutor) (term.Term, error) {
	q := `SELECT ` + termColumns + ` FROM school_years WHERE status = $1 ORDER BY id DESC LIMIT 1`
	return r.one(ctx, r.getExec(exec), term.ErrNoActiveTerm, q, string(term.StatusActive))
}

func (r *termRepository) DeactivateTerms(ctx context.Context, exec ...core.DBExecutor) error {
	_, err := r.getExec(exec).ExecContext(ctx,
		`UPDATE school_years SET status = $1 WHERE status = $2`, string(term.StatusInactive), string(term.StatusActive))
	return database.TranslateError(err)
}

func (r *termRepository) ActivateTerm(ctx context.Context, id int, exec ...core.DBExecutor) (term.Term, error) {
	q := `UPDATE school_years SET status = $1 WHERE id = $2 RETURNING ` + termColumns
	return r.one(ctx, r.getExec(exec), term.ErrNotFound, q, string(term.StatusActive), id)
}

package database

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
)

// Postgres error codes the repositories translate.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
	codeExclusionViolation   = "23P01"
	codeForeignKeyViolation  = "23503"
)

type transactor struct {
	db core.DB
}

var _ core.Transactor = (*transactor)(nil) // interface compliance check

func NewTransactor(db core.DB) core.Transactor {
	return &transactor{db: db}
}

// RunInTx begins a transaction, runs fn, and commits if fn returned nil.
// Write conflicts reported by Postgres, by fn or at commit, are returned as *core.TxConflictError.
func (t *transactor) RunInTx(ctx context.Context, opts *sql.TxOptions, fn core.TxFunc) (err error) {
	tx, err := t.db.BeginTx(ctx, opts)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return TranslateError(err)
	}
	if err = tx.Commit(); err != nil {
		return TranslateError(errors.Wrap(err, "committing transaction"))
	}
	return nil
}

// TranslateError maps Postgres conflict codes to *core.TxConflictError and foreign key
// violations to *core.ValidationError. Other errors are returned as they are.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := core.IsTxConflict(err); ok {
		return err
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case codeSerializationFailure, codeDeadlockDetected, codeExclusionViolation:
		return &core.TxConflictError{Constraint: pqErr.Constraint, Err: err}
	case codeUniqueViolation:
		return &core.TxConflictError{Unique: true, Constraint: pqErr.Constraint, Err: err}
	case codeForeignKeyViolation:
		return core.NewValidationError(err, core.FieldError{Field: pqErr.Column, Error: "referenced record does not exist"})
	}
	return err
}

package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/term"
)

type termRepository struct {
	db *DB
}

var _ term.Repository = (*termRepository)(nil) // interface compliance check

func NewTermRepository(db *DB) term.Repository {
	return &termRepository{db: db}
}

func (repo *termRepository) CheckNameUniqueness(_ context.Context, name string, _ ...core.DBExecutor) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, t := range repo.db.t.terms {
		if t.Name == name {
			return term.ErrNameExists
		}
	}
	return nil
}

func (repo *termRepository) CreateTerm(_ context.Context, t term.Term, _ ...core.DBExecutor) (term.Term, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if err := repo.db.fault("CreateTerm"); err != nil {
		return term.Term{}, err
	}
	t.ID = repo.db.t.nextPK()
	repo.db.t.terms[t.ID] = t
	return t, nil
}

func (repo *termRepository) QueryTerms(_ context.Context, _ ...core.DBExecutor) ([]term.Term, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	terms := make([]term.Term, 0, len(repo.db.t.terms))
	for _, t := range repo.db.t.terms {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool { return terms[i].Name > terms[j].Name })
	return terms, nil
}

func (repo *termRepository) GetTerm(_ context.Context, id int, _ ...core.DBExecutor) (term.Term, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.t.terms[id]; ok {
		return t, nil
	}
	return term.Term{}, term.ErrNotFound
}

func (repo *termRepository) GetActiveTerm(_ context.Context, _ ...core.DBExecutor) (term.Term, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var active term.Term
	for _, t := range repo.db.t.terms {
		if t.IsActive() && t.ID > active.ID {
			active = t
		}
	}
	if active.ID == 0 {
		return term.Term{}, term.ErrNoActiveTerm
	}
	return active, nil
}

func (repo *termRepository) DeactivateTerms(_ context.Context, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for id, t := range repo.db.t.terms {
		if t.IsActive() {
			t.Status = term.StatusInactive
			repo.db.t.terms[id] = t
		}
	}
	return nil
}

func (repo *termRepository) ActivateTerm(_ context.Context, id int, _ ...core.DBExecutor) (term.Term, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if err := repo.db.fault("ActivateTerm"); err != nil {
		return term.Term{}, err
	}
	t, ok := repo.db.t.terms[id]
	if !ok {
		return term.Term{}, term.ErrNotFound
	}
	t.Status = term.StatusActive
	repo.db.t.terms[id] = t
	return t, nil
}

package term

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/academia/core"
)

var (
	// errors
	ErrNotFound     = errors.New("school year not found")
	ErrNoActiveTerm = errors.New("no active school year found")
	ErrNameExists   = errors.New("a school year with this name already exists")
)

type (
	Repository interface {
		CheckNameUniqueness(ctx context.Context, name string, exec ...core.DBExecutor) error
		CreateTerm(ctx context.Context, t Term, exec ...core.DBExecutor) (Term, error)
		QueryTerms(ctx context.Context, exec ...core.DBExecutor) ([]Term, error)
		GetTerm(ctx context.Context, id int, exec ...core.DBExecutor) (Term, error)
		// GetActiveTerm returns ErrNoActiveTerm when no Term is Active.
		GetActiveTerm(ctx context.Context, exec ...core.DBExecutor) (Term, error)
		// DeactivateTerms sets every Active Term to Inactive.
		DeactivateTerms(ctx context.Context, exec ...core.DBExecutor) error
		ActivateTerm(ctx context.Context, id int, exec ...core.DBExecutor) (Term, error)
	}

	// ActiveCache caches the ID of the Active Term. Misses and failures are both reported as !ok.
	ActiveCache interface {
		Get(ctx context.Context) (id int, ok bool)
		Set(ctx context.Context, id int)
		Clear(ctx context.Context)
	}

	// Provider is how the scheduling and progression cores ask for the Active Term.
	// When exec is given the lookup is made inside that transaction, bypassing any cache.
	Provider interface {
		ActiveTerm(ctx context.Context, exec ...core.DBExecutor) (Term, error)
	}

	ServiceInterface interface {
		Provider
		Create(ctx context.Context, nt NewTerm) (Term, error)
		Query(ctx context.Context) ([]Term, error)
		GetByID(ctx context.Context, id int) (Term, error)
		SetActive(ctx context.Context, id int) (Term, error)
	}

	Service struct {
		tx    core.Transactor
		repo  Repository
		cache ActiveCache
	}
)

var _ ServiceInterface = (*Service)(nil)

// NewService returns a term Service. cache may be nil.
func NewService(tx core.Transactor, repo Repository, cache ActiveCache) *Service {
	if cache == nil {
		cache = noCache{}
	}
	return &Service{tx: tx, repo: repo, cache: cache}
}

func (svc *Service) ActiveTerm(ctx context.Context, exec ...core.DBExecutor) (Term, error) {
	if len(exec) > 0 {
		return svc.repo.GetActiveTerm(ctx, exec...)
	}

	if id, ok := svc.cache.Get(ctx); ok {
		t, err := svc.repo.GetTerm(ctx, id)
		if err == nil && t.IsActive() {
			return t, nil
		}
		svc.cache.Clear(ctx)
	}

	t, err := svc.repo.GetActiveTerm(ctx)
	if err != nil {
		return Term{}, err
	}
	svc.cache.Set(ctx, t.ID)
	return t, nil
}

func (svc *Service) Create(ctx context.Context, nt NewTerm) (Term, error) {
	var created Term
	err := svc.tx.RunInTx(ctx, nil, func(exec core.DBExecutor) error {
		if err := svc.repo.CheckNameUniqueness(ctx, nt.Name, exec); err != nil {
			if err == ErrNameExists {
				return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
			}
			return pkgerrors.Wrap(err, "checking school year uniqueness")
		}

		status := StatusInactive
		if nt.Active {
			if err := svc.repo.DeactivateTerms(ctx, exec); err != nil {
				return pkgerrors.Wrap(err, "deactivating school years")
			}
			status = StatusActive
		}

		var err error
		created, err = svc.repo.CreateTerm(ctx, Term{Name: nt.Name, Status: status, CreatedAt: time.Now().UTC()}, exec)
		return pkgerrors.Wrap(err, "creating school year")
	})
	if err != nil {
		return Term{}, err
	}
	if created.IsActive() {
		svc.cache.Clear(ctx)
	}
	return created, nil
}

func (svc *Service) Query(ctx context.Context) ([]Term, error) {
	return svc.repo.QueryTerms(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Term, error) {
	return svc.repo.GetTerm(ctx, id)
}

// SetActive makes the Term with the given ID the only Active one.
func (svc *Service) SetActive(ctx context.Context, id int) (Term, error) {
	var activated Term
	err := svc.tx.RunInTx(ctx, nil, func(exec core.DBExecutor) error {
		if _, err := svc.repo.GetTerm(ctx, id, exec); err != nil {
			return err
		}
		if err := svc.repo.DeactivateTerms(ctx, exec); err != nil {
			return pkgerrors.Wrap(err, "deactivating school years")
		}
		var err error
		activated, err = svc.repo.ActivateTerm(ctx, id, exec)
		return err
	})
	if err != nil {
		return Term{}, err
	}
	svc.cache.Clear(ctx)
	return activated, nil
}

type noCache struct{}

func (noCache) Get(context.Context) (int, bool) { return 0, false }
func (noCache) Set(context.Context, int)        {}
func (noCache) Clear(context.Context)           {}

package schedule

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/term"
)

type (
	ServiceInterface interface {
		Check(ctx context.Context, a Assignment, excludeLoadID int) (FacultyLoad, error)
		CreateLoad(ctx context.Context, a Assignment) (FacultyLoad, error)
		UpdateLoad(ctx context.Context, id int, a Assignment) (FacultyLoad, error)
		DeleteLoad(ctx context.Context, id int) error
		GetLoad(ctx context.Context, id int) (FacultyLoad, error)
		QueryLoads(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]FacultyLoad, error)
	}

	Service struct {
		tx          core.Transactor
		repo        Repository
		terms       term.Provider
		checker     *Checker
		maxAttempts int
		logger      core.Logger
	}
)

var _ ServiceInterface = (*Service)(nil)

var nowFunc = time.Now // mockable

func NewService(tx core.Transactor, repo Repository, terms term.Provider, conf *core.Config, logger core.Logger) *Service {
	attempts := conf.Scheduling.MaxTxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Service{
		tx:          tx,
		repo:        repo,
		terms:       terms,
		checker:     NewChecker(repo),
		maxAttempts: attempts,
		logger:      logger,
	}
}

// Check is a dry run of CreateLoad (excludeLoadID 0) or UpdateLoad against the Active term.
func (svc *Service) Check(ctx context.Context, a Assignment, excludeLoadID int) (FacultyLoad, error) {
	active, err := svc.terms.ActiveTerm(ctx)
	if err != nil {
		return FacultyLoad{}, err
	}
	sec, err := svc.sectionInTerm(ctx, a.SectionID, active.ID)
	if err != nil {
		return FacultyLoad{}, err
	}
	res, err := svc.checker.Check(ctx, svc.candidate(a, active.ID, excludeLoadID))
	observeCheck(err)
	if err != nil {
		return FacultyLoad{}, err
	}
	return withSection(res, sec), nil
}

// CreateLoad books a new FacultyLoad in the Active term.
// The conflict check and the insert happen in the same serializable transaction.
func (svc *Service) CreateLoad(ctx context.Context, a Assignment) (FacultyLoad, error) {
	var created FacultyLoad
	err := svc.runInTx(ctx, func(exec core.DBExecutor) error {
		active, err := svc.terms.ActiveTerm(ctx, exec)
		if err != nil {
			return err
		}
		sec, err := svc.sectionInTerm(ctx, a.SectionID, active.ID, exec)
		if err != nil {
			return err
		}

		res, err := svc.checker.Check(ctx, svc.candidate(a, active.ID, 0), exec)
		observeCheck(err)
		if err != nil {
			return err
		}

		now := nowFunc().UTC()
		res = withSection(res, sec)
		res.CreatedAt = now
		res.UpdatedAt = now
		created, err = svc.repo.CreateLoad(ctx, res, exec)
		return errors.Wrap(err, "creating faculty load")
	})
	if err != nil {
		return FacultyLoad{}, err
	}
	return created, nil
}

// UpdateLoad re-checks and replaces the load's teacher, subject, section and schedule.
// Moving the load to another section moves its roster too.
func (svc *Service) UpdateLoad(ctx context.Context, id int, a Assignment) (FacultyLoad, error) {
	var updated FacultyLoad
	err := svc.runInTx(ctx, func(exec core.DBExecutor) error {
		orig, err := svc.repo.GetLoad(ctx, id, exec)
		if err != nil {
			return err
		}
		active, err := svc.terms.ActiveTerm(ctx, exec)
		if err != nil {
			return err
		}
		if orig.TermID != active.ID {
			return core.NewValidationError(errLoadOutsideOfTerm)
		}
		sec, err := svc.sectionInTerm(ctx, a.SectionID, active.ID, exec)
		if err != nil {
			return err
		}

		res, err := svc.checker.Check(ctx, svc.candidate(a, active.ID, id), exec)
		observeCheck(err)
		if err != nil {
			return err
		}

		res = withSection(res, sec)
		res.ScheduleID = orig.ScheduleID
		res.CreatedAt = orig.CreatedAt
		res.UpdatedAt = nowFunc().UTC()
		if updated, err = svc.repo.UpdateLoad(ctx, res, exec); err != nil {
			return errors.Wrap(err, "updating faculty load")
		}

		if orig.SectionID == updated.SectionID {
			return nil
		}
		if _, err = svc.repo.DeleteStudentLoadsByLoad(ctx, id, exec); err != nil {
			return errors.Wrap(err, "deleting student loads")
		}
		_, err = svc.repo.EnrollSectionStudents(ctx, id, updated.SectionID, exec)
		return errors.Wrap(err, "enrolling section students")
	})
	if err != nil {
		return FacultyLoad{}, err
	}
	return updated, nil
}

// DeleteLoad removes the students' enrolments in the load, the load, then its schedule.
func (svc *Service) DeleteLoad(ctx context.Context, id int) error {
	return svc.tx.RunInTx(ctx, nil, func(exec core.DBExecutor) error {
		load, err := svc.repo.GetLoad(ctx, id, exec)
		if err != nil {
			return err
		}
		if _, err = svc.repo.DeleteStudentLoadsByLoad(ctx, id, exec); err != nil {
			return errors.Wrap(err, "deleting student loads")
		}
		if err = svc.repo.DeleteLoad(ctx, id, exec); err != nil {
			return errors.Wrap(err, "deleting faculty load")
		}
		return errors.Wrap(svc.repo.DeleteSchedule(ctx, load.ScheduleID, exec), "deleting class schedule")
	})
}

func (svc *Service) GetLoad(ctx context.Context, id int) (FacultyLoad, error) {
	return svc.repo.GetLoad(ctx, id)
}

func (svc *Service) QueryLoads(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]FacultyLoad, error) {
	return svc.repo.QueryLoads(ctx, filter, ordering)
}

// runInTx retries fn when the database rejected the transaction because of a concurrent write,
// so that the re-run check reports which booking won. Once attempts are exhausted the
// rejection itself is reported as a conflict.
func (svc *Service) runInTx(ctx context.Context, fn core.TxFunc) error {
	var err error
	for attempt := 1; attempt <= svc.maxAttempts; attempt++ {
		err = svc.tx.RunInTx(ctx, core.SerializableTx, fn)
		txErr, ok := core.IsTxConflict(err)
		if !ok {
			return err
		}
		if attempt < svc.maxAttempts {
			txRetriesTotal.Inc()
			svc.logger.Warn("retrying faculty load transaction", txErr, map[string]interface{}{"attempt": attempt})
			continue
		}
		return backstopConflict(txErr)
	}
	return err
}

func (svc *Service) candidate(a Assignment, termID, excludeLoadID int) Candidate {
	return Candidate{
		TeacherID:     a.TeacherID,
		SectionID:     a.SectionID,
		CurriculumID:  a.CurriculumID,
		TermID:        termID,
		Slot:          a.Slot,
		ExcludeLoadID: excludeLoadID,
	}
}

func (svc *Service) sectionInTerm(ctx context.Context, sectionID, termID int, exec ...core.DBExecutor) (Section, error) {
	sec, err := svc.repo.GetSection(ctx, sectionID, exec...)
	if err != nil {
		if err == ErrSectionNotFound {
			return Section{}, core.NewValidationError(err, core.FieldError{Field: "section_id", Error: err.Error()})
		}
		return Section{}, errors.Wrap(err, "getting section")
	}
	if sec.TermID != termID {
		return Section{}, core.NewValidationError(errSectionNotInTerm, core.FieldError{Field: "section_id", Error: errSectionNotInTerm.Error()})
	}
	return sec, nil
}

// withSection copies the section's placement onto the load.
func withSection(load FacultyLoad, sec Section) FacultyLoad {
	load.SectionID = sec.ID
	load.YearLevel = sec.YearLevel
	load.Semester = sec.Semester
	load.TermID = sec.TermID
	return load
}

// backstopConflict maps a write rejected by the database onto a conflict kind.
// Only unique violations are exact. Any other rejection does not say which booking won,
// so TeacherConflict is approximate there and the message says so.
func backstopConflict(txErr *core.TxConflictError) *ConflictError {
	if txErr.Unique {
		return newConflictError(DuplicateSubjectAssignment, nil)
	}
	cErr := newConflictError(TeacherConflict, nil)
	cErr.Message = msgConcurrentBooking
	return cErr
}

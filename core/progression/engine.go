package progression

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/schedule"
	"github.com/trezcool/academia/core/term"
)

type (
	Repository interface {
		GetStudent(ctx context.Context, id int, exec ...core.DBExecutor) (Student, error)
		// LockStudent reads the student row and locks it until the end of the transaction.
		LockStudent(ctx context.Context, id int, exec ...core.DBExecutor) (Student, error)
		UpdateStudent(ctx context.Context, s Student, exec ...core.DBExecutor) (Student, error)

		// CountBlockingGrades counts the student's PENDING or REJECTED grades in a (year level, semester).
		CountBlockingGrades(ctx context.Context, studentID, yearLevel, semester int, exec ...core.DBExecutor) (int, error)
		// CountPassedGrades counts the student's APPROVED and PASSED grades in a (year level, semester).
		CountPassedGrades(ctx context.Context, studentID, yearLevel, semester int, exec ...core.DBExecutor) (int, error)
		// CountCurricula counts the subjects required in a (year level, semester).
		CountCurricula(ctx context.Context, yearLevel, semester int, exec ...core.DBExecutor) (int, error)

		GetSection(ctx context.Context, id int, exec ...core.DBExecutor) (schedule.Section, error)
		// FindSection returns schedule.ErrSectionNotFound when no section matches.
		FindSection(ctx context.Context, code string, yearLevel, semester, termID int, exec ...core.DBExecutor) (schedule.Section, error)
		QuerySectionLoadIDs(ctx context.Context, sectionID int, exec ...core.DBExecutor) ([]int, error)

		DeleteStudentLoads(ctx context.Context, studentID int, exec ...core.DBExecutor) (int, error)
		CreateStudentLoads(ctx context.Context, studentID int, loadIDs []int, exec ...core.DBExecutor) error
		CountStudentLoads(ctx context.Context, studentID int, exec ...core.DBExecutor) (int, error)
	}

	ServiceInterface interface {
		Promote(ctx context.Context, studentID int, pt PromotionType) (Result, error)
		SyncLoads(ctx context.Context, studentID int) (int, error)
		Progress(ctx context.Context, studentID int) (Progress, error)
		AcademicRecord(ctx context.Context, studentID int) (Record, error)
	}

	// Engine advances students to their next placement, or graduates them.
	Engine struct {
		tx      core.Transactor
		repo    Repository
		records RecordRepository
		terms   term.Provider
		logger  core.Logger
	}
)

var _ ServiceInterface = (*Engine)(nil)

var nowFunc = time.Now // mockable

func NewEngine(tx core.Transactor, repo Repository, records RecordRepository, terms term.Provider, logger core.Logger) *Engine {
	return &Engine{
		tx:      tx,
		repo:    repo,
		records: records,
		terms:   terms,
		logger:  logger,
	}
}

// Promote moves the student one semester or one year level forward, or graduates them when
// they completed the final term. Everything happens in one transaction, after locking the
// student row, so two concurrent promotions of the same student cannot both apply.
func (e *Engine) Promote(ctx context.Context, studentID int, pt PromotionType) (Result, error) {
	started := nowFunc()
	var res Result
	err := e.tx.RunInTx(ctx, nil, func(exec core.DBExecutor) error {
		stud, err := e.repo.LockStudent(ctx, studentID, exec)
		if err != nil {
			if errors.Cause(err) == ErrStudentNotFound {
				return err
			}
			return infrastructureError(err, "locking student")
		}

		active, err := e.terms.ActiveTerm(ctx, exec)
		if err != nil {
			if errors.Cause(err) == term.ErrNoActiveTerm {
				return newError(NoActiveTerm, msgNoActiveTerm)
			}
			return infrastructureError(err, "getting active school year")
		}
		// Dropped students go through the same gates and are re-enrolled on success.
		if stud.Status == StatusGraduated {
			return ErrGraduated
		}

		progress, err := e.progress(ctx, stud, exec)
		if err != nil {
			return err
		}
		if progress.Blocking > 0 {
			return newError(UngradedCoursework, msgUngradedCoursework)
		}
		if !progress.Complete() {
			return newError(IncompleteRequirements, msgIncomplete)
		}

		if stud.InFinalTerm() {
			res, err = e.graduate(ctx, stud, active, exec)
			return err
		}
		res, err = e.promote(ctx, stud, active, pt, exec)
		return err
	})
	observePromotion(res, err, nowFunc().Sub(started))
	if err != nil {
		var pErr *Error
		if errors.As(err, &pErr) && pErr.Kind == Infrastructure {
			e.logger.Error("promoting student", pErr.Err, map[string]interface{}{"student_id": studentID, "promotion_type": pt})
		}
		return Result{}, err
	}
	return res, nil
}

func (e *Engine) graduate(ctx context.Context, stud Student, active term.Term, exec core.DBExecutor) (Result, error) {
	now := nowFunc().UTC()
	stud.Status = StatusGraduated
	stud.TermID = active.ID
	stud.GraduatedAt = &now
	if _, err := e.repo.UpdateStudent(ctx, stud, exec); err != nil {
		return Result{}, infrastructureError(err, "updating student")
	}
	if _, err := e.repo.DeleteStudentLoads(ctx, stud.ID, exec); err != nil {
		return Result{}, infrastructureError(err, "deleting student loads")
	}
	return Result{StudentID: stud.ID, Graduated: true, Message: "Student graduated successfully!"}, nil
}

func (e *Engine) promote(ctx context.Context, stud Student, active term.Term, pt PromotionType, exec core.DBExecutor) (Result, error) {
	year, sem, err := NextTerm(stud.YearLevel, stud.Semester, pt)
	if err != nil {
		return Result{}, err
	}

	var currCode string
	if curr, err := e.repo.GetSection(ctx, stud.SectionID, exec); err == nil {
		currCode = curr.Code
	} else if errors.Cause(err) != schedule.ErrSectionNotFound {
		return Result{}, infrastructureError(err, "getting current section")
	}

	code := DeriveSectionCode(currCode, year, sem)
	sec, err := e.repo.FindSection(ctx, code, year, sem, active.ID, exec)
	if err != nil {
		if errors.Cause(err) == schedule.ErrSectionNotFound {
			return Result{}, missingSectionError(code)
		}
		return Result{}, infrastructureError(err, "finding section")
	}

	stud.YearLevel = year
	stud.Semester = sem
	stud.SectionID = sec.ID
	stud.TermID = active.ID
	stud.Status = StatusEnrolled
	if _, err = e.repo.UpdateStudent(ctx, stud, exec); err != nil {
		return Result{}, infrastructureError(err, "updating student")
	}

	count, err := e.resyncLoads(ctx, stud.ID, sec.ID, exec)
	if err != nil {
		return Result{}, err
	}

	return Result{
		StudentID: stud.ID,
		Placement: &Placement{
			YearLevel:   year,
			Semester:    sem,
			SectionID:   sec.ID,
			SectionCode: sec.Code,
			TermID:      active.ID,
		},
		LoadCount: count,
		Message:   "Student promoted successfully!",
	}, nil
}

// resyncLoads replaces the student's roster with one StudentLoad per FacultyLoad of the section.
func (e *Engine) resyncLoads(ctx context.Context, studentID, sectionID int, exec core.DBExecutor) (int, error) {
	if _, err := e.repo.DeleteStudentLoads(ctx, studentID, exec); err != nil {
		return 0, infrastructureError(err, "deleting student loads")
	}
	loadIDs, err := e.repo.QuerySectionLoadIDs(ctx, sectionID, exec)
	if err != nil {
		return 0, infrastructureError(err, "querying section loads")
	}
	if len(loadIDs) == 0 {
		return 0, nil
	}
	if err = e.repo.CreateStudentLoads(ctx, studentID, loadIDs, exec); err != nil {
		return 0, infrastructureError(err, "creating student loads")
	}
	return len(loadIDs), nil
}

// SyncLoads rebuilds an enrolled student's roster from their current section.
func (e *Engine) SyncLoads(ctx context.Context, studentID int) (int, error) {
	var count int
	err := e.tx.RunInTx(ctx, nil, func(exec core.DBExecutor) error {
		stud, err := e.repo.LockStudent(ctx, studentID, exec)
		if err != nil {
			if errors.Cause(err) == ErrStudentNotFound {
				return err
			}
			return infrastructureError(err, "locking student")
		}
		if !stud.IsEnrolled() {
			return ErrNotEnrolled
		}
		count, err = e.resyncLoads(ctx, stud.ID, stud.SectionID, exec)
		return err
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Progress returns the grade counts the promotion gates are evaluated on.
func (e *Engine) Progress(ctx context.Context, studentID int) (Progress, error) {
	stud, err := e.repo.GetStudent(ctx, studentID)
	if err != nil {
		return Progress{}, err
	}
	return e.progress(ctx, stud)
}

func (e *Engine) progress(ctx context.Context, stud Student, exec ...core.DBExecutor) (Progress, error) {
	var p Progress
	var err error
	if p.Blocking, err = e.repo.CountBlockingGrades(ctx, stud.ID, stud.YearLevel, stud.Semester, exec...); err != nil {
		return Progress{}, infrastructureError(err, "counting blocking grades")
	}
	if p.Required, err = e.repo.CountCurricula(ctx, stud.YearLevel, stud.Semester, exec...); err != nil {
		return Progress{}, infrastructureError(err, "counting curricula")
	}
	if p.Passed, err = e.repo.CountPassedGrades(ctx, stud.ID, stud.YearLevel, stud.Semester, exec...); err != nil {
		return Progress{}, infrastructureError(err, "counting passed grades")
	}
	return p, nil
}

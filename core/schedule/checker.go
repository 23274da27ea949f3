package schedule

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
)

type Repository interface {
	GetSection(ctx context.Context, id int, exec ...core.DBExecutor) (Section, error)

	// GetOverlappingLoadsForTeacher returns the teacher's loads in the term whose schedule
	// overlaps slot, ignoring the load excludeID (0 ignores nothing).
	GetOverlappingLoadsForTeacher(ctx context.Context, termID, teacherID int, slot Slot, excludeID int, exec ...core.DBExecutor) ([]FacultyLoad, error)
	// GetOverlappingLoadsForSection is GetOverlappingLoadsForTeacher for a section.
	GetOverlappingLoadsForSection(ctx context.Context, termID, sectionID int, slot Slot, excludeID int, exec ...core.DBExecutor) ([]FacultyLoad, error)
	// QuerySubjectLoads returns the section's loads in the term for the curriculum, any teacher.
	QuerySubjectLoads(ctx context.Context, termID, sectionID, curriculumID int, excludeID int, exec ...core.DBExecutor) ([]FacultyLoad, error)

	GetLoad(ctx context.Context, id int, exec ...core.DBExecutor) (FacultyLoad, error)
	QueryLoads(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]FacultyLoad, error)
	// CreateLoad inserts the load's schedule then the load itself.
	CreateLoad(ctx context.Context, load FacultyLoad, exec ...core.DBExecutor) (FacultyLoad, error)
	// UpdateLoad updates the load and its schedule in place.
	UpdateLoad(ctx context.Context, load FacultyLoad, exec ...core.DBExecutor) (FacultyLoad, error)
	DeleteStudentLoadsByLoad(ctx context.Context, loadID int, exec ...core.DBExecutor) (int, error)
	// EnrollSectionStudents enrols every Enrolled student of the section in the load.
	EnrollSectionStudents(ctx context.Context, loadID, sectionID int, exec ...core.DBExecutor) (int, error)
	DeleteLoad(ctx context.Context, id int, exec ...core.DBExecutor) error
	DeleteSchedule(ctx context.Context, scheduleID int, exec ...core.DBExecutor) error
}

// Candidate is a proposed FacultyLoad to check against the term's existing bookings.
// ExcludeLoadID is the load being edited, if any.
type Candidate struct {
	TeacherID     int
	SectionID     int
	CurriculumID  int
	TermID        int
	Slot          Slot
	ExcludeLoadID int
}

// Checker decides whether a Candidate may be booked. It never writes.
type Checker struct {
	repo Repository
}

func NewChecker(repo Repository) *Checker {
	return &Checker{repo: repo}
}

// Check runs the teacher, section, duplicate subject and subject teacher checks in that order
// and returns the first violation as a *ConflictError.
// On success it returns the reservation: the FacultyLoad to persist (ID set when updating).
func (c *Checker) Check(ctx context.Context, cand Candidate, exec ...core.DBExecutor) (FacultyLoad, error) {
	loads, err := c.repo.GetOverlappingLoadsForTeacher(ctx, cand.TermID, cand.TeacherID, cand.Slot, cand.ExcludeLoadID, exec...)
	if err != nil {
		return FacultyLoad{}, errors.Wrap(err, "querying teacher loads")
	}
	if l := firstOverlap(loads, cand.Slot); l != nil {
		return FacultyLoad{}, newConflictError(TeacherConflict, l)
	}

	loads, err = c.repo.GetOverlappingLoadsForSection(ctx, cand.TermID, cand.SectionID, cand.Slot, cand.ExcludeLoadID, exec...)
	if err != nil {
		return FacultyLoad{}, errors.Wrap(err, "querying section loads")
	}
	if l := firstOverlap(loads, cand.Slot); l != nil {
		return FacultyLoad{}, newConflictError(SectionConflict, l)
	}

	loads, err = c.repo.QuerySubjectLoads(ctx, cand.TermID, cand.SectionID, cand.CurriculumID, cand.ExcludeLoadID, exec...)
	if err != nil {
		return FacultyLoad{}, errors.Wrap(err, "querying subject loads")
	}
	for i := range loads {
		if loads[i].TeacherID == cand.TeacherID {
			return FacultyLoad{}, newConflictError(DuplicateSubjectAssignment, &loads[i])
		}
	}
	if len(loads) > 0 {
		return FacultyLoad{}, newConflictError(SubjectTeacherMismatch, &loads[0])
	}

	return FacultyLoad{
		ID:           cand.ExcludeLoadID,
		TeacherID:    cand.TeacherID,
		CurriculumID: cand.CurriculumID,
		SectionID:    cand.SectionID,
		TermID:       cand.TermID,
		Schedule:     cand.Slot,
	}, nil
}

// firstOverlap re-applies the overlap rule to what storage returned.
func firstOverlap(loads []FacultyLoad, slot Slot) *FacultyLoad {
	for i := range loads {
		if loads[i].Schedule.Overlaps(slot) {
			return &loads[i]
		}
	}
	return nil
}

package schedule

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound        = errors.New("faculty load not found")
	ErrSectionNotFound = errors.New("section not found")

	errEndBeforeStart    = errors.New("end_time must be after start_time")
	errSectionNotInTerm  = errors.New("section does not belong to the active school year")
	errLoadOutsideOfTerm = errors.New("faculty loads of inactive school years cannot be changed")
)

const msgConcurrentBooking = "a concurrent booking took this time: the teacher or the section already has a class at this time"

// ConflictKind names why a Candidate cannot be booked.
type ConflictKind string

const (
	TeacherConflict            ConflictKind = "TeacherConflict"
	SectionConflict            ConflictKind = "SectionConflict"
	DuplicateSubjectAssignment ConflictKind = "DuplicateSubjectAssignment"
	SubjectTeacherMismatch     ConflictKind = "SubjectTeacherMismatch"
)

// ConflictError is returned when a Candidate collides with an existing FacultyLoad.
// Conflict is nil when the collision was only detected by the database.
type ConflictError struct {
	Kind     ConflictKind `json:"kind"`
	Message  string       `json:"error"`
	Conflict *FacultyLoad `json:"conflict,omitempty"`
}

func (e *ConflictError) Error() string { return e.Message }

func asConflict(err error, target **ConflictError) bool {
	return errors.As(err, target)
}

// IsConflict reports whether err is a *ConflictError of one of the given kinds (any kind if none).
func IsConflict(err error, kinds ...ConflictKind) bool {
	var cErr *ConflictError
	if !asConflict(err, &cErr) {
		return false
	}
	if len(kinds) == 0 {
		return true
	}
	for _, k := range kinds {
		if cErr.Kind == k {
			return true
		}
	}
	return false
}

func newConflictError(kind ConflictKind, conflict *FacultyLoad) *ConflictError {
	var msg string
	switch kind {
	case TeacherConflict:
		msg = "teacher already has a class at this time"
		if conflict != nil {
			msg = fmt.Sprintf("teacher already has a class on %s", conflict.Schedule)
		}
	case SectionConflict:
		msg = "section already has a class at this time"
		if conflict != nil {
			msg = fmt.Sprintf("section already has a class on %s", conflict.Schedule)
		}
	case DuplicateSubjectAssignment:
		msg = "this teacher is already assigned to this subject for this section"
	case SubjectTeacherMismatch:
		msg = "this subject is already assigned to another teacher for this section"
	}
	return &ConflictError{Kind: kind, Message: msg, Conflict: conflict}
}

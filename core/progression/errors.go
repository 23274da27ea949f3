package progression

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrStudentNotFound = errors.New("student not found")
	ErrNotEnrolled     = errors.New("student is not enrolled")
	ErrGraduated       = errors.New("student already graduated")
)

// ErrorKind names why a promotion was refused.
type ErrorKind string

const (
	NoActiveTerm           ErrorKind = "NoActiveTerm"
	UngradedCoursework     ErrorKind = "UngradedCoursework"
	IncompleteRequirements ErrorKind = "IncompleteRequirements"
	InvalidPromotionType   ErrorKind = "InvalidPromotionType"
	MissingSection         ErrorKind = "MissingSection"
	Infrastructure         ErrorKind = "Infrastructure"
)

const (
	msgNoActiveTerm         = "No active school year found"
	msgUngradedCoursework   = "Student grade needs to be approved"
	msgIncomplete           = "Student did not pass all required subjects"
	msgYearNeedsSecondSem   = "Year promotion only allowed after completing 2nd semester"
	msgUseYearPromotion     = "Use year promotion after completing 2nd semester"
	msgUnknownPromotionType = "Unknown promotion type"
	msgMissingSectionFmt    = "Please add section %s for the current active school year before promoting the student."
	msgInfrastructure       = "Something went wrong while promoting the student. Please try again."
)

// Error is a refused or failed promotion.
// Code is set for MissingSection; Err is set for Infrastructure.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"error"`
	Code    string    `json:"section_code,omitempty"`
	Err     error     `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a progression *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var pErr *Error
	return errors.As(err, &pErr) && pErr.Kind == kind
}

func newError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func missingSectionError(code string) *Error {
	return &Error{Kind: MissingSection, Message: fmt.Sprintf(msgMissingSectionFmt, code), Code: code}
}

func infrastructureError(err error, msg string) *Error {
	return &Error{Kind: Infrastructure, Message: msgInfrastructure, Err: errors.Wrap(err, msg)}
}

package progression

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Academic calendar bounds.
const (
	FirstYearLevel = 1
	FinalYearLevel = 4
	FinalSemester  = 2
)

type StudentStatus int

const (
	StatusEnrolled  StudentStatus = 1
	StatusGraduated StudentStatus = 2
	StatusDropped   StudentStatus = 3
)

func (s StudentStatus) String() string {
	switch s {
	case StatusEnrolled:
		return "Enrolled"
	case StatusGraduated:
		return "Graduated"
	case StatusDropped:
		return "Dropped"
	default:
		return fmt.Sprintf("StudentStatus(%d)", int(s))
	}
}

func (s StudentStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type PromotionType string

const (
	PromotionSemester PromotionType = "semester"
	PromotionYear     PromotionType = "year"
)

type GradeStatus string

const (
	GradePending  GradeStatus = "PENDING"
	GradeApproved GradeStatus = "APPROVED"
	GradeRejected GradeStatus = "REJECTED"
)

type GradeRemarks string

const (
	RemarksPassed GradeRemarks = "PASSED"
	RemarksFailed GradeRemarks = "FAILED"
)

type Student struct {
	ID            int           `json:"id"`
	StudentNumber string        `json:"student_number"`
	FirstName     string        `json:"first_name"`
	LastName      string        `json:"last_name"`
	YearLevel     int           `json:"year_level"`
	Semester      int           `json:"semester"`
	SectionID     int           `json:"section_id"`
	TermID        int           `json:"school_year_id"`
	Status        StudentStatus `json:"status"`
	GraduatedAt   *time.Time    `json:"graduated_at,omitempty"` // UTC
}

// InFinalTerm reports whether the student is in the last semester of the last year level.
func (s Student) InFinalTerm() bool {
	return s.YearLevel == FinalYearLevel && s.Semester == FinalSemester
}

func (s Student) IsEnrolled() bool { return s.Status == StatusEnrolled }

// Grade is one student's grade for one curriculum subject in one term.
type Grade struct {
	ID           int          `json:"id"`
	StudentID    int          `json:"student_id"`
	CurriculumID int          `json:"curriculum_id"`
	YearLevel    int          `json:"year_level"`
	Semester     int          `json:"semester"`
	TermID       int          `json:"school_year_id"`
	Status       GradeStatus  `json:"grade_status"`
	Remarks      GradeRemarks `json:"grade_remarks"`
}

// Passed reports whether the grade counts toward the term's requirements.
func (g Grade) Passed() bool {
	return g.Status == GradeApproved && g.Remarks == RemarksPassed
}

// Blocking reports whether the grade prevents any promotion until it is approved.
func (g Grade) Blocking() bool {
	return g.Status == GradePending || g.Status == GradeRejected
}

// Curriculum is a subject required in a (year level, semester).
type Curriculum struct {
	ID           int    `json:"id"`
	YearLevel    int    `json:"year_level"`
	Semester     int    `json:"semester"`
	CourseCode   string `json:"course_code"`
	SubjectName  string `json:"subject_name"`
	LectureUnits int    `json:"lecture_units"`
	LabUnits     int    `json:"lab_units"`
}

func (c Curriculum) TotalUnits() int { return c.LectureUnits + c.LabUnits }

// Placement is where a student sits after a promotion.
type Placement struct {
	YearLevel   int    `json:"year_level"`
	Semester    int    `json:"semester"`
	SectionID   int    `json:"section_id"`
	SectionCode string `json:"section_code"`
	TermID      int    `json:"school_year_id"`
}

// Result is the outcome of a successful promotion: either a new Placement or a graduation.
type Result struct {
	StudentID int        `json:"student_id"`
	Graduated bool       `json:"graduated"`
	Placement *Placement `json:"placement,omitempty"`
	LoadCount int        `json:"load_count"`
	Message   string     `json:"message"`
}

// Progress summarizes a student's grades for their current term.
type Progress struct {
	Required int `json:"required"`
	Passed   int `json:"passed"`
	Blocking int `json:"blocking"`
}

func (p Progress) Complete() bool {
	return p.Required > 0 && p.Passed == p.Required
}

// PromoteRequest is the body of a promotion request.
type PromoteRequest struct {
	PromotionType PromotionType `json:"promotion_type" validate:"required,oneof=semester year"`
}

func (pr PromoteRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(pr)
}

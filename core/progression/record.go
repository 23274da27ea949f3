package progression

import (
	"context"
	"fmt"
	"sort"
)

// NotEncoded is reported for subjects the student has no grade for yet.
const NotEncoded = "NOT YET ENCODED"

type (
	// RecordEntry is one curriculum subject of a student's academic record.
	// GradeStatus and Remarks are empty when no grade was encoded.
	RecordEntry struct {
		CurriculumID int    `json:"curriculum_id"`
		YearLevel    int    `json:"year_level"`
		Semester     int    `json:"semester"`
		CourseCode   string `json:"course_code"`
		SubjectName  string `json:"subject_name"`
		LectureUnits int    `json:"lecture_units"`
		LabUnits     int    `json:"lab_units"`
		GradeStatus  string `json:"grade_status"`
		Remarks      string `json:"grade_remarks,omitempty"`
	}

	TermRecord struct {
		Label           string        `json:"label"`
		YearLevel       int           `json:"year_level"`
		Semester        int           `json:"semester"`
		IsCurrent       bool          `json:"is_current"`
		IsFinalSemester bool          `json:"is_final_semester"`
		TotalUnits      int           `json:"total_units"`
		Subjects        []RecordEntry `json:"subjects"`
	}

	// Record is a student's academic record grouped by (year level, semester).
	Record struct {
		Student    Student      `json:"student"`
		Terms      []TermRecord `json:"terms"`
		Progress   Progress     `json:"progress"`
		CanPromote bool         `json:"can_promote"`
		NextAction string       `json:"next_action,omitempty"`
	}

	RecordRepository interface {
		// QueryStudentRecord returns the curricula the student has a grade for, plus every
		// curriculum of (yearLevel, semester), along with the student's grade if any.
		QueryStudentRecord(ctx context.Context, studentID, yearLevel, semester int) ([]RecordEntry, error)
	}
)

// TermLabel formats a (year level, semester) for display, e.g. "Year 2 - 1st Semester".
func TermLabel(yearLevel, semester int) string {
	sem := "1st Semester"
	if semester == FinalSemester {
		sem = "2nd Semester"
	}
	return fmt.Sprintf("Year %d - %s", yearLevel, sem)
}

// NextAction tells which promotion a student can ask for, given their progress.
// It returns "" when no promotion is possible yet.
func NextAction(s Student, p Progress) string {
	if !s.IsEnrolled() || p.Blocking > 0 || !p.Complete() {
		return ""
	}
	switch {
	case s.InFinalTerm():
		return "graduate"
	case s.Semester == FinalSemester:
		return string(PromotionYear)
	default:
		return string(PromotionSemester)
	}
}

// AcademicRecord returns the student's subjects grouped by term, current term included.
func (e *Engine) AcademicRecord(ctx context.Context, studentID int) (Record, error) {
	stud, err := e.repo.GetStudent(ctx, studentID)
	if err != nil {
		return Record{}, err
	}
	entries, err := e.records.QueryStudentRecord(ctx, stud.ID, stud.YearLevel, stud.Semester)
	if err != nil {
		return Record{}, err
	}
	progress, err := e.progress(ctx, stud)
	if err != nil {
		return Record{}, err
	}

	action := NextAction(stud, progress)
	return Record{
		Student:    stud,
		Terms:      groupRecord(stud, entries),
		Progress:   progress,
		CanPromote: action != "",
		NextAction: action,
	}, nil
}

func groupRecord(stud Student, entries []RecordEntry) []TermRecord {
	type key struct{ year, sem int }
	byTerm := make(map[key]*TermRecord)
	var keys []key

	for _, entry := range entries {
		if entry.GradeStatus == "" {
			entry.GradeStatus = NotEncoded
		}
		k := key{entry.YearLevel, entry.Semester}
		tr, ok := byTerm[k]
		if !ok {
			tr = &TermRecord{
				Label:           TermLabel(k.year, k.sem),
				YearLevel:       k.year,
				Semester:        k.sem,
				IsCurrent:       k.year == stud.YearLevel && k.sem == stud.Semester,
				IsFinalSemester: k.year == FinalYearLevel && k.sem == FinalSemester,
			}
			byTerm[k] = tr
			keys = append(keys, k)
		}
		tr.TotalUnits += entry.LectureUnits + entry.LabUnits
		tr.Subjects = append(tr.Subjects, entry)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].sem < keys[j].sem
	})
	terms := make([]TermRecord, 0, len(keys))
	for _, k := range keys {
		terms = append(terms, *byTerm[k])
	}
	return terms
}

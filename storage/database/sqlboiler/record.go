package boiledrepos

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/progression"
)

// latest grade per curriculum, if any
const recordQuery = `
SELECT c.id AS curriculum_id, c.year_level, c.semester, c.course_code, c.subject_name,
       c.lecture_units, c.lab_units, g.grade_status, g.grade_remarks
FROM curricula c
LEFT JOIN LATERAL (
    SELECT sg.grade_status, sg.grade_remarks
    FROM student_grades sg
    WHERE sg.student_id = $1 AND sg.curriculum_id = c.id
    ORDER BY sg.school_year_id DESC, sg.id DESC
    LIMIT 1
) g ON true
WHERE g.grade_status IS NOT NULL OR (c.year_level = $2 AND c.semester = $3)
ORDER BY c.year_level, c.semester, c.course_code`

type recordEntry struct {
	CurriculumID int         `boil:"curriculum_id"`
	YearLevel    int         `boil:"year_level"`
	Semester     int         `boil:"semester"`
	CourseCode   string      `boil:"course_code"`
	SubjectName  string      `boil:"subject_name"`
	LectureUnits int         `boil:"lecture_units"`
	LabUnits     int         `boil:"lab_units"`
	GradeStatus  null.String `boil:"grade_status"`
	GradeRemarks null.String `boil:"grade_remarks"`
}

func (e recordEntry) unboil() progression.RecordEntry {
	return progression.RecordEntry{
		CurriculumID: e.CurriculumID,
		YearLevel:    e.YearLevel,
		Semester:     e.Semester,
		CourseCode:   e.CourseCode,
		SubjectName:  e.SubjectName,
		LectureUnits: e.LectureUnits,
		LabUnits:     e.LabUnits,
		GradeStatus:  e.GradeStatus.String,
		Remarks:      e.GradeRemarks.String,
	}
}

type recordRepository struct {
	exec core.DBExecutor
}

var _ progression.RecordRepository = (*recordRepository)(nil) // interface compliance check

func NewRecordRepository(exec core.DBExecutor) *recordRepository {
	return &recordRepository{exec: exec}
}

func (repo recordRepository) QueryStudentRecord(ctx context.Context, studentID, yearLevel, semester int) ([]progression.RecordEntry, error) {
	var rows []recordEntry
	if err := queries.Raw(recordQuery, studentID, yearLevel, semester).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying academic record")
	}
	entries := make([]progression.RecordEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.unboil())
	}
	return entries, nil
}

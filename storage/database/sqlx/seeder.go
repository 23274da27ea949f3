package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/progression"
	"github.com/trezcool/academia/core/schedule"
)

// Seeder inserts the records this service reads but does not manage
// (sections, curricula, students and grades). Used by fixtures and integration tests.
type Seeder struct {
	repo
}

func NewSeeder(exec core.DBExecutor) *Seeder {
	return &Seeder{repo{exec: exec}}
}

func (s *Seeder) insertID(ctx context.Context, exec []core.DBExecutor, q string, args ...interface{}) (int, error) {
	var rows []struct {
		ID int `db:"id"`
	}
	if err := selectAll(ctx, s.getExec(exec), &rows, q, args...); err != nil {
		return 0, err
	}
	return rows[0].ID, nil
}

func (s *Seeder) CreateSection(ctx context.Context, sec schedule.Section, exec ...core.DBExecutor) (schedule.Section, error) {
	id, err := s.insertID(ctx, exec, `
INSERT INTO sections (code, year_level, semester, school_year_id, min_students, max_students)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`,
		sec.Code, sec.YearLevel, sec.Semester, sec.TermID, sec.MinStudents, sec.MaxStudents)
	if err != nil {
		return schedule.Section{}, err
	}
	sec.ID = id
	return sec, nil
}

func (s *Seeder) CreateCurriculum(ctx context.Context, c progression.Curriculum, exec ...core.DBExecutor) (progression.Curriculum, error) {
	id, err := s.insertID(ctx, exec, `
INSERT INTO curricula (year_level, semester, course_code, subject_name, lecture_units, lab_units)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`,
		c.YearLevel, c.Semester, c.CourseCode, c.SubjectName, c.LectureUnits, c.LabUnits)
	if err != nil {
		return progression.Curriculum{}, err
	}
	c.ID = id
	return c, nil
}

func (s *Seeder) CreateStudent(ctx context.Context, stud progression.Student, exec ...core.DBExecutor) (progression.Student, error) {
	id, err := s.insertID(ctx, exec, `
INSERT INTO students (student_number, first_name, last_name, year_level, semester, section_id, school_year_id, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`,
		stud.StudentNumber, stud.FirstName, stud.LastName, stud.YearLevel, stud.Semester,
		nullID(stud.SectionID), nullID(stud.TermID), int(stud.Status))
	if err != nil {
		return progression.Student{}, err
	}
	stud.ID = id
	return stud, nil
}

func (s *Seeder) CreateGrade(ctx context.Context, g progression.Grade, exec ...core.DBExecutor) (progression.Grade, error) {
	var remarks sql.NullString
	if g.Remarks != "" {
		remarks = sql.NullString{String: string(g.Remarks), Valid: true}
	}
	id, err := s.insertID(ctx, exec, `
INSERT INTO student_grades (student_id, curriculum_id, year_level, semester, school_year_id, grade_status, grade_remarks)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`,
		g.StudentID, g.CurriculumID, g.YearLevel, g.Semester, g.TermID, string(g.Status), remarks)
	if err != nil {
		return progression.Grade{}, err
	}
	g.ID = id
	return g, nil
}

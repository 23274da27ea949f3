package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/progression"
	"github.com/trezcool/academia/core/schedule"
)

const studentColumns = `id, student_number, first_name, last_name, year_level, semester, section_id,
school_year_id, status, graduated_at`

type studentRow struct {
	ID            int           `db:"id"`
	StudentNumber string        `db:"student_number"`
	FirstName     string        `db:"first_name"`
	LastName      string        `db:"last_name"`
	YearLevel     int           `db:"year_level"`
	Semester      int           `db:"semester"`
	SectionID     sql.NullInt64 `db:"section_id"`
	TermID        sql.NullInt64 `db:"school_year_id"`
	Status        int           `db:"status"`
	GraduatedAt   sql.NullTime  `db:"graduated_at"`
}

func (r studentRow) student() progression.Student {
	s := progression.Student{
		ID:            r.ID,
		StudentNumber: r.StudentNumber,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		YearLevel:     r.YearLevel,
		Semester:      r.Semester,
		SectionID:     int(r.SectionID.Int64),
		TermID:        int(r.TermID.Int64),
		Status:        progression.StudentStatus(r.Status),
	}
	if r.GraduatedAt.Valid {
		t := r.GraduatedAt.Time.UTC()
		s.GraduatedAt = &t
	}
	return s
}

func nullID(id int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(id), Valid: id > 0}
}

type progressionRepository struct {
	repo
}

var _ progression.Repository = (*progressionRepository)(nil) // interface compliance check

func NewProgressionRepository(exec core.DBExecutor) *progressionRepository {
	return &progressionRepository{repo{exec: exec}}
}

func (r *progressionRepository) student(ctx context.Context, exec core.DBExecutor, q string, args ...interface{}) (progression.Student, error) {
	var rows []studentRow
	if err := selectAll(ctx, exec, &rows, q, args...); err != nil {
		return progression.Student{}, err
	}
	if len(rows) == 0 {
		return progression.Student{}, progression.ErrStudentNotFound
	}
	return rows[0].student(), nil
}

func (r *progressionRepository) GetStudent(ctx context.Context, id int, exec ...core.DBExecutor) (progression.Student, error) {
	return r.student(ctx, r.getExec(exec), `SELECT `+studentColumns+` FROM students WHERE id = $1`, id)
}

func (r *progressionRepository) LockStudent(ctx context.Context, id int, exec ...core.DBExecutor) (progression.Student, error) {
	return r.student(ctx, r.getExec(exec), `SELECT `+studentColumns+` FROM students WHERE id = $1 FOR UPDATE`, id)
}

func (r *progressionRepository) UpdateStudent(ctx context.Context, s progression.Student, exec ...core.DBExecutor) (progression.Student, error) {
	var graduatedAt sql.NullTime
	if s.GraduatedAt != nil {
		graduatedAt = sql.NullTime{Time: s.GraduatedAt.UTC(), Valid: true}
	}
	n, err := execAffected(ctx, r.getExec(exec), `
UPDATE students
SET year_level = $1, semester = $2, section_id = $3, school_year_id = $4, status = $5, graduated_at = $6
WHERE id = $7`,
		s.YearLevel, s.Semester, nullID(s.SectionID), nullID(s.TermID), int(s.Status), graduatedAt, s.ID)
	if err != nil {
		return progression.Student{}, err
	}
	if n == 0 {
		return progression.Student{}, progression.ErrStudentNotFound
	}
	return s, nil
}

func (r *progressionRepository) CountBlockingGrades(ctx context.Context, studentID, yearLevel, semester int, exec ...core.DBExecutor) (int, error) {
	return count(ctx, r.getExec(exec), `
SELECT COUNT(*) FROM student_grades
WHERE student_id = $1 AND year_level = $2 AND semester = $3 AND grade_status IN ($4, $5)`,
		studentID, yearLevel, semester, string(progression.GradePending), string(progression.GradeRejected))
}

func (r *progressionRepository) CountPassedGrades(ctx context.Context, studentID, yearLevel, semester int, exec ...core.DBExecutor) (int, error) {
	return count(ctx, r.getExec(exec), `
SELECT COUNT(DISTINCT curriculum_id) FROM student_grades
WHERE student_id = $1 AND year_level = $2 AND semester = $3 AND grade_status = $4 AND grade_remarks = $5`,
		studentID, yearLevel, semester, string(progression.GradeApproved), string(progression.RemarksPassed))
}

func (r *progressionRepository) CountCurricula(ctx context.Context, yearLevel, semester int, exec ...core.DBExecutor) (int, error) {
	return count(ctx, r.getExec(exec), `SELECT COUNT(*) FROM curricula WHERE year_level = $1 AND semester = $2`, yearLevel, semester)
}

func (r *progressionRepository) GetSection(ctx context.Context, id int, exec ...core.DBExecutor) (schedule.Section, error) {
	return getSection(ctx, r.getExec(exec), `SELECT `+sectionColumns+` FROM sections WHERE id = $1`, id)
}

func (r *progressionRepository) FindSection(ctx context.Context, code string, yearLevel, semester, termID int, exec ...core.DBExecutor) (schedule.Section, error) {
	q := `SELECT ` + sectionColumns + ` FROM sections
WHERE code = $1 AND year_level = $2 AND semester = $3 AND school_year_id = $4`
	return getSection(ctx, r.getExec(exec), q, code, yearLevel, semester, termID)
}

func (r *progressionRepository) QuerySectionLoadIDs(ctx context.Context, sectionID int, exec ...core.DBExecutor) ([]int, error) {
	var rows []struct {
		ID int `db:"id"`
	}
	if err := selectAll(ctx, r.getExec(exec), &rows, `SELECT id FROM faculty_loads WHERE section_id = $1 ORDER BY id`, sectionID); err != nil {
		return nil, errors.Wrap(err, "querying section loads")
	}
	ids := make([]int, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

func (r *progressionRepository) DeleteStudentLoads(ctx context.Context, studentID int, exec ...core.DBExecutor) (int, error) {
	return execAffected(ctx, r.getExec(exec), `DELETE FROM student_loads WHERE student_id = $1`, studentID)
}

func (r *progressionRepository) CreateStudentLoads(ctx context.Context, studentID int, loadIDs []int, exec ...core.DBExecutor) error {
	if len(loadIDs) == 0 {
		return nil
	}
	q, args, err := in(`
INSERT INTO student_loads (student_id, faculty_load_id)
SELECT ?, id FROM faculty_loads WHERE id IN (?)
ON CONFLICT (student_id, faculty_load_id) DO NOTHING`, studentID, loadIDs)
	if err != nil {
		return errors.Wrap(err, "building student loads query")
	}
	_, err = execAffected(ctx, r.getExec(exec), q, args...)
	return err
}

func (r *progressionRepository) CountStudentLoads(ctx context.Context, studentID int, exec ...core.DBExecutor) (int, error) {
	return count(ctx, r.getExec(exec), `SELECT COUNT(*) FROM student_loads WHERE student_id = $1`, studentID)
}

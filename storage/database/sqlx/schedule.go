package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/schedule"
)

const (
	sectionColumns = `id, code, year_level, semester, school_year_id, min_students, max_students`

	loadSelect = `
SELECT fl.id, fl.teacher_id, fl.curriculum_id, fl.section_id, fl.year_level, fl.semester,
       fl.school_year_id, fl.class_schedule_id, cs.day, cs.start_time, cs.end_time,
       fl.created_at, fl.updated_at
FROM faculty_loads fl
JOIN class_schedules cs ON cs.id = fl.class_schedule_id`
)

var loadOrderingColumns = map[string]string{
	"id":         "fl.id",
	"teacher_id": "fl.teacher_id",
	"section_id": "fl.section_id",
	"day":        "cs.day",
	"start_time": "cs.start_time",
	"created_at": "fl.created_at",
}

type sectionRow struct {
	ID          int    `db:"id"`
	Code        string `db:"code"`
	YearLevel   int    `db:"year_level"`
	Semester    int    `db:"semester"`
	TermID      int    `db:"school_year_id"`
	MinStudents int    `db:"min_students"`
	MaxStudents int    `db:"max_students"`
}

func (r sectionRow) section() schedule.Section {
	return schedule.Section{
		ID:          r.ID,
		Code:        r.Code,
		YearLevel:   r.YearLevel,
		Semester:    r.Semester,
		TermID:      r.TermID,
		MinStudents: r.MinStudents,
		MaxStudents: r.MaxStudents,
	}
}

type loadRow struct {
	ID           int                `db:"id"`
	TeacherID    int                `db:"teacher_id"`
	CurriculumID int                `db:"curriculum_id"`
	SectionID    int                `db:"section_id"`
	YearLevel    int                `db:"year_level"`
	Semester     int                `db:"semester"`
	TermID       int                `db:"school_year_id"`
	ScheduleID   int                `db:"class_schedule_id"`
	Day          string             `db:"day"`
	StartTime    schedule.ClockTime `db:"start_time"`
	EndTime      schedule.ClockTime `db:"end_time"`
	CreatedAt    time.Time          `db:"created_at"`
	UpdatedAt    time.Time          `db:"updated_at"`
}

func (r loadRow) load() schedule.FacultyLoad {
	return schedule.FacultyLoad{
		ID:           r.ID,
		TeacherID:    r.TeacherID,
		CurriculumID: r.CurriculumID,
		SectionID:    r.SectionID,
		YearLevel:    r.YearLevel,
		Semester:     r.Semester,
		TermID:       r.TermID,
		ScheduleID:   r.ScheduleID,
		Schedule:     schedule.Slot{Day: schedule.Weekday(r.Day), Start: r.StartTime, End: r.EndTime},
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

func loads(rows []loadRow) []schedule.FacultyLoad {
	res := make([]schedule.FacultyLoad, 0, len(rows))
	for _, row := range rows {
		res = append(res, row.load())
	}
	return res
}

type scheduleRepository struct {
	repo
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(exec core.DBExecutor) *scheduleRepository {
	return &scheduleRepository{repo{exec: exec}}
}

func (r *scheduleRepository) queryLoads(ctx context.Context, exec core.DBExecutor, q string, args ...interface{}) ([]schedule.FacultyLoad, error) {
	var rows []loadRow
	if err := selectAll(ctx, exec, &rows, q, args...); err != nil {
		return nil, err
	}
	return loads(rows), nil
}

func (r *scheduleRepository) GetSection(ctx context.Context, id int, exec ...core.DBExecutor) (schedule.Section, error) {
	return getSection(ctx, r.getExec(exec), `SELECT `+sectionColumns+` FROM sections WHERE id = $1`, id)
}

func getSection(ctx context.Context, exec core.DBExecutor, q string, args ...interface{}) (schedule.Section, error) {
	var rows []sectionRow
	if err := selectAll(ctx, exec, &rows, q, args...); err != nil {
		return schedule.Section{}, err
	}
	if len(rows) == 0 {
		return schedule.Section{}, schedule.ErrSectionNotFound
	}
	return rows[0].section(), nil
}

// overlap matches schedules on the same day whose half-open ranges intersect.
const overlap = ` AND cs.day = $3 AND cs.start_time < $5 AND $4 < cs.end_time AND fl.id <> $6`

func (r *scheduleRepository) GetOverlappingLoadsForTeacher(
	ctx context.Context,
	termID, teacherID int,
	slot schedule.Slot,
	excludeID int,
	exec ...core.DBExecutor,
) ([]schedule.FacultyLoad, error) {
	q := loadSelect + ` WHERE fl.school_year_id = $1 AND fl.teacher_id = $2` + overlap + ` ORDER BY cs.start_time`
	return r.queryLoads(ctx, r.getExec(exec), q, termID, teacherID, string(slot.Day), slot.Start, slot.End, excludeID)
}

func (r *scheduleRepository) GetOverlappingLoadsForSection(
	ctx context.Context,
	termID, sectionID int,
	slot schedule.Slot,
	excludeID int,
	exec ...core.DBExecutor,
) ([]schedule.FacultyLoad, error) {
	q := loadSelect + ` WHERE fl.school_year_id = $1 AND fl.section_id = $2` + overlap + ` ORDER BY cs.start_time`
	return r.queryLoads(ctx, r.getExec(exec), q, termID, sectionID, string(slot.Day), slot.Start, slot.End, excludeID)
}

func (r *scheduleRepository) QuerySubjectLoads(ctx context.Context, termID, sectionID, curriculumID int, excludeID int, exec ...core.DBExecutor) ([]schedule.FacultyLoad, error) {
	q := loadSelect + `
WHERE fl.school_year_id = $1 AND fl.section_id = $2 AND fl.curriculum_id = $3 AND fl.id <> $4
ORDER BY fl.id`
	return r.queryLoads(ctx, r.getExec(exec), q, termID, sectionID, curriculumID, excludeID)
}

func (r *scheduleRepository) GetLoad(ctx context.Context, id int, exec ...core.DBExecutor) (schedule.FacultyLoad, error) {
	res, err := r.queryLoads(ctx, r.getExec(exec), loadSelect+` WHERE fl.id = $1`, id)
	if err != nil {
		return schedule.FacultyLoad{}, err
	}
	if len(res) == 0 {
		return schedule.FacultyLoad{}, schedule.ErrNotFound
	}
	return res[0], nil
}

func (r *scheduleRepository) QueryLoads(ctx context.Context, filter *schedule.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]schedule.FacultyLoad, error) {
	var w where
	if filter != nil {
		if filter.TermID > 0 {
			w.eq("fl.school_year_id", filter.TermID)
		}
		if filter.TeacherID > 0 {
			w.eq("fl.teacher_id", filter.TeacherID)
		}
		if filter.SectionID > 0 {
			w.eq("fl.section_id", filter.SectionID)
		}
		if filter.Day != "" {
			w.eq("cs.day", filter.Day)
		}
	}
	q, args, err := in(loadSelect+w.String()+orderBy(ordering, loadOrderingColumns, "cs.day, cs.start_time"), w.args...)
	if err != nil {
		return nil, errors.Wrap(err, "building faculty loads query")
	}
	res, err := r.queryLoads(ctx, r.getExec(exec), q, args...)
	return res, errors.Wrap(err, "querying faculty loads")
}

func (r *scheduleRepository) CreateLoad(ctx context.Context, load schedule.FacultyLoad, exec ...core.DBExecutor) (schedule.FacultyLoad, error) {
	ex := r.getExec(exec)
	slot := load.Schedule
	var ids []struct {
		ID int `db:"id"`
	}
	err := selectAll(ctx, ex, &ids,
		`INSERT INTO class_schedules (day, start_time, end_time) VALUES ($1, $2, $3) RETURNING id`,
		string(slot.Day), slot.Start, slot.End)
	if err != nil {
		return schedule.FacultyLoad{}, err
	}
	load.ScheduleID = ids[0].ID

	ids = nil
	err = selectAll(ctx, ex, &ids, `
INSERT INTO faculty_loads (teacher_id, curriculum_id, section_id, year_level, semester, school_year_id,
                           class_schedule_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id`,
		load.TeacherID, load.CurriculumID, load.SectionID, load.YearLevel, load.Semester, load.TermID,
		load.ScheduleID, load.CreatedAt.UTC(), load.UpdatedAt.UTC())
	if err != nil {
		return schedule.FacultyLoad{}, err
	}
	load.ID = ids[0].ID
	return load, nil
}

func (r *scheduleRepository) UpdateLoad(ctx context.Context, load schedule.FacultyLoad, exec ...core.DBExecutor) (schedule.FacultyLoad, error) {
	ex := r.getExec(exec)
	slot := load.Schedule
	if _, err := execAffected(ctx, ex,
		`UPDATE class_schedules SET day = $1, start_time = $2, end_time = $3 WHERE id = $4`,
		string(slot.Day), slot.Start, slot.End, load.ScheduleID); err != nil {
		return schedule.FacultyLoad{}, err
	}

	n, err := execAffected(ctx, ex, `
UPDATE faculty_loads
SET teacher_id = $1, curriculum_id = $2, section_id = $3, year_level = $4, semester = $5,
    school_year_id = $6, updated_at = $7
WHERE id = $8`,
		load.TeacherID, load.CurriculumID, load.SectionID, load.YearLevel, load.Semester,
		load.TermID, load.UpdatedAt.UTC(), load.ID)
	if err != nil {
		return schedule.FacultyLoad{}, err
	}
	if n == 0 {
		return schedule.FacultyLoad{}, schedule.ErrNotFound
	}
	return load, nil
}

func (r *scheduleRepository) DeleteStudentLoadsByLoad(ctx context.Context, loadID int, exec ...core.DBExecutor) (int, error) {
	return execAffected(ctx, r.getExec(exec), `DELETE FROM student_loads WHERE faculty_load_id = $1`, loadID)
}

// EnrollSectionStudents only enrols students with status 1 (Enrolled).
func (r *scheduleRepository) EnrollSectionStudents(ctx context.Context, loadID, sectionID int, exec ...core.DBExecutor) (int, error) {
	return execAffected(ctx, r.getExec(exec), `
INSERT INTO student_loads (student_id, faculty_load_id)
SELECT id, $1 FROM students WHERE section_id = $2 AND status = 1
ON CONFLICT (student_id, faculty_load_id) DO NOTHING`, loadID, sectionID)
}

func (r *scheduleRepository) DeleteLoad(ctx context.Context, id int, exec ...core.DBExecutor) error {
	n, err := execAffected(ctx, r.getExec(exec), `DELETE FROM faculty_loads WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return schedule.ErrNotFound
	}
	return nil
}

func (r *scheduleRepository) DeleteSchedule(ctx context.Context, scheduleID int, exec ...core.DBExecutor) error {
	_, err := execAffected(ctx, r.getExec(exec), `DELETE FROM class_schedules WHERE id = $1`, scheduleID)
	return err
}

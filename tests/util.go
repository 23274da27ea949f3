package testutil

import (
	"context"
	"database/sql"
	"io/ioutil"
	"log"
	"os"
	"testing"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/progression"
	"github.com/trezcool/academia/core/schedule"
	"github.com/trezcool/academia/core/term"
	"github.com/trezcool/academia/services/logger"
	"github.com/trezcool/academia/storage/database"
	"github.com/trezcool/academia/storage/database/dummy"
)

// NewConfig returns the TEST config.
func NewConfig() *core.Config {
	_ = os.Setenv("ENV", "TEST")
	return core.NewConfig()
}

// NewLogger returns a logger that discards everything unless -v is given.
func NewLogger() core.Logger {
	out := ioutil.Discard
	if testing.Verbose() {
		out = os.Stdout
	}
	return logsvc.NewRollbarLogger(log.New(out, "TEST : ", log.LstdFlags), &core.Config{Env: "TEST", Debug: true})
}

// PrepareDB opens the TEST postgres database, migrates and empties it.
// The test is skipped when the database is unreachable.
func PrepareDB(t *testing.T) *sql.DB {
	t.Helper()
	conf := NewConfig()

	database.PingAttempts = 2
	if err := database.CreateIfNotExist(conf); err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db); err != nil {
		t.Fatalf("PrepareDB(): %v", err)
	}
	ResetDB(t, db)
	return db
}

// ResetDB empties every table.
func ResetDB(t *testing.T, db *sql.DB) {
	t.Helper()
	q := `TRUNCATE student_loads, student_grades, students, faculty_loads, class_schedules,
sections, curricula, school_years RESTART IDENTITY CASCADE`
	if _, err := db.ExecContext(context.Background(), q); err != nil {
		t.Fatalf("ResetDB(): %v", err)
	}
}

// Fixture seeds a dummy database with an active school year.
type Fixture struct {
	t      *testing.T
	DB     *dummydb.DB
	Active term.Term
}

func NewFixture(t *testing.T) *Fixture {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("NewFixture(): %v", err)
	}
	return &Fixture{
		t:      t,
		DB:     db,
		Active: db.AddTerm(term.Term{Name: "2024-2025", Status: term.StatusActive}),
	}
}

func (f *Fixture) Section(code string, yearLevel, semester int) schedule.Section {
	return f.DB.AddSection(schedule.Section{Code: code, YearLevel: yearLevel, Semester: semester, TermID: f.Active.ID, MaxStudents: 40})
}

// Curricula adds n subjects to a (year level, semester).
func (f *Fixture) Curricula(yearLevel, semester, n int) []progression.Curriculum {
	res := make([]progression.Curriculum, 0, n)
	for i := 1; i <= n; i++ {
		res = append(res, f.DB.AddCurriculum(progression.Curriculum{
			YearLevel:    yearLevel,
			Semester:     semester,
			CourseCode:   courseCode(yearLevel, semester, i),
			SubjectName:  "Subject " + courseCode(yearLevel, semester, i),
			LectureUnits: 2,
			LabUnits:     1,
		}))
	}
	return res
}

func courseCode(yearLevel, semester, i int) string {
	return "CS" + string(rune('0'+yearLevel)) + string(rune('0'+semester)) + string(rune('0'+i))
}

// Student adds an Enrolled student placed in sec.
func (f *Fixture) Student(number string, sec schedule.Section) progression.Student {
	return f.DB.AddStudent(progression.Student{
		StudentNumber: number,
		FirstName:     "Juan",
		LastName:      number,
		YearLevel:     sec.YearLevel,
		Semester:      sec.Semester,
		SectionID:     sec.ID,
		TermID:        f.Active.ID,
		Status:        progression.StatusEnrolled,
	})
}

// Grades grades the student in every curriculum with the same status and remarks.
func (f *Fixture) Grades(stud progression.Student, curricula []progression.Curriculum, status progression.GradeStatus, remarks progression.GradeRemarks) {
	for _, c := range curricula {
		f.DB.AddGrade(progression.Grade{
			StudentID:    stud.ID,
			CurriculumID: c.ID,
			YearLevel:    c.YearLevel,
			Semester:     c.Semester,
			TermID:       f.Active.ID,
			Status:       status,
			Remarks:      remarks,
		})
	}
}

// Load books a FacultyLoad directly, without conflict checks.
func (f *Fixture) Load(teacherID int, c progression.Curriculum, sec schedule.Section, slot schedule.Slot) schedule.FacultyLoad {
	load, err := dummydb.NewScheduleRepository(f.DB).CreateLoad(context.Background(), schedule.FacultyLoad{
		TeacherID:    teacherID,
		CurriculumID: c.ID,
		SectionID:    sec.ID,
		YearLevel:    sec.YearLevel,
		Semester:     sec.Semester,
		TermID:       sec.TermID,
		Schedule:     slot,
	})
	if err != nil {
		f.t.Fatalf("Fixture.Load(): %v", err)
	}
	return load
}

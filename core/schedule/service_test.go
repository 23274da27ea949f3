package schedule_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/progression"
	"github.com/trezcool/academia/core/schedule"
	"github.com/trezcool/academia/core/term"
	"github.com/trezcool/academia/storage/database/dummy"
	"github.com/trezcool/academia/tests"
)

type scheduleSetup struct {
	f        *testutil.Fixture
	svc      *schedule.Service
	repo     schedule.Repository
	sec      schedule.Section
	subjects []progression.Curriculum
}

func newScheduleSetup(t *testing.T, maxAttempts int) scheduleSetup {
	f := testutil.NewFixture(t)
	repo := dummydb.NewScheduleRepository(f.DB)
	terms := term.NewService(f.DB, dummydb.NewTermRepository(f.DB), nil)
	conf := &core.Config{Scheduling: core.SchedulingConfig{MaxTxAttempts: maxAttempts}}
	return scheduleSetup{
		f:        f,
		svc:      schedule.NewService(f.DB, repo, terms, conf, testutil.NewLogger()),
		repo:     repo,
		sec:      f.Section("101A", 1, 1),
		subjects: f.Curricula(1, 1, 3),
	}
}

func (s scheduleSetup) assignment(teacherID, subject int, sl schedule.Slot) schedule.Assignment {
	return schedule.Assignment{TeacherID: teacherID, CurriculumID: s.subjects[subject].ID, SectionID: s.sec.ID, Slot: sl}
}

func TestService_CreateLoad(t *testing.T) {
	ctx := context.Background()
	s := newScheduleSetup(t, 3)

	created, err := s.svc.CreateLoad(ctx, s.assignment(10, 0, slot(schedule.Monday, "09:00", "10:00")))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.NotZero(t, created.ScheduleID)
	assert.Equal(t, s.sec.YearLevel, created.YearLevel)
	assert.Equal(t, s.sec.Semester, created.Semester)
	assert.Equal(t, s.f.Active.ID, created.TermID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := s.svc.GetLoad(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	tests := []struct {
		name     string
		a        schedule.Assignment
		wantKind schedule.ConflictKind
	}{
		{name: "teacher overlap", a: s.assignment(10, 1, slot(schedule.Monday, "09:30", "10:30")), wantKind: schedule.TeacherConflict},
		{name: "section overlap", a: s.assignment(11, 1, slot(schedule.Monday, "09:59", "11:00")), wantKind: schedule.SectionConflict},
		{name: "duplicate subject", a: s.assignment(10, 0, slot(schedule.Friday, "09:00", "10:00")), wantKind: schedule.DuplicateSubjectAssignment},
		{name: "subject taught by another teacher", a: s.assignment(12, 0, slot(schedule.Friday, "09:00", "10:00")), wantKind: schedule.SubjectTeacherMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.svc.CreateLoad(ctx, tt.a)
			assert.True(t, schedule.IsConflict(err, tt.wantKind), "got %v", err)
		})
	}

	t.Run("adjacent", func(t *testing.T) {
		_, err := s.svc.CreateLoad(ctx, s.assignment(10, 1, slot(schedule.Monday, "10:00", "11:00")))
		assert.NoError(t, err)
	})

	loads, err := s.svc.QueryLoads(ctx, &schedule.QueryFilter{TeacherID: 10}, nil)
	require.NoError(t, err)
	assert.Len(t, loads, 2)
}

func TestService_CreateLoad_section(t *testing.T) {
	ctx := context.Background()
	s := newScheduleSetup(t, 3)

	t.Run("unknown section", func(t *testing.T) {
		a := s.assignment(10, 0, slot(schedule.Monday, "09:00", "10:00"))
		a.SectionID = 9999
		_, err := s.svc.CreateLoad(ctx, a)
		vErr, ok := err.(*core.ValidationError)
		require.True(t, ok, "got %T", err)
		assert.Equal(t, "section_id", vErr.Fields[0].Field)
	})

	t.Run("section of another school year", func(t *testing.T) {
		old := s.f.DB.AddTerm(term.Term{Name: "2023-2024", Status: term.StatusInactive})
		sec := s.f.DB.AddSection(schedule.Section{Code: "101A", YearLevel: 1, Semester: 1, TermID: old.ID})
		a := s.assignment(10, 0, slot(schedule.Monday, "09:00", "10:00"))
		a.SectionID = sec.ID
		_, err := s.svc.CreateLoad(ctx, a)
		_, ok := err.(*core.ValidationError)
		assert.True(t, ok, "got %v", err)
	})

	t.Run("no active school year", func(t *testing.T) {
		tr := dummydb.NewTermRepository(s.f.DB)
		require.NoError(t, tr.DeactivateTerms(ctx))
		_, err := s.svc.CreateLoad(ctx, s.assignment(10, 0, slot(schedule.Monday, "09:00", "10:00")))
		assert.Equal(t, term.ErrNoActiveTerm, errors.Cause(err))
	})
}

// Two admins booking the same teacher at the same time: the database rejects the loser's
// commit, the retry re-runs the check and reports the precise conflict.
func TestService_CreateLoad_retry(t *testing.T) {
	ctx := context.Background()

	t.Run("retry reports the winner", func(t *testing.T) {
		s := newScheduleSetup(t, 3)
		winner := s.f.Load(10, s.subjects[1], s.f.Section("101B", 1, 1), slot(schedule.Monday, "09:00", "10:00"))

		// first attempt fails as if the winner committed in between
		s.f.DB.InjectError("GetOverlappingLoadsForTeacher", &core.TxConflictError{Err: errors.New("could not serialize access")})
		_, err := s.svc.CreateLoad(ctx, s.assignment(10, 0, slot(schedule.Monday, "09:30", "10:30")))

		var cErr *schedule.ConflictError
		require.True(t, errors.As(err, &cErr), "got %v", err)
		assert.Equal(t, schedule.TeacherConflict, cErr.Kind)
		require.NotNil(t, cErr.Conflict)
		assert.Equal(t, winner.ID, cErr.Conflict.ID)
	})

	t.Run("retry then success", func(t *testing.T) {
		s := newScheduleSetup(t, 3)
		s.f.DB.InjectError("CreateLoad", &core.TxConflictError{Err: errors.New("could not serialize access")})
		created, err := s.svc.CreateLoad(ctx, s.assignment(10, 0, slot(schedule.Monday, "09:00", "10:00")))
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
	})

	tests := []struct {
		name     string
		txErr    *core.TxConflictError
		wantKind schedule.ConflictKind
		wantMsg  string
	}{
		{
			name: "exhausted serialization failures", txErr: &core.TxConflictError{}, wantKind: schedule.TeacherConflict,
			wantMsg: "a concurrent booking took this time: the teacher or the section already has a class at this time",
		},
		{
			name: "exhausted unique violations", txErr: &core.TxConflictError{Unique: true}, wantKind: schedule.DuplicateSubjectAssignment,
			wantMsg: "this teacher is already assigned to this subject for this section",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newScheduleSetup(t, 2)
			s.f.DB.InjectError("CreateLoad", tt.txErr)
			s.f.DB.InjectError("CreateLoad", tt.txErr)

			_, err := s.svc.CreateLoad(ctx, s.assignment(10, 0, slot(schedule.Monday, "09:00", "10:00")))
			var cErr *schedule.ConflictError
			require.True(t, errors.As(err, &cErr), "got %v", err)
			assert.Equal(t, tt.wantKind, cErr.Kind)
			assert.Equal(t, tt.wantMsg, cErr.Message)
			assert.Nil(t, cErr.Conflict)

			loads, err := s.svc.QueryLoads(ctx, nil, nil)
			require.NoError(t, err)
			assert.Empty(t, loads)
		})
	}
}

func TestService_UpdateLoad(t *testing.T) {
	ctx := context.Background()
	s := newScheduleSetup(t, 3)

	load, err := s.svc.CreateLoad(ctx, s.assignment(10, 0, slot(schedule.Monday, "09:00", "10:00")))
	require.NoError(t, err)
	other, err := s.svc.CreateLoad(ctx, s.assignment(11, 1, slot(schedule.Monday, "10:00", "11:00")))
	require.NoError(t, err)

	t.Run("move within its own slot", func(t *testing.T) {
		updated, err := s.svc.UpdateLoad(ctx, load.ID, s.assignment(10, 0, slot(schedule.Monday, "08:30", "09:30")))
		require.NoError(t, err)
		assert.Equal(t, load.ID, updated.ID)
		assert.Equal(t, load.ScheduleID, updated.ScheduleID)
		assert.Equal(t, load.CreatedAt, updated.CreatedAt)
		assert.Equal(t, schedule.MustClockTime("08:30"), updated.Schedule.Start)
	})

	t.Run("into the other load's slot", func(t *testing.T) {
		_, err := s.svc.UpdateLoad(ctx, load.ID, s.assignment(10, 0, slot(schedule.Monday, "10:30", "11:30")))
		assert.True(t, schedule.IsConflict(err, schedule.SectionConflict), "got %v", err)
	})

	t.Run("onto the other load's subject", func(t *testing.T) {
		_, err := s.svc.UpdateLoad(ctx, load.ID, s.assignment(10, 1, slot(schedule.Tuesday, "08:00", "09:00")))
		assert.True(t, schedule.IsConflict(err, schedule.SubjectTeacherMismatch), "got %v", err)
	})

	t.Run("unknown load", func(t *testing.T) {
		_, err := s.svc.UpdateLoad(ctx, 9999, s.assignment(10, 0, slot(schedule.Monday, "08:30", "09:30")))
		assert.Equal(t, schedule.ErrNotFound, err)
	})

	t.Run("load of an inactive school year", func(t *testing.T) {
		next := s.f.DB.AddTerm(term.Term{Name: "2025-2026"})
		terms := term.NewService(s.f.DB, dummydb.NewTermRepository(s.f.DB), nil)
		_, err := terms.SetActive(ctx, next.ID)
		require.NoError(t, err)

		_, err = s.svc.UpdateLoad(ctx, other.ID, s.assignment(11, 1, slot(schedule.Monday, "13:00", "14:00")))
		_, ok := err.(*core.ValidationError)
		assert.True(t, ok, "got %v", err)
	})
}

func TestService_UpdateLoad_roster(t *testing.T) {
	ctx := context.Background()
	s := newScheduleSetup(t, 3)
	progRepo := dummydb.NewProgressionRepository(s.f.DB)

	load, err := s.svc.CreateLoad(ctx, s.assignment(10, 0, slot(schedule.Monday, "09:00", "10:00")))
	require.NoError(t, err)
	oldStud := s.f.Student("2024-0001", s.sec)
	require.NoError(t, progRepo.CreateStudentLoads(ctx, oldStud.ID, []int{load.ID}))

	sec := s.f.Section("101B", 1, 1)
	newStud := s.f.Student("2024-0002", sec)
	dropped := s.f.Student("2024-0003", sec)
	dropped.Status = progression.StatusDropped
	_, err = progRepo.UpdateStudent(ctx, dropped)
	require.NoError(t, err)

	t.Run("same section keeps the roster", func(t *testing.T) {
		_, err := s.svc.UpdateLoad(ctx, load.ID, s.assignment(10, 0, slot(schedule.Monday, "08:00", "09:00")))
		require.NoError(t, err)
		assert.Equal(t, []int{load.ID}, s.f.DB.StudentLoadIDs(oldStud.ID))
		assert.Empty(t, s.f.DB.StudentLoadIDs(newStud.ID))
	})

	t.Run("another section takes the roster over", func(t *testing.T) {
		a := s.assignment(10, 0, slot(schedule.Monday, "08:00", "09:00"))
		a.SectionID = sec.ID
		updated, err := s.svc.UpdateLoad(ctx, load.ID, a)
		require.NoError(t, err)
		assert.Equal(t, sec.ID, updated.SectionID)

		assert.Empty(t, s.f.DB.StudentLoadIDs(oldStud.ID))
		assert.Equal(t, []int{load.ID}, s.f.DB.StudentLoadIDs(newStud.ID))
		assert.Empty(t, s.f.DB.StudentLoadIDs(dropped.ID))
	})

	t.Run("failed enrolment rolls the move back", func(t *testing.T) {
		s.f.DB.InjectError("EnrollSectionStudents", errors.New("boom"))
		a := s.assignment(10, 0, slot(schedule.Monday, "08:00", "09:00"))
		_, err := s.svc.UpdateLoad(ctx, load.ID, a)
		require.Error(t, err)

		got, err := s.svc.GetLoad(ctx, load.ID)
		require.NoError(t, err)
		assert.Equal(t, sec.ID, got.SectionID)
		assert.Equal(t, []int{load.ID}, s.f.DB.StudentLoadIDs(newStud.ID))
	})
}

func TestService_Check(t *testing.T) {
	ctx := context.Background()
	s := newScheduleSetup(t, 3)

	load, err := s.svc.CreateLoad(ctx, s.assignment(10, 0, slot(schedule.Monday, "09:00", "10:00")))
	require.NoError(t, err)

	_, err = s.svc.Check(ctx, s.assignment(10, 1, slot(schedule.Monday, "09:30", "10:30")), 0)
	assert.True(t, schedule.IsConflict(err, schedule.TeacherConflict))

	res, err := s.svc.Check(ctx, s.assignment(10, 0, slot(schedule.Monday, "09:30", "10:30")), load.ID)
	require.NoError(t, err)
	assert.Equal(t, load.ID, res.ID)
	assert.Equal(t, s.sec.YearLevel, res.YearLevel)

	// dry run: nothing written
	got, err := s.svc.GetLoad(ctx, load.ID)
	require.NoError(t, err)
	assert.Equal(t, load.Schedule, got.Schedule)
}

func TestService_DeleteLoad(t *testing.T) {
	ctx := context.Background()
	s := newScheduleSetup(t, 3)

	load, err := s.svc.CreateLoad(ctx, s.assignment(10, 0, slot(schedule.Monday, "09:00", "10:00")))
	require.NoError(t, err)
	stud := s.f.Student("2024-0001", s.sec)
	require.NoError(t, dummydb.NewProgressionRepository(s.f.DB).CreateStudentLoads(ctx, stud.ID, []int{load.ID}))

	t.Run("failure rolls back", func(t *testing.T) {
		s.f.DB.InjectError("DeleteLoad", errors.New("connection reset"))
		require.Error(t, s.svc.DeleteLoad(ctx, load.ID))
		assert.Equal(t, []int{load.ID}, s.f.DB.StudentLoadIDs(stud.ID))
		_, err := s.svc.GetLoad(ctx, load.ID)
		assert.NoError(t, err)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.svc.DeleteLoad(ctx, load.ID))
		assert.Empty(t, s.f.DB.StudentLoadIDs(stud.ID))
		_, err := s.svc.GetLoad(ctx, load.ID)
		assert.Equal(t, schedule.ErrNotFound, err)
	})

	t.Run("unknown", func(t *testing.T) {
		assert.Equal(t, schedule.ErrNotFound, s.svc.DeleteLoad(ctx, load.ID))
	})
}

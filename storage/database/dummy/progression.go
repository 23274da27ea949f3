package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/progression"
	"github.com/trezcool/academia/core/schedule"
)

type progressionRepository struct {
	db *DB
}

var _ progression.Repository = (*progressionRepository)(nil) // interface compliance check

func NewProgressionRepository(db *DB) progression.Repository {
	return &progressionRepository{db: db}
}

func (repo *progressionRepository) GetStudent(_ context.Context, id int, _ ...core.DBExecutor) (progression.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.t.students[id]; ok {
		return s, nil
	}
	return progression.Student{}, progression.ErrStudentNotFound
}

// LockStudent relies on RunInTx running one transaction at a time.
func (repo *progressionRepository) LockStudent(ctx context.Context, id int, exec ...core.DBExecutor) (progression.Student, error) {
	return repo.GetStudent(ctx, id, exec...)
}

func (repo *progressionRepository) UpdateStudent(_ context.Context, s progression.Student, _ ...core.DBExecutor) (progression.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if err := repo.db.fault("UpdateStudent"); err != nil {
		return progression.Student{}, err
	}
	if _, ok := repo.db.t.students[s.ID]; !ok {
		return progression.Student{}, progression.ErrStudentNotFound
	}
	repo.db.t.students[s.ID] = s
	return s, nil
}

func (repo *progressionRepository) countGrades(studentID, yearLevel, semester int, keep func(g progression.Grade) bool) int {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var n int
	for _, g := range repo.db.t.grades {
		if g.StudentID == studentID && g.YearLevel == yearLevel && g.Semester == semester && keep(g) {
			n++
		}
	}
	return n
}

func (repo *progressionRepository) CountBlockingGrades(_ context.Context, studentID, yearLevel, semester int, _ ...core.DBExecutor) (int, error) {
	return repo.countGrades(studentID, yearLevel, semester, progression.Grade.Blocking), nil
}

func (repo *progressionRepository) CountPassedGrades(_ context.Context, studentID, yearLevel, semester int, _ ...core.DBExecutor) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	curricula := make(map[int]struct{})
	for _, g := range repo.db.t.grades {
		if g.StudentID == studentID && g.YearLevel == yearLevel && g.Semester == semester && g.Passed() {
			curricula[g.CurriculumID] = struct{}{}
		}
	}
	return len(curricula), nil
}

func (repo *progressionRepository) CountCurricula(_ context.Context, yearLevel, semester int, _ ...core.DBExecutor) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var n int
	for _, c := range repo.db.t.curricula {
		if c.YearLevel == yearLevel && c.Semester == semester {
			n++
		}
	}
	return n, nil
}

func (repo *progressionRepository) GetSection(_ context.Context, id int, _ ...core.DBExecutor) (schedule.Section, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.t.sections[id]; ok {
		return s, nil
	}
	return schedule.Section{}, schedule.ErrSectionNotFound
}

func (repo *progressionRepository) FindSection(_ context.Context, code string, yearLevel, semester, termID int, _ ...core.DBExecutor) (schedule.Section, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, s := range repo.db.t.sections {
		if s.Code == code && s.YearLevel == yearLevel && s.Semester == semester && s.TermID == termID {
			return s, nil
		}
	}
	return schedule.Section{}, schedule.ErrSectionNotFound
}

func (repo *progressionRepository) QuerySectionLoadIDs(_ context.Context, sectionID int, _ ...core.DBExecutor) ([]int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var ids []int
	for _, l := range repo.db.t.loads {
		if l.SectionID == sectionID {
			ids = append(ids, l.ID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (repo *progressionRepository) DeleteStudentLoads(_ context.Context, studentID int, _ ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if err := repo.db.fault("DeleteStudentLoads"); err != nil {
		return 0, err
	}
	var n int
	for sl := range repo.db.t.studentLoads {
		if sl.studentID == studentID {
			delete(repo.db.t.studentLoads, sl)
			n++
		}
	}
	return n, nil
}

func (repo *progressionRepository) CreateStudentLoads(_ context.Context, studentID int, loadIDs []int, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if err := repo.db.fault("CreateStudentLoads"); err != nil {
		return err
	}
	for _, id := range loadIDs {
		if _, ok := repo.db.t.loads[id]; ok {
			repo.db.t.studentLoads[studentLoad{studentID: studentID, loadID: id}] = struct{}{}
		}
	}
	return nil
}

func (repo *progressionRepository) CountStudentLoads(_ context.Context, studentID int, _ ...core.DBExecutor) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.db.t.studentLoadIDs(studentID)), nil
}

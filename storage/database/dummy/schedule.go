package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/progression"
	"github.com/trezcool/academia/core/schedule"
)

type scheduleRepository struct {
	db *DB
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *DB) schedule.Repository {
	return &scheduleRepository{db: db}
}

// filter returns the loads matching keep, ordered by ID.
func (repo *scheduleRepository) filter(keep func(l schedule.FacultyLoad) bool) []schedule.FacultyLoad {
	var res []schedule.FacultyLoad
	for _, l := range repo.db.t.loads {
		if keep(l) {
			res = append(res, l)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

func (repo *scheduleRepository) GetSection(_ context.Context, id int, _ ...core.DBExecutor) (schedule.Section, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.t.sections[id]; ok {
		return s, nil
	}
	return schedule.Section{}, schedule.ErrSectionNotFound
}

func (repo *scheduleRepository) GetOverlappingLoadsForTeacher(
	_ context.Context,
	termID, teacherID int,
	slot schedule.Slot,
	excludeID int,
	_ ...core.DBExecutor,
) ([]schedule.FacultyLoad, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if err := repo.db.fault("GetOverlappingLoadsForTeacher"); err != nil {
		return nil, err
	}
	return repo.filter(func(l schedule.FacultyLoad) bool {
		return l.TermID == termID && l.TeacherID == teacherID && l.ID != excludeID && l.Schedule.Overlaps(slot)
	}), nil
}

func (repo *scheduleRepository) GetOverlappingLoadsForSection(
	_ context.Context,
	termID, sectionID int,
	slot schedule.Slot,
	excludeID int,
	_ ...core.DBExecutor,
) ([]schedule.FacultyLoad, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	return repo.filter(func(l schedule.FacultyLoad) bool {
		return l.TermID == termID && l.SectionID == sectionID && l.ID != excludeID && l.Schedule.Overlaps(slot)
	}), nil
}

func (repo *scheduleRepository) QuerySubjectLoads(_ context.Context, termID, sectionID, curriculumID int, excludeID int, _ ...core.DBExecutor) ([]schedule.FacultyLoad, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	return repo.filter(func(l schedule.FacultyLoad) bool {
		return l.TermID == termID && l.SectionID == sectionID && l.CurriculumID == curriculumID && l.ID != excludeID
	}), nil
}

func (repo *scheduleRepository) GetLoad(_ context.Context, id int, _ ...core.DBExecutor) (schedule.FacultyLoad, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if l, ok := repo.db.t.loads[id]; ok {
		return l, nil
	}
	return schedule.FacultyLoad{}, schedule.ErrNotFound
}

func (repo *scheduleRepository) QueryLoads(_ context.Context, filter *schedule.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]schedule.FacultyLoad, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	res := repo.filter(func(l schedule.FacultyLoad) bool {
		if filter == nil {
			return true
		}
		return (filter.TermID == 0 || l.TermID == filter.TermID) &&
			(filter.TeacherID == 0 || l.TeacherID == filter.TeacherID) &&
			(filter.SectionID == 0 || l.SectionID == filter.SectionID) &&
			(filter.Day == "" || string(l.Schedule.Day) == filter.Day)
	})
	if len(ordering) > 0 && ordering[0].Field == "start_time" {
		asc := ordering[0].Ascending
		sort.SliceStable(res, func(i, j int) bool {
			if asc {
				return res[i].Schedule.Start < res[j].Schedule.Start
			}
			return res[i].Schedule.Start > res[j].Schedule.Start
		})
	}
	return res, nil
}

// unique backs the (school year, section, curriculum) unique index.
func (repo *scheduleRepository) unique(load schedule.FacultyLoad) error {
	for _, l := range repo.db.t.loads {
		if l.ID != load.ID && l.TermID == load.TermID && l.SectionID == load.SectionID && l.CurriculumID == load.CurriculumID {
			return &core.TxConflictError{Unique: true, Constraint: "faculty_loads_section_subject_key"}
		}
	}
	return nil
}

func (repo *scheduleRepository) CreateLoad(_ context.Context, load schedule.FacultyLoad, _ ...core.DBExecutor) (schedule.FacultyLoad, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if err := repo.db.fault("CreateLoad"); err != nil {
		return schedule.FacultyLoad{}, err
	}
	if err := repo.unique(load); err != nil {
		return schedule.FacultyLoad{}, err
	}
	load.ScheduleID = repo.db.t.nextPK()
	load.ID = repo.db.t.nextPK()
	repo.db.t.loads[load.ID] = load
	return load, nil
}

func (repo *scheduleRepository) UpdateLoad(_ context.Context, load schedule.FacultyLoad, _ ...core.DBExecutor) (schedule.FacultyLoad, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if err := repo.db.fault("UpdateLoad"); err != nil {
		return schedule.FacultyLoad{}, err
	}
	if _, ok := repo.db.t.loads[load.ID]; !ok {
		return schedule.FacultyLoad{}, schedule.ErrNotFound
	}
	if err := repo.unique(load); err != nil {
		return schedule.FacultyLoad{}, err
	}
	repo.db.t.loads[load.ID] = load
	return load, nil
}

func (repo *scheduleRepository) DeleteStudentLoadsByLoad(_ context.Context, loadID int, _ ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int
	for sl := range repo.db.t.studentLoads {
		if sl.loadID == loadID {
			delete(repo.db.t.studentLoads, sl)
			n++
		}
	}
	return n, nil
}

func (repo *scheduleRepository) EnrollSectionStudents(_ context.Context, loadID, sectionID int, _ ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if err := repo.db.fault("EnrollSectionStudents"); err != nil {
		return 0, err
	}
	var n int
	for _, s := range repo.db.t.students {
		if s.SectionID != sectionID || s.Status != progression.StatusEnrolled {
			continue
		}
		sl := studentLoad{studentID: s.ID, loadID: loadID}
		if _, ok := repo.db.t.studentLoads[sl]; !ok {
			repo.db.t.studentLoads[sl] = struct{}{}
			n++
		}
	}
	return n, nil
}

func (repo *scheduleRepository) DeleteLoad(_ context.Context, id int, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if err := repo.db.fault("DeleteLoad"); err != nil {
		return err
	}
	if _, ok := repo.db.t.loads[id]; !ok {
		return schedule.ErrNotFound
	}
	delete(repo.db.t.loads, id)
	return nil
}

// DeleteSchedule is a no-op: schedules are stored on their FacultyLoad.
func (repo *scheduleRepository) DeleteSchedule(_ context.Context, _ int, _ ...core.DBExecutor) error {
	return nil
}

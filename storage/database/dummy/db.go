package dummydb

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/progression"
	"github.com/trezcool/academia/core/schedule"
	"github.com/trezcool/academia/core/term"
)

type (
	// DB is an in-memory stand-in for the postgres database.
	DB struct {
		sync.RWMutex
		txMu    sync.Mutex
		t       *tables
		faultMu sync.Mutex
		faults  map[string][]error
	}

	studentLoad struct {
		studentID int
		loadID    int
	}

	tables struct {
		pk           int
		terms        map[int]term.Term
		sections     map[int]schedule.Section
		curricula    map[int]progression.Curriculum
		loads        map[int]schedule.FacultyLoad
		students     map[int]progression.Student
		grades       map[int]progression.Grade
		studentLoads map[studentLoad]struct{}
	}
)

var _ core.Transactor = (*DB)(nil) // interface compliance check

func Open() (*DB, error) {
	db := &DB{
		t: &tables{
			terms:        make(map[int]term.Term),
			sections:     make(map[int]schedule.Section),
			curricula:    make(map[int]progression.Curriculum),
			loads:        make(map[int]schedule.FacultyLoad),
			students:     make(map[int]progression.Student),
			grades:       make(map[int]progression.Grade),
			studentLoads: make(map[studentLoad]struct{}),
		},
		faults: make(map[string][]error),
	}
	return db, nil
}

func (t *tables) nextPK() int {
	t.pk++
	return t.pk
}

func (t *tables) clone() *tables {
	c := &tables{
		pk:           t.pk,
		terms:        make(map[int]term.Term, len(t.terms)),
		sections:     make(map[int]schedule.Section, len(t.sections)),
		curricula:    make(map[int]progression.Curriculum, len(t.curricula)),
		loads:        make(map[int]schedule.FacultyLoad, len(t.loads)),
		students:     make(map[int]progression.Student, len(t.students)),
		grades:       make(map[int]progression.Grade, len(t.grades)),
		studentLoads: make(map[studentLoad]struct{}, len(t.studentLoads)),
	}
	for k, v := range t.terms {
		c.terms[k] = v
	}
	for k, v := range t.sections {
		c.sections[k] = v
	}
	for k, v := range t.curricula {
		c.curricula[k] = v
	}
	for k, v := range t.loads {
		c.loads[k] = v
	}
	for k, v := range t.students {
		c.students[k] = v
	}
	for k, v := range t.grades {
		c.grades[k] = v
	}
	for k := range t.studentLoads {
		c.studentLoads[k] = struct{}{}
	}
	return c
}

// RunInTx runs transactions one at a time. Every table is restored if fn fails.
// fn is given a nil executor, the repositories ignore it.
func (db *DB) RunInTx(ctx context.Context, _ *sql.TxOptions, fn core.TxFunc) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	db.RLock()
	snapshot := db.t.clone()
	db.RUnlock()

	if err := fn(nil); err != nil {
		db.Lock()
		db.t = snapshot
		db.Unlock()
		return err
	}
	return nil
}

// InjectError makes the next call to the repository method named op fail with err.
// Errors injected for the same op are returned in order, one per call.
func (db *DB) InjectError(op string, err error) {
	db.faultMu.Lock()
	defer db.faultMu.Unlock()
	db.faults[op] = append(db.faults[op], err)
}

// fault pops the next error injected for op.
func (db *DB) fault(op string) error {
	db.faultMu.Lock()
	defer db.faultMu.Unlock()

	errs := db.faults[op]
	if len(errs) == 0 {
		return nil
	}
	db.faults[op] = errs[1:]
	return errs[0]
}

// AddTerm, AddSection, AddCurriculum, AddStudent and AddGrade seed the tables, assigning IDs.

func (db *DB) AddTerm(t term.Term) term.Term {
	db.Lock()
	defer db.Unlock()
	t.ID = db.t.nextPK()
	db.t.terms[t.ID] = t
	return t
}

func (db *DB) AddSection(s schedule.Section) schedule.Section {
	db.Lock()
	defer db.Unlock()
	s.ID = db.t.nextPK()
	db.t.sections[s.ID] = s
	return s
}

func (db *DB) AddCurriculum(c progression.Curriculum) progression.Curriculum {
	db.Lock()
	defer db.Unlock()
	c.ID = db.t.nextPK()
	db.t.curricula[c.ID] = c
	return c
}

func (db *DB) AddStudent(s progression.Student) progression.Student {
	db.Lock()
	defer db.Unlock()
	s.ID = db.t.nextPK()
	db.t.students[s.ID] = s
	return s
}

func (db *DB) AddGrade(g progression.Grade) progression.Grade {
	db.Lock()
	defer db.Unlock()
	g.ID = db.t.nextPK()
	db.t.grades[g.ID] = g
	return g
}

// StudentLoadIDs returns the IDs of the FacultyLoads the student is enrolled in, sorted.
func (db *DB) StudentLoadIDs(studentID int) []int {
	db.RLock()
	defer db.RUnlock()
	return db.t.studentLoadIDs(studentID)
}

func (t *tables) studentLoadIDs(studentID int) []int {
	var ids []int
	for sl := range t.studentLoads {
		if sl.studentID == studentID {
			ids = append(ids, sl.loadID)
		}
	}
	sort.Ints(ids)
	return ids
}

package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/academia/core/progression"
)

type recordRepository struct {
	db *DB
}

var _ progression.RecordRepository = (*recordRepository)(nil) // interface compliance check

func NewRecordRepository(db *DB) progression.RecordRepository {
	return &recordRepository{db: db}
}

func (repo *recordRepository) QueryStudentRecord(_ context.Context, studentID, yearLevel, semester int) ([]progression.RecordEntry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	// latest grade per curriculum
	latest := make(map[int]progression.Grade)
	for _, g := range repo.db.t.grades {
		if g.StudentID != studentID {
			continue
		}
		if prev, ok := latest[g.CurriculumID]; !ok || g.TermID > prev.TermID || (g.TermID == prev.TermID && g.ID > prev.ID) {
			latest[g.CurriculumID] = g
		}
	}

	var entries []progression.RecordEntry
	for _, c := range repo.db.t.curricula {
		g, graded := latest[c.ID]
		if !graded && !(c.YearLevel == yearLevel && c.Semester == semester) {
			continue
		}
		entries = append(entries, progression.RecordEntry{
			CurriculumID: c.ID,
			YearLevel:    c.YearLevel,
			Semester:     c.Semester,
			CourseCode:   c.CourseCode,
			SubjectName:  c.SubjectName,
			LectureUnits: c.LectureUnits,
			LabUnits:     c.LabUnits,
			GradeStatus:  string(g.Status),
			Remarks:      string(g.Remarks),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.YearLevel != b.YearLevel {
			return a.YearLevel < b.YearLevel
		}
		if a.Semester != b.Semester {
			return a.Semester < b.Semester
		}
		return a.CourseCode < b.CourseCode
	})
	return entries, nil
}

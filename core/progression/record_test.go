package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermLabel(t *testing.T) {
	assert.Equal(t, "Year 1 - 1st Semester", TermLabel(1, 1))
	assert.Equal(t, "Year 4 - 2nd Semester", TermLabel(4, 2))
}

func TestNextAction(t *testing.T) {
	done := Progress{Required: 3, Passed: 3}

	tests := []struct {
		name     string
		stud     Student
		progress Progress
		want     string
	}{
		{name: "1st semester", stud: Student{YearLevel: 1, Semester: 1, Status: StatusEnrolled}, progress: done, want: "semester"},
		{name: "2nd semester", stud: Student{YearLevel: 2, Semester: 2, Status: StatusEnrolled}, progress: done, want: "year"},
		{name: "final term", stud: Student{YearLevel: 4, Semester: 2, Status: StatusEnrolled}, progress: done, want: "graduate"},
		{name: "pending grade", stud: Student{YearLevel: 1, Semester: 1, Status: StatusEnrolled}, progress: Progress{Required: 3, Passed: 2, Blocking: 1}},
		{name: "failed subject", stud: Student{YearLevel: 1, Semester: 1, Status: StatusEnrolled}, progress: Progress{Required: 3, Passed: 2}},
		{name: "no curriculum", stud: Student{YearLevel: 1, Semester: 1, Status: StatusEnrolled}, progress: Progress{}},
		{name: "graduated", stud: Student{YearLevel: 4, Semester: 2, Status: StatusGraduated}, progress: done},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextAction(tt.stud, tt.progress))
		})
	}
}

func TestGroupRecord(t *testing.T) {
	stud := Student{YearLevel: 1, Semester: 2}
	entries := []RecordEntry{
		{CurriculumID: 1, YearLevel: 1, Semester: 1, CourseCode: "CS111", LectureUnits: 2, LabUnits: 1, GradeStatus: "APPROVED", Remarks: "PASSED"},
		{CurriculumID: 3, YearLevel: 1, Semester: 2, CourseCode: "CS121", LectureUnits: 3},
		{CurriculumID: 2, YearLevel: 1, Semester: 1, CourseCode: "CS112", LectureUnits: 3, GradeStatus: "APPROVED", Remarks: "FAILED"},
	}

	terms := groupRecord(stud, entries)
	require.Len(t, terms, 2)

	assert.Equal(t, "Year 1 - 1st Semester", terms[0].Label)
	assert.False(t, terms[0].IsCurrent)
	assert.Equal(t, 6, terms[0].TotalUnits)
	assert.Len(t, terms[0].Subjects, 2)

	assert.Equal(t, "Year 1 - 2nd Semester", terms[1].Label)
	assert.True(t, terms[1].IsCurrent)
	assert.False(t, terms[1].IsFinalSemester)
	require.Len(t, terms[1].Subjects, 1)
	assert.Equal(t, NotEncoded, terms[1].Subjects[0].GradeStatus)

	final := groupRecord(Student{YearLevel: 4, Semester: 2}, []RecordEntry{{YearLevel: 4, Semester: 2}})
	assert.True(t, final[0].IsFinalSemester)
	assert.Empty(t, groupRecord(stud, nil))
}

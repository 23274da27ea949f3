package schedule

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
)

// Weekday is a day classes can be held on.
type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
)

var (
	Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}

	// custom validation tags & texts
	weekdayTag    = "weekday"
	weekdayText   = "must be a weekday from Monday to Friday"
	clockTimeTag  = "clocktime"
	clockTimeText = "must be a time formatted as HH:MM"

	errInvalidWeekday   = errors.New("invalid weekday")
	errInvalidClockTime = errors.New("invalid time, expected HH:MM")
)

// ParseWeekday accepts full or 3-letter day names, case-insensitively ("mon", "Monday").
func ParseWeekday(s string) (Weekday, error) {
	s = core.CleanString(s, true /* lower */)
	for _, d := range Weekdays {
		full := strings.ToLower(string(d))
		if s == full || (len(s) == 3 && strings.HasPrefix(full, s)) {
			return d, nil
		}
	}
	return "", errInvalidWeekday
}

func (d Weekday) Valid() bool {
	_, err := ParseWeekday(string(d))
	return err == nil
}

// ClockTime is a time of day with minute precision, stored as minutes since midnight.
type ClockTime int

// ParseClockTime parses "HH:MM" (24h); a trailing ":SS" is accepted and must be zero.
func ParseClockTime(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, errInvalidClockTime
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 || len(parts[0]) != 2 {
		return 0, errInvalidClockTime
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || len(parts[1]) != 2 {
		return 0, errInvalidClockTime
	}
	if len(parts) == 3 && parts[2] != "00" {
		return 0, errInvalidClockTime
	}
	return ClockTime(h*60 + m), nil
}

// MustClockTime is ParseClockTime for literals. It panics on invalid input.
func MustClockTime(s string) ClockTime {
	c, err := ParseClockTime(s)
	if err != nil {
		panic(fmt.Sprintf("schedule.MustClockTime(%q): %v", s, err))
	}
	return c
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Scan implements sql.Scanner for postgres `time` columns.
func (c *ClockTime) Scan(value interface{}) error {
	switch v := value.(type) {
	case time.Time:
		*c = ClockTime(v.Hour()*60 + v.Minute())
		return nil
	case []byte:
		return c.scanString(string(v))
	case string:
		return c.scanString(v)
	default:
		return errors.Errorf("cannot scan %T into ClockTime", value)
	}
}

func (c *ClockTime) scanString(s string) error {
	if len(s) > 5 {
		s = s[:5] // drop seconds
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Value implements driver.Valuer.
func (c ClockTime) Value() (driver.Value, error) {
	return c.String() + ":00", nil
}

// Slot is a weekly time range [Start, End) on Day.
type Slot struct {
	Day   Weekday   `json:"day"`
	Start ClockTime `json:"start_time"`
	End   ClockTime `json:"end_time"`
}

// Overlaps reports whether both slots are on the same day and their half-open ranges intersect.
// Back-to-back slots (one ends when the other starts) do not overlap.
func (s Slot) Overlaps(other Slot) bool {
	return s.Day == other.Day && s.Start < other.End && other.Start < s.End
}

func (s Slot) String() string {
	return fmt.Sprintf("%s %s-%s", s.Day, s.Start, s.End)
}

// Section is a class group of students scoped to one term.
type Section struct {
	ID          int    `json:"id"`
	Code        string `json:"code"`
	YearLevel   int    `json:"year_level"`
	Semester    int    `json:"semester"`
	TermID      int    `json:"school_year_id"`
	MinStudents int    `json:"min_students"`
	MaxStudents int    `json:"max_students"`
}

// FacultyLoad is one teacher teaching one subject to one section in one weekly slot, in one term.
type FacultyLoad struct {
	ID           int       `json:"id"`
	TeacherID    int       `json:"teacher_id"`
	CurriculumID int       `json:"curriculum_id"`
	SectionID    int       `json:"section_id"`
	YearLevel    int       `json:"year_level"`
	Semester     int       `json:"semester"`
	TermID       int       `json:"school_year_id"`
	ScheduleID   int       `json:"schedule_id"`
	Schedule     Slot      `json:"schedule"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// NewFacultyLoad contains information needed to create or replace a FacultyLoad.
type NewFacultyLoad struct {
	TeacherID    int    `json:"teacher_id" validate:"required,gt=0"`
	CurriculumID int    `json:"curriculum_id" validate:"required,gt=0"`
	SectionID    int    `json:"section_id" validate:"required,gt=0"`
	Day          string `json:"day" validate:"required,weekday"`
	StartTime    string `json:"start_time" validate:"required,clocktime"`
	EndTime      string `json:"end_time" validate:"required,clocktime"`

	slot Slot
}

func (nl *NewFacultyLoad) Validate(validate *validator.Validate) error {
	if err := validate.Struct(nl); err != nil {
		return err
	}
	day, _ := ParseWeekday(nl.Day)
	start, _ := ParseClockTime(nl.StartTime)
	end, _ := ParseClockTime(nl.EndTime)
	if end <= start {
		return core.NewValidationError(nil, core.FieldError{Field: "end_time", Error: errEndBeforeStart.Error()})
	}
	nl.slot = Slot{Day: day, Start: start, End: end}
	return nil
}

// Assignment returns the parsed request. Only meaningful after Validate succeeded.
func (nl NewFacultyLoad) Assignment() Assignment {
	return Assignment{
		TeacherID:    nl.TeacherID,
		CurriculumID: nl.CurriculumID,
		SectionID:    nl.SectionID,
		Slot:         nl.slot,
	}
}

// Assignment is a validated request to book a teacher for a subject, section and slot.
type Assignment struct {
	TeacherID    int
	CurriculumID int
	SectionID    int
	Slot         Slot
}

// InitValidators registers the schedule validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	core.RegisterRules(validate, translator,
		core.Rule{Tag: weekdayTag, Text: weekdayText, Func: func(fl validator.FieldLevel) bool {
			_, err := ParseWeekday(fl.Field().String())
			return err == nil
		}},
		core.Rule{Tag: clockTimeTag, Text: clockTimeText, Func: func(fl validator.FieldLevel) bool {
			_, err := ParseClockTime(fl.Field().String())
			return err == nil
		}},
	)
}

type QueryFilter struct {
	TermID    int    `query:"school_year_id"`
	TeacherID int    `query:"teacher_id"`
	SectionID int    `query:"section_id"`
	Day       string `query:"day"`
}

func (qf *QueryFilter) Clean() {
	if day, err := ParseWeekday(qf.Day); err == nil {
		qf.Day = string(day)
	} else {
		qf.Day = ""
	}
}

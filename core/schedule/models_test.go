package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core"
)

func slot(day Weekday, start, end string) Slot {
	return Slot{Day: day, Start: MustClockTime(start), End: MustClockTime(end)}
}

func TestSlot_Overlaps(t *testing.T) {
	base := slot(Monday, "09:00", "10:00")

	tests := []struct {
		name  string
		other Slot
		want  bool
	}{
		{name: "same slot", other: base, want: true},
		{name: "starts inside", other: slot(Monday, "09:30", "10:30"), want: true},
		{name: "ends inside", other: slot(Monday, "08:30", "09:30"), want: true},
		{name: "contains", other: slot(Monday, "08:00", "11:00"), want: true},
		{name: "contained", other: slot(Monday, "09:15", "09:45"), want: true},
		{name: "adjacent after", other: slot(Monday, "10:00", "11:00"), want: false},
		{name: "adjacent before", other: slot(Monday, "08:00", "09:00"), want: false},
		{name: "disjoint", other: slot(Monday, "13:00", "14:00"), want: false},
		{name: "other day", other: slot(Tuesday, "09:00", "10:00"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(base), "Overlaps must be symmetric")
		})
	}
}

// every pair of slots on a 30 minutes grid: Overlaps iff s1 < e2 && s2 < e1
func TestSlot_Overlaps_grid(t *testing.T) {
	var slots []Slot
	for start := 7 * 60; start < 12*60; start += 30 {
		for end := start + 30; end <= 12*60; end += 30 {
			slots = append(slots, Slot{Day: Wednesday, Start: ClockTime(start), End: ClockTime(end)})
		}
	}
	for _, a := range slots {
		for _, b := range slots {
			want := a.Start < b.End && b.Start < a.End
			if got := a.Overlaps(b); got != want {
				t.Errorf("%s.Overlaps(%s) = %v; want %v", a, b, got, want)
			}
		}
	}
}

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		in      string
		want    Weekday
		wantErr bool
	}{
		{in: "Monday", want: Monday},
		{in: "friday", want: Friday},
		{in: " WED ", want: Wednesday},
		{in: "thu", want: Thursday},
		{in: "Saturday", wantErr: true},
		{in: "mo", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWeekday(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		in      string
		want    ClockTime
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "09:30", want: 9*60 + 30},
		{in: "23:59", want: 23*60 + 59},
		{in: "13:05:00", want: 13*60 + 5},
		{in: "13:05:30", wantErr: true},
		{in: "24:00", wantErr: true},
		{in: "9:30", wantErr: true},
		{in: "09:60", wantErr: true},
		{in: "0930", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClockTime(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in[:5], got.String())
		})
	}
}

func TestClockTime_Scan(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    ClockTime
		wantErr bool
	}{
		{name: "time.Time", value: time.Date(0, 1, 1, 14, 45, 0, 0, time.UTC), want: 14*60 + 45},
		{name: "bytes", value: []byte("08:15:00"), want: 8*60 + 15},
		{name: "string", value: "17:00:00", want: 17 * 60},
		{name: "int", value: int64(3), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c ClockTime
			err := c.Scan(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c)
		})
	}

	v, err := MustClockTime("07:05").Value()
	require.NoError(t, err)
	assert.Equal(t, "07:05:00", v)
}

func TestClockTime_JSON(t *testing.T) {
	data, err := json.Marshal(slot(Friday, "10:00", "11:30"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"day": "Friday", "start_time": "10:00", "end_time": "11:30"}`, string(data))

	var c ClockTime
	assert.Error(t, json.Unmarshal([]byte(`"25:00"`), &c))
}

func newValidator() *validator.Validate {
	validate := validator.New()
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate
}

func TestNewFacultyLoad_Validate(t *testing.T) {
	validate := newValidator()
	valid := NewFacultyLoad{TeacherID: 1, CurriculumID: 2, SectionID: 3, Day: "mon", StartTime: "09:00", EndTime: "10:00"}

	tests := []struct {
		name      string
		modify    func(nl *NewFacultyLoad)
		wantField string
	}{
		{name: "valid", modify: func(nl *NewFacultyLoad) {}},
		{name: "missing teacher", modify: func(nl *NewFacultyLoad) { nl.TeacherID = 0 }, wantField: "teacher_id"},
		{name: "bad day", modify: func(nl *NewFacultyLoad) { nl.Day = "sunday" }, wantField: "day"},
		{name: "bad time", modify: func(nl *NewFacultyLoad) { nl.StartTime = "9h" }, wantField: "start_time"},
		{name: "end before start", modify: func(nl *NewFacultyLoad) { nl.EndTime = "08:00" }, wantField: "end_time"},
		{name: "end equals start", modify: func(nl *NewFacultyLoad) { nl.EndTime = "09:00" }, wantField: "end_time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nl := valid
			tt.modify(&nl)
			err := nl.Validate(validate)
			if tt.wantField == "" {
				require.NoError(t, err)
				assert.Equal(t, Assignment{TeacherID: 1, CurriculumID: 2, SectionID: 3, Slot: slot(Monday, "09:00", "10:00")}, nl.Assignment())
				return
			}
			require.Error(t, err)
			switch e := err.(type) {
			case validator.ValidationErrors:
				assert.Equal(t, tt.wantField, e[0].Field())
			case *core.ValidationError:
				assert.Equal(t, tt.wantField, e.Fields[0].Field)
			default:
				t.Fatalf("unexpected error type %T", err)
			}
		})
	}
}

func TestQueryFilter_Clean(t *testing.T) {
	qf := QueryFilter{Day: "tue"}
	qf.Clean()
	assert.Equal(t, "Tuesday", qf.Day)

	qf = QueryFilter{Day: "someday"}
	qf.Clean()
	assert.Equal(t, "", qf.Day)
}

package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/academia/core/progression"
	"github.com/trezcool/academia/core/schedule"
	"github.com/trezcool/academia/core/term"
	"github.com/trezcool/academia/storage/database/dummy"
	"github.com/trezcool/academia/tests"
)

type cliSetup struct {
	*testutil.Fixture
	cli *commandLine
	out *bytes.Buffer
}

func setup(t *testing.T, stdin string) cliSetup {
	fx := testutil.NewFixture(t)
	termSvc := term.NewService(fx.DB, dummydb.NewTermRepository(fx.DB), nil)
	out := new(bytes.Buffer)
	return cliSetup{
		Fixture: fx,
		out:     out,
		cli: &commandLine{
			terms: termSvc,
			engine: progression.NewEngine(
				fx.DB,
				dummydb.NewProgressionRepository(fx.DB),
				dummydb.NewRecordRepository(fx.DB),
				termSvc,
				testutil.NewLogger(),
			),
			in:  strings.NewReader(stdin),
			out: out,
		},
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    string
}

func (tt cliTest) check(t *testing.T, cli *commandLine, out *bytes.Buffer) {
	out.Reset()
	err := cli.run(append([]string{"admin"}, tt.args...))
	switch {
	case tt.wantErr != nil:
		if err != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err == nil || err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
		}
	case err != nil:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
	if tt.wantOut != "" {
		assert.Contains(t, out.String(), tt.wantOut)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	s := setup(t, "")

	gooseRunFunc = func(command string, db *sql.DB, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no command", wantErr: errHelp, wantOut: "Usage:"},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "rooms", "sql"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, s.cli, s.out)
		})
	}
}

func Test_commandLine_activateTerm(t *testing.T) {
	s := setup(t, "")
	next := s.DB.AddTerm(term.Term{Name: "2025-2026", Status: term.StatusInactive})

	tests := []cliTest{
		{name: "no args", args: []string{"activate-term"}, wantErr: errHelp},
		{name: "unknown term", args: []string{"activate-term", "-id", "999"}, wantErr: term.ErrNotFound},
		{
			name: "activate", args: []string{"activate-term", "-id", strconv.Itoa(next.ID)},
			wantOut: fmt.Sprintf("School year 2025-2026 (%d) is now active", next.ID),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, s.cli, s.out)
		})
	}

	active, err := s.cli.terms.ActiveTerm(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, next.ID, active.ID)
}

func Test_commandLine_promote(t *testing.T) {
	origIsTerminal := isTerminalFunc
	defer func() { isTerminalFunc = origIsTerminal }()

	s := setup(t, "y\n")
	curr := s.Section("101A", 1, 1)
	next := s.Section("102A", 1, 2)
	subjects := s.Curricula(1, 2, 1)
	s.Load(7, subjects[0], next, schedule.Slot{Day: schedule.Tuesday, Start: schedule.MustClockTime("10:00"), End: schedule.MustClockTime("11:00")})

	stud := s.Student("2024-0001", curr)
	s.Grades(stud, s.Curricula(1, 1, 2), progression.GradeApproved, progression.RemarksPassed)
	ungraded := s.Student("2024-0002", curr)
	id := strconv.Itoa(stud.ID)

	isTerminalFunc = func(int) bool { return false }
	tests := []cliTest{
		{name: "no args", args: []string{"promote"}, wantErr: errHelp},
		{name: "unknown type", args: []string{"promote", "-student", id, "-type", "lol"}, wantErr: errHelp},
		{name: "no terminal to confirm", args: []string{"promote", "-student", id, "-type", "semester"}, wantErr: errNoConfirm},
		{name: "unknown student", args: []string{"promote", "-student", "999", "-type", "semester", "-yes"}, wantErr: progression.ErrStudentNotFound},
		{
			name:       "incomplete requirements",
			args:       []string{"promote", "-student", strconv.Itoa(ungraded.ID), "-type", "semester", "-yes"},
			wantErrStr: "Student did not pass all required subjects",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, s.cli, s.out)
		})
	}

	t.Run("confirmed on the terminal", func(t *testing.T) {
		isTerminalFunc = func(int) bool { return true }
		cliTest{
			args:    []string{"promote", "-student", id, "-type", "SEMESTER"},
			wantOut: "Student promoted successfully! Now in Year 1 - 2nd Semester, section 102A, enrolled in 1 classes",
		}.check(t, s.cli, s.out)
		assert.Contains(t, s.out.String(), "Apply a semester promotion to student "+id+"? [y/N]: ")
		assert.Len(t, s.DB.StudentLoadIDs(stud.ID), 1)
	})

	t.Run("aborted on the terminal", func(t *testing.T) {
		isTerminalFunc = func(int) bool { return true }
		s.cli.in = strings.NewReader("n\n")
		cliTest{args: []string{"promote", "-student", id, "-type", "year"}, wantErr: errAborted}.check(t, s.cli, s.out)
	})
}

func Test_commandLine_syncLoads(t *testing.T) {
	s := setup(t, "")
	sec := s.Section("101A", 1, 1)
	subjects := s.Curricula(1, 1, 2)
	s.Load(7, subjects[0], sec, schedule.Slot{Day: schedule.Monday, Start: schedule.MustClockTime("08:00"), End: schedule.MustClockTime("09:00")})
	s.Load(8, subjects[1], sec, schedule.Slot{Day: schedule.Monday, Start: schedule.MustClockTime("09:00"), End: schedule.MustClockTime("10:00")})
	stud := s.Student("2024-0001", sec)

	tests := []cliTest{
		{name: "no args", args: []string{"sync-loads"}, wantErr: errHelp},
		{name: "unknown student", args: []string{"sync-loads", "-student", "999"}, wantErr: progression.ErrStudentNotFound},
		{
			name: "sync", args: []string{"sync-loads", "-student", strconv.Itoa(stud.ID)},
			wantOut: fmt.Sprintf("Student %d is enrolled in 2 classes", stud.ID),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, s.cli, s.out)
		})
	}
}

package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	xterm "golang.org/x/term"

	"github.com/trezcool/academia/core/progression"
	"github.com/trezcool/academia/core/term"
)

var (
	isTerminalFunc = xterm.IsTerminal // mockable

	errHelp      = errors.New("help provided")
	errAborted   = errors.New("aborted")
	errNoConfirm = errors.New("not a terminal: pass -yes to confirm")
)

type commandLine struct {
	db     *sql.DB
	terms  term.ServiceInterface
	engine progression.ServiceInterface
	in     io.Reader
	out    io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                            - run a goose migration command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  activate-term -id ID                              - make a school year the active one")
	fmt.Fprintln(cli.out, "  promote -student ID -type semester|year [-yes]    - promote a student (or graduate them)")
	fmt.Fprintln(cli.out, "  sync-loads -student ID                            - rebuild a student's class list from their section")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	activateTermCmd := flag.NewFlagSet("activate-term", flag.ContinueOnError)
	activateTermID := activateTermCmd.Int("id", 0, "The school year ID.")

	promoteCmd := flag.NewFlagSet("promote", flag.ContinueOnError)
	promoteStudentID := promoteCmd.Int("student", 0, "The student ID.")
	promoteType := promoteCmd.String("type", "", "The promotion type: semester or year.")
	promoteYes := promoteCmd.Bool("yes", false, "Do not ask for confirmation.")

	syncLoadsCmd := flag.NewFlagSet("sync-loads", flag.ContinueOnError)
	syncLoadsStudentID := syncLoadsCmd.Int("student", 0, "The student ID.")

	for _, fs := range []*flag.FlagSet{activateTermCmd, promoteCmd, syncLoadsCmd} {
		fs.SetOutput(cli.out)
	}

	ctx := context.Background()

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "activate-term":
		if err := activateTermCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *activateTermID <= 0 {
			activateTermCmd.Usage()
			return errHelp
		}
		return cli.activateTerm(ctx, *activateTermID)
	case "promote":
		if err := promoteCmd.Parse(args[2:]); err != nil {
			return err
		}
		pt := progression.PromotionType(strings.ToLower(*promoteType))
		if *promoteStudentID <= 0 || (pt != progression.PromotionSemester && pt != progression.PromotionYear) {
			promoteCmd.Usage()
			return errHelp
		}
		if !*promoteYes {
			if err := cli.confirm(fmt.Sprintf("Apply a %s promotion to student %d?", pt, *promoteStudentID)); err != nil {
				return err
			}
		}
		return cli.promote(ctx, *promoteStudentID, pt)
	case "sync-loads":
		if err := syncLoadsCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *syncLoadsStudentID <= 0 {
			syncLoadsCmd.Usage()
			return errHelp
		}
		return cli.syncLoads(ctx, *syncLoadsStudentID)
	default:
		cli.printUsage()
		return errHelp
	}
}

// confirm asks a yes/no question on the terminal.
func (cli *commandLine) confirm(question string) error {
	if !isTerminalFunc(syscall.Stdin) {
		return errNoConfirm
	}
	fmt.Fprintf(cli.out, "%s [y/N]: ", question)
	answer, err := bufio.NewReader(cli.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	default:
		return errAborted
	}
}

func (cli *commandLine) activateTerm(ctx context.Context, id int) error {
	t, err := cli.terms.SetActive(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "School year %s (%d) is now active\n", t.Name, t.ID)
	return nil
}

func (cli *commandLine) promote(ctx context.Context, studentID int, pt progression.PromotionType) error {
	res, err := cli.engine.Promote(ctx, studentID, pt)
	if err != nil {
		return err
	}
	if res.Graduated {
		fmt.Fprintln(cli.out, res.Message)
		return nil
	}
	p := res.Placement
	fmt.Fprintf(cli.out, "%s Now in %s, section %s, enrolled in %d classes\n",
		res.Message, progression.TermLabel(p.YearLevel, p.Semester), p.SectionCode, res.LoadCount)
	return nil
}

func (cli *commandLine) syncLoads(ctx context.Context, studentID int) error {
	count, err := cli.engine.SyncLoads(ctx, studentID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Student %d is enrolled in %d classes\n", studentID, count)
	return nil
}

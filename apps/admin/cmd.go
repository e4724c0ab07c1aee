package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/uwsprogram/tracker/core/compliance"
	"github.com/uwsprogram/tracker/core/participant"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db             *sqlx.DB
	participantSvc *participant.Service
	complianceSvc  *compliance.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate up|down|status [...] - run database migrations")
	fmt.Println("  addparticipant -email EMAIL -name NAME [-admin] - create or show a participant")
	fmt.Println("  recompute -participant ID -year YYYY -month MM - replay the compliance rollup for one month")
	fmt.Println("  gentoken -participant ID - mint an API token for a participant")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addCmd := flag.NewFlagSet("addparticipant", flag.ExitOnError)
	addEmail := addCmd.String("email", "", "The participant's email.")
	addName := addCmd.String("name", "", "The participant's preferred name.")
	addAdmin := addCmd.Bool("admin", false, "Grant the admin role.")

	recomputeCmd := flag.NewFlagSet("recompute", flag.ExitOnError)
	recomputeID := recomputeCmd.String("participant", "", "The participant's id.")
	recomputeYear := recomputeCmd.Int("year", 0, "The target year.")
	recomputeMonth := recomputeCmd.Int("month", 0, "The target month (1-12).")

	gentokenCmd := flag.NewFlagSet("gentoken", flag.ExitOnError)
	gentokenID := gentokenCmd.String("participant", "", "The participant's id.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "addparticipant":
		if err := addCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addEmail == "" || *addName == "" {
			addCmd.Usage()
			return errHelp
		}
		return cli.addParticipant(*addEmail, *addName, *addAdmin)
	case "recompute":
		if err := recomputeCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *recomputeID == "" || *recomputeYear == 0 || *recomputeMonth < 1 || *recomputeMonth > 12 {
			recomputeCmd.Usage()
			return errHelp
		}
		return cli.recompute(*recomputeID, *recomputeYear, *recomputeMonth)
	case "gentoken":
		if err := gentokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *gentokenID == "" {
			gentokenCmd.Usage()
			return errHelp
		}
		return cli.genToken(*gentokenID)
	default:
		cli.printUsage()
		return errHelp
	}
}

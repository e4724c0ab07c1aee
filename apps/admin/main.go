package main

import (
	"log"
	"os"

	echoapi "github.com/uwsprogram/tracker/apps/api/echo"
	"github.com/uwsprogram/tracker/core"
	"github.com/uwsprogram/tracker/core/compliance"
	"github.com/uwsprogram/tracker/core/participant"
	emailsvc "github.com/uwsprogram/tracker/services/email"
	logsvc "github.com/uwsprogram/tracker/services/logger"
	"github.com/uwsprogram/tracker/storage/database"
	sqlxrepos "github.com/uwsprogram/tracker/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	errAndDie(err)

	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()

	rollbar := logsvc.NewRollbarLogger(logger, conf)
	rollbar.Enable(false) // CLI runs log locally only

	participantRepo := sqlxrepos.NewParticipantRepo(db)
	activityRepo := sqlxrepos.NewActivityRepo(db)
	monthLogRepo := sqlxrepos.NewMonthLogRepo(db)

	echoapi.ConfigureAuth(conf)

	cli := commandLine{
		db:             db,
		participantSvc: participant.NewService(participantRepo),
		complianceSvc: compliance.NewService(
			monthLogRepo, activityRepo, participantRepo,
			emailsvc.NewConsoleService(conf), rollbar, conf,
		),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}

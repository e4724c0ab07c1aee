package main

import (
	"context"
	"fmt"
	"log"
	"os"

	echoapi "github.com/uwsprogram/tracker/apps/api/echo"
	"github.com/uwsprogram/tracker/core"
	"github.com/uwsprogram/tracker/core/activity"
	"github.com/uwsprogram/tracker/core/compliance"
	"github.com/uwsprogram/tracker/core/participant"
	"github.com/uwsprogram/tracker/core/rsvp"
	"github.com/uwsprogram/tracker/core/shabbaton"
	emailsvc "github.com/uwsprogram/tracker/services/email"
	logsvc "github.com/uwsprogram/tracker/services/logger"
	"github.com/uwsprogram/tracker/storage/database"
	sqlxrepos "github.com/uwsprogram/tracker/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error(fmt.Sprintf("closing database: %v", err), err)
		}
	}()
	if err = database.Migrate(db); err != nil {
		logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
	}

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(logger, conf)
	}

	participantRepo := sqlxrepos.NewParticipantRepo(db)
	monthLogRepo := sqlxrepos.NewMonthLogRepo(db)
	activityRepo := sqlxrepos.NewActivityRepo(db)
	shabbatonRepo := sqlxrepos.NewShabbatonRepo(db)
	rsvpRepo := sqlxrepos.NewRsvpRepo(db)
	txRunner := sqlxrepos.NewTxRunner(db)

	participantSvc := participant.NewService(participantRepo)
	complianceSvc := compliance.NewService(monthLogRepo, activityRepo, participantRepo, mailSvc, logger, conf)
	activitySvc := activity.NewService(activityRepo, complianceSvc)
	shabbatonSvc := shabbaton.NewService(shabbatonRepo, activityRepo, txRunner, complianceSvc, participantRepo, mailSvc, logger)
	rsvpSvc := rsvp.NewService(rsvpRepo)

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		Logger:         logger,
		ParticipantSvc: participantSvc,
		ComplianceSvc:  complianceSvc,
		ActivitySvc:    activitySvc,
		ShabbatonSvc:   shabbatonSvc,
		RsvpSvc:        rsvpSvc,
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

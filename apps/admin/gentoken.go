package main

import (
	"context"

	echoapi "github.com/uwsprogram/tracker/apps/api/echo"
)

// genToken mints a signed API token for a participant. Identity lives with an
// external provider; this is the operational back door for integrations and
// support sessions.
func (cli *commandLine) genToken(participantID string) error {
	p, err := cli.participantSvc.GetByID(context.Background(), participantID)
	if err != nil {
		return err
	}
	token, err := echoapi.GenerateToken(echoapi.GetParticipantClaims(p))
	if err != nil {
		return err
	}
	logger.Printf("token for %s (%s):\n%s", p.PreferredName, p.Email, token)
	return nil
}

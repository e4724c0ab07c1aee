package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/uwsprogram/tracker/core"
	"github.com/uwsprogram/tracker/core/participant"
)

// addParticipant creates a participant account, or prints the existing one.
func (cli *commandLine) addParticipant(email, name string, isAdmin bool) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)

	if p, err := cli.participantSvc.GetByEmail(ctx, email); err == nil {
		logger.Printf("participant already exists: %s (%s)", p.ID, p.Email)
		return nil
	} else if errors.Cause(err) != participant.ErrNotFound {
		return err
	}

	role := participant.RoleParticipant
	if isAdmin {
		role = participant.RoleAdmin
	}
	p, err := cli.participantSvc.Create(ctx, participant.NewParticipant{
		Email:         email,
		Role:          role,
		PreferredName: name,
	})
	if err != nil {
		return err
	}
	logger.Printf("participant created: %s (%s)", p.ID, p.Email)
	return nil
}

package main

import "context"

// recompute replays the monthly rollup for one (participant, year, month).
func (cli *commandLine) recompute(participantID string, year, month int) error {
	ctx := context.Background()
	if err := cli.complianceSvc.Recompute(ctx, participantID, year, month); err != nil {
		return err
	}
	ml, err := cli.complianceSvc.Get(ctx, participantID, year, month)
	if err != nil {
		return err
	}
	logger.Printf(
		"recomputed %s %d-%02d: %d/%d meals, %d/%d minutes, complete=%t, payment=%s",
		ml.ParticipantID, ml.Year, ml.Month,
		ml.MealsEarned, ml.MealsRequired, ml.MinutesEarned, ml.MinutesRequired,
		ml.IsComplete, ml.PaymentStatus,
	)
	return nil
}

// Package report flattens month logs and participants into the CSV shapes
// the admin screens download.
package report

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/uwsprogram/tracker/core/compliance"
	"github.com/uwsprogram/tracker/core/participant"
)

const dateLayout = "2006-01-02"

var (
	monthlyComplianceHeader = []string{
		"Participant Name", "Email",
		"Meals Earned", "Meals Required",
		"Learning Minutes", "Learning Required",
		"Complete", "Completed Date",
		"Payment Status", "Payment Date",
	}
	paymentHeader = []string{
		"Participant Name", "Email",
		"Month", "Year",
		"Payment Status", "Payment Due Date",
		"Marked By", "Marked Date",
	}
)

type directory map[string]participant.Participant

func (d directory) name(id string) string {
	if p, ok := d[id]; ok {
		return p.PreferredName
	}
	return "Unknown"
}

func (d directory) email(id string) string {
	if p, ok := d[id]; ok {
		return p.Email
	}
	return "Unknown"
}

func index(participants []participant.Participant) directory {
	d := make(directory, len(participants))
	for _, p := range participants {
		d[p.ID] = p
	}
	return d
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// MonthlyCompliance renders the per-month compliance report for the logs of a
// single (year, month).
func MonthlyCompliance(participants []participant.Participant, logs []compliance.MonthLog, year, month int) ([]byte, error) {
	dir := index(participants)

	rows := [][]string{monthlyComplianceHeader}
	for _, ml := range logs {
		if ml.Year != year || ml.Month != month {
			continue
		}
		complete := "No"
		if ml.IsComplete {
			complete = "Yes"
		}
		rows = append(rows, []string{
			dir.name(ml.ParticipantID),
			dir.email(ml.ParticipantID),
			strconv.Itoa(ml.MealsEarned),
			strconv.Itoa(ml.MealsRequired),
			strconv.Itoa(ml.MinutesEarned),
			strconv.Itoa(ml.MinutesRequired),
			complete,
			formatDate(ml.CompletedAt),
			string(ml.PaymentStatus),
			formatDate(ml.ComputedPaymentDate),
		})
	}
	return write(rows)
}

// Payments renders the payment report over Due/Paid month logs.
func Payments(participants []participant.Participant, logs []compliance.MonthLog) ([]byte, error) {
	dir := index(participants)

	rows := [][]string{paymentHeader}
	for _, ml := range logs {
		if ml.PaymentStatus != compliance.PaymentDue && ml.PaymentStatus != compliance.PaymentPaid {
			continue
		}
		rows = append(rows, []string{
			dir.name(ml.ParticipantID),
			dir.email(ml.ParticipantID),
			time.Month(ml.Month).String(),
			strconv.Itoa(ml.Year),
			string(ml.PaymentStatus),
			formatDate(ml.ComputedPaymentDate),
			ml.PaymentMarkedBy,
			formatDate(ml.PaymentMarkedAt),
		})
	}
	return write(rows)
}

func write(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, errors.Wrap(err, "writing csv")
	}
	return buf.Bytes(), nil
}

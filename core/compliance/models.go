package compliance

import "time"

type PaymentStatus string

const (
	PaymentNotDue PaymentStatus = "Not due"
	PaymentDue    PaymentStatus = "Due"
	PaymentPaid   PaymentStatus = "Paid"
)

// Program-wide monthly requirements, used when no override is configured.
const (
	DefaultMealsRequired   = 4
	DefaultMinutesRequired = 720
)

// MonthLog is the per-participant-per-month compliance rollup. It is a
// materialized view over the activity tables: the earned/complete fields are
// only ever written by Service.Recompute, the payment fields only by
// Service.MarkPayment (and the NotDue->Due edge inside Recompute).
type MonthLog struct {
	ParticipantID       string        `json:"participant_id"`
	Year                int           `json:"year"`
	Month               int           `json:"month"` // 1-12
	MealsRequired       int           `json:"meals_required"`
	MinutesRequired     int           `json:"minutes_required"`
	MealsEarned         int           `json:"meals_earned"`
	MinutesEarned       int           `json:"minutes_earned"`
	IsComplete          bool          `json:"is_complete"`
	CompletedAt         time.Time     `json:"completed_at,omitempty"` // zero while incomplete
	ComputedPaymentDate time.Time     `json:"computed_payment_date"`
	PaymentStatus       PaymentStatus `json:"payment_status"`
	PaymentMarkedAt     time.Time     `json:"payment_marked_at,omitempty"`
	PaymentMarkedBy     string        `json:"payment_marked_by,omitempty"`
}

// PaymentDate returns the payment due date for a given program month:
// the first calendar day of month+2, with year rollover, at midnight UTC.
func PaymentDate(year, month int) time.Time {
	month += 2
	if month > 12 {
		year += (month - 1) / 12
		month = (month-1)%12 + 1
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

// PreviousMonth returns the (year, month) immediately preceding the given one.
func PreviousMonth(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}

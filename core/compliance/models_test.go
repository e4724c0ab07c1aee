package compliance

import (
	"testing"
	"time"
)

func TestPaymentDate(t *testing.T) {
	tests := []struct {
		name        string
		year, month int
		want        time.Time
	}{
		{name: "mid-year", year: 2024, month: 1, want: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)},
		{name: "september", year: 2024, month: 9, want: time.Date(2024, time.November, 1, 0, 0, 0, 0, time.UTC)},
		{name: "october rolls into december", year: 2024, month: 10, want: time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC)},
		{name: "november rolls over the year", year: 2024, month: 11, want: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)},
		{name: "december rolls over the year", year: 2024, month: 12, want: time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PaymentDate(tt.year, tt.month); !got.Equal(tt.want) {
				t.Errorf("PaymentDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPreviousMonth(t *testing.T) {
	tests := []struct {
		name                 string
		year, month          int
		wantYear, wantMonth  int
	}{
		{name: "mid-year", year: 2024, month: 6, wantYear: 2024, wantMonth: 5},
		{name: "january wraps to december", year: 2024, month: 1, wantYear: 2023, wantMonth: 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotYear, gotMonth := PreviousMonth(tt.year, tt.month)
			if gotYear != tt.wantYear || gotMonth != tt.wantMonth {
				t.Errorf("PreviousMonth() = (%d, %d), want (%d, %d)", gotYear, gotMonth, tt.wantYear, tt.wantMonth)
			}
		})
	}
}

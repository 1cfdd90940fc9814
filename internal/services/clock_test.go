package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateInTruncatesToMidnight(t *testing.T) {
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	// 18:30 UTC is already the next calendar day in Jakarta (UTC+7)
	ts := time.Date(2026, 3, 10, 18, 30, 0, 0, time.UTC)
	got := DateIn(ts, jakarta)

	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, jakarta), got)
}

func TestDaysBetween(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		a, b time.Time
		want int
	}{
		{"same day different hours", base, base.Add(11 * time.Hour), 0},
		{"next day", base, base.AddDate(0, 0, 1), 1},
		{"ten days", base, base.AddDate(0, 0, 10), 10},
		{"reversed is negative", base.AddDate(0, 0, 3), base, -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysBetween(tt.a, tt.b, time.UTC))
		})
	}
}

func TestDaysBetweenAcrossDaylightSavingTransitions(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 2026-03-08 is the spring-forward day, only 23 hours long. An
	// installment due on the 7th is two full days overdue on the 9th.
	due := time.Date(2026, 3, 7, 0, 0, 0, 0, newYork)
	assert.Equal(t, 1, DaysBetween(due, time.Date(2026, 3, 8, 0, 0, 0, 0, newYork), newYork))
	assert.Equal(t, 2, DaysBetween(due, time.Date(2026, 3, 9, 0, 0, 0, 0, newYork), newYork))

	// 2026-11-01 is the fall-back day, 25 hours long
	due = time.Date(2026, 10, 31, 0, 0, 0, 0, newYork)
	assert.Equal(t, 2, DaysBetween(due, time.Date(2026, 11, 2, 0, 0, 0, 0, newYork), newYork))
}

func TestDaysBetweenUsesLocationDayBoundary(t *testing.T) {
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	// One minute apart in UTC but straddling the Jakarta midnight
	a := time.Date(2026, 3, 10, 16, 59, 0, 0, time.UTC)
	b := time.Date(2026, 3, 10, 17, 1, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysBetween(a, b, time.UTC))
	assert.Equal(t, 1, DaysBetween(a, b, jakarta))
}

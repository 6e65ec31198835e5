package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Schedule = (*CronSchedule)(nil)

func TestNewCronSchedule_RejectsMalformedExpressions(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"too few fields", "0 3 * *"},
		{"too many fields", "0 3 * * * *"},
		{"minute out of range", "60 * * * *"},
		{"hour out of range", "0 24 * * *"},
		{"bad step", "*/0 * * * *"},
		{"inverted range", "30-10 * * * *"},
		{"garbage", "x * * * *"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCronSchedule(tt.expr)
			assert.Error(t, err)
		})
	}
}

func TestCronSchedule_NightlySweep(t *testing.T) {
	s, err := NewCronSchedule("0 3 * * *")
	require.NoError(t, err)

	// Before today's run: fires today at 03:00.
	from := time.Date(2026, 8, 30, 1, 12, 45, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 30, 3, 0, 0, 0, time.UTC), s.Next(from))

	// After today's run: fires tomorrow.
	from = time.Date(2026, 8, 30, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 31, 3, 0, 0, 0, time.UTC), s.Next(from))
}

func TestCronSchedule_StepsRangesAndLists(t *testing.T) {
	from := time.Date(2026, 8, 30, 10, 7, 0, 0, time.UTC)

	every15, err := NewCronSchedule("*/15 * * * *")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 30, 10, 15, 0, 0, time.UTC), every15.Next(from))

	businessHours, err := NewCronSchedule("0 9-17 * * 1-5")
	require.NoError(t, err)
	// Aug 30 2026 is a Sunday; the next slot is Monday 09:00.
	assert.Equal(t, time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC), businessHours.Next(from))

	twiceDaily, err := NewCronSchedule("30 6,18 * * *")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 30, 18, 30, 0, 0, time.UTC), twiceDaily.Next(from))
}

func TestCronSchedule_String(t *testing.T) {
	s := MustCronSchedule("0 3 * * *")
	assert.Equal(t, "cron(0 3 * * *)", s.String())
}

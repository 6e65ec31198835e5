package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CronSchedule implements Schedule from a five-field cron expression
// (minute hour day-of-month month day-of-week). Calendar-anchored jobs like
// the nightly legacy cache sweep use it instead of an interval, which would
// drift with process restarts.
type CronSchedule struct {
	raw      string
	minutes  uint64
	hours    uint64
	days     uint64
	months   uint64
	weekdays uint64
}

// NewCronSchedule parses a cron expression. Fields support "*", "*/n",
// single values, ranges "a-b" (with optional "/n" step), and lists "a,b,c".
func NewCronSchedule(expr string) (*CronSchedule, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("cron %q: expected 5 fields, got %d", expr, len(fields))
	}

	s := &CronSchedule{raw: expr}
	specs := []struct {
		set    *uint64
		lo, hi int
		name   string
	}{
		{&s.minutes, 0, 59, "minute"},
		{&s.hours, 0, 23, "hour"},
		{&s.days, 1, 31, "day"},
		{&s.months, 1, 12, "month"},
		{&s.weekdays, 0, 6, "weekday"},
	}
	for i, spec := range specs {
		set, err := parseCronField(fields[i], spec.lo, spec.hi)
		if err != nil {
			return nil, fmt.Errorf("cron %q: %s field: %w", expr, spec.name, err)
		}
		*spec.set = set
	}
	return s, nil
}

// MustCronSchedule is NewCronSchedule for expressions known at compile time.
func MustCronSchedule(expr string) *CronSchedule {
	s, err := NewCronSchedule(expr)
	if err != nil {
		panic(err)
	}
	return s
}

// parseCronField resolves one field into a bitmask of allowed values.
func parseCronField(field string, lo, hi int) (uint64, error) {
	var set uint64
	for _, part := range strings.Split(field, ",") {
		part = strings.TrimSpace(part)

		step := 1
		if idx := strings.Index(part, "/"); idx >= 0 {
			n, err := strconv.Atoi(part[idx+1:])
			if err != nil || n <= 0 {
				return 0, fmt.Errorf("invalid step %q", part)
			}
			step = n
			part = part[:idx]
		}

		start, end := lo, hi
		switch {
		case part == "*":
			// full range
		case strings.Contains(part, "-"):
			bounds := strings.SplitN(part, "-", 2)
			var err error
			if start, err = strconv.Atoi(bounds[0]); err != nil {
				return 0, fmt.Errorf("invalid range %q", part)
			}
			if end, err = strconv.Atoi(bounds[1]); err != nil {
				return 0, fmt.Errorf("invalid range %q", part)
			}
		default:
			v, err := strconv.Atoi(part)
			if err != nil {
				return 0, fmt.Errorf("invalid value %q", part)
			}
			start, end = v, v
		}

		if start < lo || end > hi || start > end {
			return 0, fmt.Errorf("value out of range [%d-%d]: %q", lo, hi, part)
		}
		for v := start; v <= end; v += step {
			set |= 1 << uint(v)
		}
	}
	if set == 0 {
		return 0, fmt.Errorf("empty field %q", field)
	}
	return set, nil
}

// Next returns the first matching time strictly after t, at minute
// resolution. Scans at most one year ahead; a valid expression always
// matches within that window.
func (s *CronSchedule) Next(t time.Time) time.Time {
	next := t.Add(time.Minute).Truncate(time.Minute)
	const maxMinutes = 366 * 24 * 60
	for i := 0; i < maxMinutes; i++ {
		if s.matches(next) {
			return next
		}
		next = next.Add(time.Minute)
	}
	return time.Time{}
}

// String returns the original expression.
func (s *CronSchedule) String() string {
	return "cron(" + s.raw + ")"
}

func (s *CronSchedule) matches(t time.Time) bool {
	return s.minutes&(1<<uint(t.Minute())) != 0 &&
		s.hours&(1<<uint(t.Hour())) != 0 &&
		s.days&(1<<uint(t.Day())) != 0 &&
		s.months&(1<<uint(t.Month())) != 0 &&
		s.weekdays&(1<<uint(t.Weekday())) != 0
}

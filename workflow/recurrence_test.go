package workflow

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int { return &v }

func TestCalculateRecurrence(t *testing.T) {
	cases := []struct {
		name        string
		nextRunDate time.Time
		interval    int
		weekRank    *int
		wantStart   time.Time
		wantDue     time.Time
		wantNext    time.Time
	}{
		{
			name:        "monthly no rank spans the whole month",
			nextRunDate: date(2026, time.February, 10),
			interval:    1,
			wantStart:   date(2026, time.February, 1),
			wantDue:     date(2026, time.February, 28),
			wantNext:    date(2026, time.March, 10),
		},
		{
			name:        "two month interval due at end of second month",
			nextRunDate: date(2026, time.January, 15),
			interval:    2,
			wantStart:   date(2026, time.January, 1),
			wantDue:     date(2026, time.February, 28),
			wantNext:    date(2026, time.March, 15),
		},
		{
			name:        "week rank one",
			nextRunDate: date(2026, time.June, 5),
			interval:    1,
			weekRank:    intPtr(1),
			wantStart:   date(2026, time.June, 1),
			wantDue:     date(2026, time.June, 7),
			wantNext:    date(2026, time.July, 5),
		},
		{
			name:        "week rank two",
			nextRunDate: date(2026, time.June, 5),
			interval:    1,
			weekRank:    intPtr(2),
			wantStart:   date(2026, time.June, 8),
			wantDue:     date(2026, time.June, 14),
			wantNext:    date(2026, time.July, 5),
		},
		{
			name:        "week rank four ends on the month's last day",
			nextRunDate: date(2026, time.April, 10),
			interval:    1,
			weekRank:    intPtr(4),
			wantStart:   date(2026, time.April, 22),
			wantDue:     date(2026, time.April, 30),
			wantNext:    date(2026, time.May, 10),
		},
		{
			name:        "week rank four in february",
			nextRunDate: date(2026, time.February, 1),
			interval:    1,
			weekRank:    intPtr(4),
			wantStart:   date(2026, time.February, 22),
			wantDue:     date(2026, time.February, 28),
			wantNext:    date(2026, time.March, 1),
		},
		{
			name:        "unknown rank falls back to first week",
			nextRunDate: date(2026, time.June, 5),
			interval:    1,
			weekRank:    intPtr(9),
			wantStart:   date(2026, time.June, 1),
			wantDue:     date(2026, time.June, 7),
			wantNext:    date(2026, time.July, 5),
		},
		{
			name:        "day of month clamps instead of overflowing",
			nextRunDate: date(2026, time.January, 31),
			interval:    1,
			wantStart:   date(2026, time.January, 1),
			wantDue:     date(2026, time.January, 31),
			wantNext:    date(2026, time.February, 28),
		},
		{
			name:        "leap year february keeps day 29",
			nextRunDate: date(2028, time.January, 31),
			interval:    1,
			wantStart:   date(2028, time.January, 1),
			wantDue:     date(2028, time.January, 31),
			wantNext:    date(2028, time.February, 29),
		},
		{
			name:        "year rollover",
			nextRunDate: date(2026, time.November, 20),
			interval:    3,
			wantStart:   date(2026, time.November, 1),
			wantDue:     date(2027, time.January, 31),
			wantNext:    date(2027, time.February, 20),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			window := CalculateRecurrence(tc.nextRunDate, tc.interval, tc.weekRank)
			if !window.StartDate.Equal(tc.wantStart) {
				t.Fatalf("start date: got %s, want %s", window.StartDate.Format("2006-01-02"), tc.wantStart.Format("2006-01-02"))
			}
			if !window.DueDate.Equal(tc.wantDue) {
				t.Fatalf("due date: got %s, want %s", window.DueDate.Format("2006-01-02"), tc.wantDue.Format("2006-01-02"))
			}
			if !window.NextRunDate.Equal(tc.wantNext) {
				t.Fatalf("next run date: got %s, want %s", window.NextRunDate.Format("2006-01-02"), tc.wantNext.Format("2006-01-02"))
			}
		})
	}
}

func TestAddMonthsNoOverflowNeverDrifts(t *testing.T) {
	// A day-10 monthly schedule must land on day 10 forever, regardless of
	// how many short months it crosses.
	current := date(2026, time.January, 10)
	for i := 0; i < 24; i++ {
		current = addMonthsNoOverflow(current, 1)
		if current.Day() != 10 {
			t.Fatalf("drifted to day %d after %d months (%s)", current.Day(), i+1, current.Format("2006-01-02"))
		}
	}
}

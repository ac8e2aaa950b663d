package workflow

import "time"

// RecurrenceWindow is the computed inspection window for one generation of a
// schedule, plus the date the schedule advances to afterwards.
type RecurrenceWindow struct {
	StartDate   time.Time
	DueDate     time.Time
	NextRunDate time.Time
}

// weekRankDays maps a week rank to its fixed day range within the first month
// of the interval. Rank 4 runs to end-of-month, which varies 28-31.
var weekRankDays = map[int][2]int{
	1: {1, 7},
	2: {8, 14},
	3: {15, 21},
}

// CalculateRecurrence computes the inspection window for a schedule firing at
// nextRunDate. Pure function, no I/O.
//
// The window spans the whole interval (first of the base month through the
// last day of month base+interval-1) when weekRank is nil; a non-nil rank
// narrows it to a fixed day range within the base month only. An
// unrecognized rank falls back to days 1-7; creation-time validation rejects
// ranks outside 1-4, so this only applies to hand-edited rows.
//
// The advanced date preserves the day-of-month of nextRunDate with
// overflow-safe month addition: Jan 31 + 1 month lands on Feb 28/29, never
// rolling into March, so schedules do not drift across short months.
func CalculateRecurrence(nextRunDate time.Time, monthsInterval int, weekRank *int) RecurrenceWindow {
	if monthsInterval < 1 {
		monthsInterval = 1
	}
	loc := nextRunDate.Location()
	baseMonth := time.Date(nextRunDate.Year(), nextRunDate.Month(), 1, 0, 0, 0, 0, loc)

	var startDate, dueDate time.Time
	if weekRank == nil {
		lastMonth := addMonthsNoOverflow(baseMonth, monthsInterval-1)
		startDate = baseMonth
		dueDate = endOfMonth(lastMonth)
	} else {
		rank, ok := weekRankDays[*weekRank]
		if !ok {
			if *weekRank == 4 {
				rank = [2]int{22, daysInMonth(baseMonth.Year(), baseMonth.Month())}
			} else {
				rank = weekRankDays[1]
			}
		}
		startDate = time.Date(baseMonth.Year(), baseMonth.Month(), rank[0], 0, 0, 0, 0, loc)
		dueDate = time.Date(baseMonth.Year(), baseMonth.Month(), rank[1], 0, 0, 0, 0, loc)
	}

	return RecurrenceWindow{
		StartDate:   startDate,
		DueDate:     dueDate,
		NextRunDate: addMonthsNoOverflow(nextRunDate, monthsInterval),
	}
}

// addMonthsNoOverflow adds whole months, clamping the day-of-month to the
// target month's length instead of letting time.AddDate roll over.
func addMonthsNoOverflow(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	total := int(month) - 1 + months
	targetYear := year + total/12
	targetMonth := time.Month(total%12 + 1)
	if last := daysInMonth(targetYear, targetMonth); day > last {
		day = last
	}
	return time.Date(targetYear, targetMonth, day, 0, 0, 0, 0, t.Location())
}

func endOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), daysInMonth(t.Year(), t.Month()), 0, 0, 0, 0, t.Location())
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

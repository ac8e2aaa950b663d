package config

import (
	"log"
	"os"
	"strings"
	"time"
)

// DefaultTimezone is the civil timezone all schedule date math runs in.
// Override with SCHEDULER_TIMEZONE.
const DefaultTimezone = "Asia/Jakarta"

// Clock supplies "now" in a fixed civil timezone. The scheduler never reads
// ambient system time directly so that recurrence and overdue checks are
// deterministic under test.
type Clock interface {
	Now() time.Time
	// Today returns the current civil date (midnight) in the clock's location.
	Today() time.Time
	Location() *time.Location
}

type systemClock struct {
	loc *time.Location
}

func (c systemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c systemClock) Today() time.Time {
	now := c.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.loc)
}

func (c systemClock) Location() *time.Location {
	return c.loc
}

// NewSystemClock builds the production clock from SCHEDULER_TIMEZONE,
// falling back to Asia/Jakarta (and UTC if the zone database lookup fails).
func NewSystemClock() Clock {
	tz := strings.TrimSpace(os.Getenv("SCHEDULER_TIMEZONE"))
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("invalid SCHEDULER_TIMEZONE %q: %v; using UTC", tz, err)
		loc = time.UTC
	}
	return systemClock{loc: loc}
}

// FixedClock is a Clock pinned to a single instant, for tests and replays.
type FixedClock struct {
	Instant time.Time
}

func (c FixedClock) Now() time.Time {
	return c.Instant
}

func (c FixedClock) Today() time.Time {
	return time.Date(c.Instant.Year(), c.Instant.Month(), c.Instant.Day(), 0, 0, 0, 0, c.Instant.Location())
}

func (c FixedClock) Location() *time.Location {
	return c.Instant.Location()
}

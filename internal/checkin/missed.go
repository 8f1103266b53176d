package checkin

import (
	"fmt"
	"strings"
	"time"

	"github.com/kylemclaren/devcoach/internal/config"
	"github.com/kylemclaren/devcoach/internal/timeparse"
)

// missedLookbackDays bounds the scan when no check-in has ever
// succeeded; without a lower bound every past date would count.
const missedLookbackDays = 7

// Missed identifies a scheduled check-in that should have fired but
// has no execution record.
type Missed struct {
	Time string
	ID   string
	Date string
}

// ComputeMissed returns the check-ins whose trigger time has passed
// since the last successful check-in (bounded to a recent window when
// there has never been one) and which have no execution recorded for
// that date. Entries with unparseable times are skipped.
func ComputeMissed(checkins []config.Checkin, lastSuccess *time.Time, log *Log, now time.Time) []Missed {
	lower := now.AddDate(0, 0, -missedLookbackDays)
	if lastSuccess != nil && lastSuccess.After(lower) {
		lower = *lastSuccess
	}

	var missed []Missed
	for day := startOfDay(lower); !day.After(now); day = day.AddDate(0, 0, 1) {
		date := day.Format(DateFormat)
		for _, c := range checkins {
			hour, minute, err := timeparse.Components(c.Time)
			if err != nil {
				continue
			}
			at := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, now.Location())
			if !at.Before(now) || !at.After(lower) {
				continue
			}
			if log.Executed(date, c.ID) {
				continue
			}
			missed = append(missed, Missed{Time: c.Time, ID: c.ID, Date: date})
		}
	}
	return missed
}

// DescribeMissed renders the missed check-ins for the coaching prompt.
// The phrasing stays factual and non-accusatory.
func DescribeMissed(missed []Missed) string {
	if len(missed) == 0 {
		return "All recent check-ins happened as scheduled."
	}
	times := make([]string, len(missed))
	for i, m := range missed {
		times[i] = fmt.Sprintf("%s on %s", m.Time, m.Date)
	}
	return fmt.Sprintf("A few scheduled check-ins did not happen (%s). That's okay, life happens; it may be worth a quick look at the schedule.",
		strings.Join(times, ", "))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

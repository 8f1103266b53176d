// Package checkin manages scheduled check-in times and the append-only
// log of check-ins that actually fired.
package checkin

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kylemclaren/devcoach/internal/storage"
)

const logFile = "daily_checkins.json"

// DateFormat is the calendar-date key used by the daily log.
const DateFormat = "2006-01-02"

// Execution records a single firing of a scheduled check-in.
type Execution struct {
	ScheduledTimeID string    `json:"scheduled_time_id"`
	ActualTimestamp time.Time `json:"actual_timestamp"`
}

// DayEntry groups the executions of one calendar date.
type DayEntry struct {
	Date             string      `json:"date"`
	ExecutedCheckins []Execution `json:"executed_checkins"`
}

// Log is the persisted daily check-in log. Entries accumulate until
// explicitly cleared.
type Log struct {
	mu      sync.Mutex
	entries []DayEntry
	backend storage.Backend
	log     *log.Logger
	now     func() time.Time
}

// NewLog loads the daily log, starting empty if nothing usable is on
// disk.
func NewLog(backend storage.Backend, logger *log.Logger) *Log {
	l := &Log{backend: backend, log: logger, now: time.Now}
	if _, err := backend.Load(logFile, &l.entries); err != nil {
		logger.Warn("could not load daily check-in log, starting empty", "err", err)
		l.entries = nil
	}
	return l
}

// Record appends an execution of the given scheduled check-in to
// today's entry, creating it if absent. Recording the same id twice on
// one date is idempotent: the second call reports recorded=false with
// no error and the log is unchanged.
func (l *Log) Record(scheduledTimeID string, at time.Time) (recorded bool, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	date := at.Format(DateFormat)
	idx := -1
	for i := range l.entries {
		if l.entries[i].Date == date {
			idx = i
			break
		}
	}

	if idx >= 0 {
		for _, ex := range l.entries[idx].ExecutedCheckins {
			if ex.ScheduledTimeID == scheduledTimeID {
				l.log.Debug("check-in already recorded today", "id", scheduledTimeID, "date", date)
				return false, nil
			}
		}
	}

	snapshot := l.snapshotLocked()
	if idx < 0 {
		l.entries = append(l.entries, DayEntry{Date: date})
		idx = len(l.entries) - 1
	}
	l.entries[idx].ExecutedCheckins = append(l.entries[idx].ExecutedCheckins, Execution{
		ScheduledTimeID: scheduledTimeID,
		ActualTimestamp: at,
	})

	if err := l.backend.Save(logFile, l.entries); err != nil {
		l.entries = snapshot
		return false, err
	}
	return true, nil
}

// Executed reports whether the given check-in id fired on the given
// date.
func (l *Log) Executed(date string, scheduledTimeID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.Date != date {
			continue
		}
		for _, ex := range e.ExecutedCheckins {
			if ex.ScheduledTimeID == scheduledTimeID {
				return true
			}
		}
	}
	return false
}

// Entries returns a copy of the full log.
func (l *Log) Entries() []DayEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// Clear empties the log and persists the empty state.
func (l *Log) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := l.snapshotLocked()
	l.entries = nil
	if err := l.backend.Save(logFile, []DayEntry{}); err != nil {
		l.entries = snapshot
		return err
	}
	return nil
}

func (l *Log) snapshotLocked() []DayEntry {
	snap := make([]DayEntry, len(l.entries))
	for i, e := range l.entries {
		snap[i] = e
		snap[i].ExecutedCheckins = append([]Execution(nil), e.ExecutedCheckins...)
	}
	return snap
}

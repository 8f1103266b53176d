package checkin

import (
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/kylemclaren/devcoach/internal/config"
	"github.com/kylemclaren/devcoach/internal/errs"
	"github.com/kylemclaren/devcoach/internal/timeparse"
)

// ErrDuplicateTime marks an add whose time already exists in the
// registry. It is a non-fatal rejection: the registry is unchanged.
var ErrDuplicateTime = errors.New("a check-in for that time already exists")

// Rescheduler is the scheduler surface the registry drives. After
// every mutation the whole job set is rebuilt: cancel all, schedule
// all. Incremental updates are deliberately avoided so the active jobs
// can never drift from the registry.
type Rescheduler interface {
	CancelAll()
	ScheduleAll(entries []config.Checkin) (int, error)
}

// Registry manages the scheduled check-in entries stored in the
// configuration.
type Registry struct {
	cfg   *config.Manager
	sched Rescheduler
	log   *log.Logger
	now   func() time.Time
}

// NewRegistry creates a registry over the given config and scheduler.
func NewRegistry(cfg *config.Manager, sched Rescheduler, logger *log.Logger) *Registry {
	return &Registry{cfg: cfg, sched: sched, log: logger, now: time.Now}
}

// List returns the registry entries in display order.
func (r *Registry) List() []config.Checkin {
	return r.cfg.Get().Checkins
}

// Add parses the time or interval text, appends a new entry and
// rebuilds the job set. If the rebuild fails the entry is removed
// again and the config re-persisted, so a failed add leaves no trace.
func (r *Registry) Add(input string) (config.Checkin, error) {
	canonical, err := timeparse.Parse(input, r.now())
	if err != nil {
		return config.Checkin{}, err
	}

	for _, c := range r.cfg.Get().Checkins {
		if c.Time == canonical {
			return config.Checkin{}, ErrDuplicateTime
		}
	}

	entry := config.Checkin{Time: canonical, ID: uuid.NewString()}
	if err := r.cfg.Update(func(c *config.Config) {
		c.Checkins = append(c.Checkins, entry)
	}); err != nil {
		return config.Checkin{}, err
	}

	if err := r.rebuild(); err != nil {
		r.log.Error("scheduling failed, rolling back check-in add", "time", canonical, "err", err)
		if rbErr := r.cfg.Update(func(c *config.Config) {
			c.Checkins = removeByID(c.Checkins, entry.ID)
		}); rbErr != nil {
			r.log.Error("rollback persist failed", "err", rbErr)
		}
		if rbErr := r.rebuild(); rbErr != nil {
			r.log.Error("rescheduling remaining check-ins failed", "err", rbErr)
		}
		return config.Checkin{}, err
	}
	return entry, nil
}

// Remove deletes the entry at the 1-based index and rebuilds the job
// set. A failed rebuild rolls the removal back, mirroring Add.
func (r *Registry) Remove(index int) (config.Checkin, error) {
	entries := r.cfg.Get().Checkins
	if index < 1 || index > len(entries) {
		return config.Checkin{}, errs.Newf(errs.KindValidation, "index must be between 1 and %d", len(entries))
	}
	removed := entries[index-1]

	if err := r.cfg.Update(func(c *config.Config) {
		c.Checkins = removeByID(c.Checkins, removed.ID)
	}); err != nil {
		return config.Checkin{}, err
	}

	if err := r.rebuild(); err != nil {
		r.log.Error("scheduling failed, rolling back check-in removal", "time", removed.Time, "err", err)
		if rbErr := r.cfg.Update(func(c *config.Config) {
			rest := append([]config.Checkin{}, c.Checkins[:index-1]...)
			rest = append(rest, removed)
			c.Checkins = append(rest, c.Checkins[index-1:]...)
		}); rbErr != nil {
			r.log.Error("rollback persist failed", "err", rbErr)
		}
		if rbErr := r.rebuild(); rbErr != nil {
			r.log.Error("rescheduling remaining check-ins failed", "err", rbErr)
		}
		return config.Checkin{}, err
	}
	return removed, nil
}

// Rebuild cancels every active job and schedules the current registry.
// Used at startup and after config-level changes.
func (r *Registry) Rebuild() error {
	return r.rebuild()
}

func (r *Registry) rebuild() error {
	r.sched.CancelAll()
	n, err := r.sched.ScheduleAll(r.cfg.Get().Checkins)
	if err != nil {
		return err
	}
	r.log.Debug("rescheduled check-ins", "count", n)
	return nil
}

func removeByID(entries []config.Checkin, id string) []config.Checkin {
	out := entries[:0]
	for _, c := range entries {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

// Package scheduler owns the recurring check-in jobs. One cron entry
// is registered per check-in time; when a job fires it records the
// execution, gathers task context, asks the AI coach for a message and
// delivers it. A failing step never deregisters the trigger or crashes
// the process.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"

	"github.com/kylemclaren/devcoach/internal/ai"
	"github.com/kylemclaren/devcoach/internal/checkin"
	"github.com/kylemclaren/devcoach/internal/config"
	"github.com/kylemclaren/devcoach/internal/notify"
	"github.com/kylemclaren/devcoach/internal/task"
	"github.com/kylemclaren/devcoach/internal/timeparse"
)

// Coach produces a coaching message for a prompt.
type Coach interface {
	GenerateReply(ctx context.Context, prompt string) (string, error)
}

// Scheduler manages the recurring check-in jobs.
type Scheduler struct {
	cron    *cron.Cron
	jobs    map[string]cron.EntryID // check-in id -> cron entry
	times   map[string]string       // check-in id -> HH:MM, for status display
	mu      sync.Mutex
	running bool

	cfg      *config.Manager
	tasks    *task.Store
	daily    *checkin.Log
	notifier notify.Notifier
	webhook  *notify.Webhook
	log      *log.Logger

	// newCoach builds a Coach for the current API key; swapped out in
	// tests.
	newCoach func(apiKey string) Coach
	// echo delivers the coaching message to the interactive console.
	echo func(message string)
	now  func() time.Time
}

// New creates a scheduler over the given stores and delivery channels.
func New(cfg *config.Manager, tasks *task.Store, daily *checkin.Log, notifier notify.Notifier, webhook *notify.Webhook, logger *log.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		jobs:     make(map[string]cron.EntryID),
		times:    make(map[string]string),
		cfg:      cfg,
		tasks:    tasks,
		daily:    daily,
		notifier: notifier,
		webhook:  webhook,
		log:      logger,
		newCoach: func(apiKey string) Coach { return ai.NewClient(apiKey) },
		echo:     func(string) {},
		now:      time.Now,
	}
}

// SetEcho routes coaching messages to the interactive console.
func (s *Scheduler) SetEcho(echo func(message string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if echo != nil {
		s.echo = echo
	}
}

// Start begins running registered jobs.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
}

// Stop halts the cron runner and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()
}

// ScheduleAll registers one recurring daily trigger per entry at its
// hour and minute. Entries with invalid times are skipped with a
// warning. Returns the number of entries scheduled; a cron
// registration failure aborts with an error so the caller can roll
// back.
func (s *Scheduler) ScheduleAll(entries []config.Checkin) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, entry := range entries {
		hour, minute, err := timeparse.Components(entry.Time)
		if err != nil {
			s.log.Warn("skipping check-in with invalid time", "time", entry.Time, "id", entry.ID)
			continue
		}

		id := entry.ID
		entryID, err := s.cron.AddFunc(fmt.Sprintf("0 %d %d * * *", minute, hour), func() {
			s.fire(id)
		})
		if err != nil {
			return count, fmt.Errorf("registering check-in %s: %w", entry.Time, err)
		}
		s.jobs[id] = entryID
		s.times[id] = entry.Time
		count++
	}
	return count, nil
}

// CancelAll deregisters every active trigger. Idempotent.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, entryID := range s.jobs {
		s.cron.Remove(entryID)
		delete(s.jobs, id)
		delete(s.times, id)
	}
}

// JobInfo describes one active trigger for status display.
type JobInfo struct {
	Time string
	Next time.Time
}

// Jobs returns the active triggers sorted by time of day.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for id, entryID := range s.jobs {
		out = append(out, JobInfo{Time: s.times[id], Next: s.cron.Entry(entryID).Next})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

// fire runs the check-in pipeline for one trigger. Every failure is
// logged and absorbed so the next daily cycle still happens.
func (s *Scheduler) fire(checkinID string) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("check-in panicked", "id", checkinID, "panic", r)
		}
	}()

	entry, ok := s.lookupEntry(checkinID)
	if !ok {
		// Removed between registration and firing.
		return
	}
	now := s.now()
	s.log.Info("check-in fired", "time", entry.Time, "id", entry.ID)

	if _, err := s.daily.Record(entry.ID, now); err != nil {
		s.log.Error("failed to record check-in execution", "err", err)
	}
	if err := s.cfg.SetLastCheckin(now); err != nil {
		s.log.Error("failed to update last successful check-in", "err", err)
	}

	apiKey := s.cfg.APIKey()
	if apiKey == "" {
		s.log.Info("no AI API key configured, skipping coaching message")
		return
	}

	prompt := s.buildPrompt(now)
	reply, err := s.newCoach(apiKey).GenerateReply(context.Background(), prompt)
	if err != nil {
		// Recoverable: echo a canned message instead of notifying.
		s.log.Error("coaching request failed", "err", err)
		s.deliverEcho("AI Coach: " + ai.Fallback())
		return
	}

	s.notifier.Notify("Dev Coach Check-in", reply, notify.Options{Sound: true, Wait: true})
	if url := s.cfg.Get().NotifyWebhook; url != "" {
		if err := s.webhook.Send(url, "Dev Coach Check-in", reply); err != nil {
			s.log.Warn("webhook delivery failed", "err", err)
		}
	}
	s.deliverEcho(fmt.Sprintf("--- Scheduled Check-in (%s) ---\nAI Coach: %s", entry.Time, reply))
}

// FireNow runs the check-in pipeline for the given entry immediately,
// outside its schedule.
func (s *Scheduler) FireNow(checkinID string) {
	s.fire(checkinID)
}

func (s *Scheduler) deliverEcho(message string) {
	s.mu.Lock()
	echo := s.echo
	s.mu.Unlock()
	echo(message)
}

func (s *Scheduler) lookupEntry(checkinID string) (config.Checkin, bool) {
	for _, c := range s.cfg.Get().Checkins {
		if c.ID == checkinID {
			return c, true
		}
	}
	return config.Checkin{}, false
}

// buildPrompt summarizes the task list and recent check-in activity
// for the coach.
func (s *Scheduler) buildPrompt(now time.Time) string {
	sum := s.tasks.Summarize(now)
	cfg := s.cfg.Get()
	missed := checkin.ComputeMissed(cfg.Checkins, cfg.LastSuccessfulCheckin, s.daily, now)

	var b strings.Builder
	b.WriteString("You are a supportive, practical productivity coach checking in with a developer.\n")
	b.WriteString("Here is their current situation:\n")
	if len(sum.InProgress) > 0 {
		b.WriteString("- Working on right now: " + strings.Join(sum.InProgress, "; ") + "\n")
	}
	if len(sum.OnHold) > 0 {
		b.WriteString("- On hold: " + strings.Join(sum.OnHold, "; ") + "\n")
	}
	fmt.Fprintf(&b, "- Pending tasks: %d\n", sum.Pending)
	fmt.Fprintf(&b, "- Tasks completed today: %d\n", sum.CompletedToday)
	b.WriteString("- " + checkin.DescribeMissed(missed) + "\n")
	b.WriteString("Write a short, encouraging check-in message (two or three sentences). ")
	b.WriteString("Be concrete about what to focus on next and never guilt-trip about missed check-ins.")
	return b.String()
}

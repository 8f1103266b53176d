package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kylemclaren/devcoach/internal/checkin"
	"github.com/kylemclaren/devcoach/internal/config"
	"github.com/kylemclaren/devcoach/internal/notify"
	"github.com/kylemclaren/devcoach/internal/storage"
	"github.com/kylemclaren/devcoach/internal/task"
)

func testLogger() *log.Logger { return log.New(io.Discard) }

type fakeNotifier struct {
	calls    int
	lastBody string
}

func (f *fakeNotifier) Notify(title, message string, opts notify.Options) {
	f.calls++
	f.lastBody = message
}

type fakeCoach struct {
	reply string
	err   error
	seen  []string
}

func (f *fakeCoach) GenerateReply(ctx context.Context, prompt string) (string, error) {
	f.seen = append(f.seen, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fixture struct {
	sched    *Scheduler
	cfg      *config.Manager
	daily    *checkin.Log
	notifier *fakeNotifier
	coach    *fakeCoach
	echoed   []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := storage.Open(t.TempDir(), testLogger())

	f := &fixture{
		cfg:      config.NewManager(dir, testLogger()),
		daily:    checkin.NewLog(dir, testLogger()),
		notifier: &fakeNotifier{},
		coach:    &fakeCoach{reply: "Keep at it."},
	}
	tasks := task.NewStore(dir, testLogger())
	f.sched = New(f.cfg, tasks, f.daily, f.notifier, notify.NewWebhook(testLogger()), testLogger())
	f.sched.newCoach = func(string) Coach { return f.coach }
	f.sched.now = func() time.Time {
		return time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)
	}
	f.sched.SetEcho(func(msg string) { f.echoed = append(f.echoed, msg) })
	return f
}

func (f *fixture) addCheckin(t *testing.T, hhmm, id string) config.Checkin {
	t.Helper()
	c := config.Checkin{Time: hhmm, ID: id}
	require.NoError(t, f.cfg.Update(func(cfg *config.Config) {
		cfg.Checkins = append(cfg.Checkins, c)
	}))
	return c
}

func TestScheduleAllCountsAndSkipsInvalid(t *testing.T) {
	f := newFixture(t)

	n, err := f.sched.ScheduleAll([]config.Checkin{
		{Time: "09:00", ID: "a"},
		{Time: "25:00", ID: "b"},
		{Time: "17:30", ID: "c"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	jobs := f.sched.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "09:00", jobs[0].Time)
	assert.Equal(t, "17:30", jobs[1].Time)
}

func TestCancelAllIdempotent(t *testing.T) {
	f := newFixture(t)

	_, err := f.sched.ScheduleAll([]config.Checkin{{Time: "09:00", ID: "a"}})
	require.NoError(t, err)

	f.sched.CancelAll()
	f.sched.CancelAll()
	assert.Empty(t, f.sched.Jobs())
}

func TestFireRecordsAndNotifies(t *testing.T) {
	f := newFixture(t)
	c := f.addCheckin(t, "09:00", "chk-1")
	require.NoError(t, f.cfg.Set("ai_api_key", "test-key"))

	f.sched.fire(c.ID)

	assert.True(t, f.daily.Executed("2025-03-10", c.ID))
	require.NotNil(t, f.cfg.Get().LastSuccessfulCheckin)
	assert.Equal(t, 1, f.notifier.calls)
	assert.Equal(t, "Keep at it.", f.notifier.lastBody)
	require.Len(t, f.echoed, 1)
	assert.Contains(t, f.echoed[0], "Keep at it.")

	require.Len(t, f.coach.seen, 1)
	assert.Contains(t, f.coach.seen[0], "productivity coach")
	assert.Contains(t, f.coach.seen[0], "Pending tasks: 0")
}

func TestFireWithoutAPIKeySkipsCoaching(t *testing.T) {
	t.Setenv("DEVCOACH_AI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	f := newFixture(t)
	c := f.addCheckin(t, "09:00", "chk-1")

	f.sched.fire(c.ID)

	// Execution is still recorded and the trigger stays in place, but
	// nothing is generated or delivered.
	assert.True(t, f.daily.Executed("2025-03-10", c.ID))
	assert.Zero(t, f.notifier.calls)
	assert.Empty(t, f.coach.seen)
	assert.Empty(t, f.echoed)
}

func TestFireCoachFailureFallsBack(t *testing.T) {
	f := newFixture(t)
	c := f.addCheckin(t, "09:00", "chk-1")
	require.NoError(t, f.cfg.Set("ai_api_key", "test-key"))
	f.coach.err = errors.New("upstream timeout")

	f.sched.fire(c.ID)

	assert.Zero(t, f.notifier.calls)
	require.Len(t, f.echoed, 1)
	assert.Contains(t, f.echoed[0], "AI Coach: ")
}

func TestFireTwiceSameDayRecordsOnce(t *testing.T) {
	f := newFixture(t)
	c := f.addCheckin(t, "09:00", "chk-1")
	require.NoError(t, f.cfg.Set("ai_api_key", "test-key"))

	f.sched.fire(c.ID)
	f.sched.fire(c.ID)

	entries := f.daily.Entries()
	require.Len(t, entries, 1)
	assert.Len(t, entries[0].ExecutedCheckins, 1)
	// Delivery still happens on both firings.
	assert.Equal(t, 2, f.notifier.calls)
}

func TestFireRemovedEntryIsNoop(t *testing.T) {
	f := newFixture(t)

	f.sched.fire("no-such-id")

	assert.Empty(t, f.daily.Entries())
	assert.Zero(t, f.notifier.calls)
}

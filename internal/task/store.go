package task

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kylemclaren/devcoach/internal/errs"
	"github.com/kylemclaren/devcoach/internal/storage"
)

const tasksFile = "tasks.json"

// ErrAlreadyCompleted is returned when an operation targets a
// completed task that must not change state again.
var ErrAlreadyCompleted = errors.New("task is already completed")

// Store holds the ordered task list. Every mutation persists the full
// list; if the write fails the in-memory change is rolled back so the
// store never diverges from what was last durably written.
type Store struct {
	mu      sync.Mutex
	tasks   []Task
	backend storage.Backend
	log     *log.Logger
	now     func() time.Time
}

// NewStore loads the task list from the backend, falling back to an
// empty list if nothing usable is on disk.
func NewStore(backend storage.Backend, logger *log.Logger) *Store {
	s := &Store{backend: backend, log: logger, now: time.Now}
	if _, err := backend.Load(tasksFile, &s.tasks); err != nil {
		logger.Warn("could not load tasks, starting empty", "err", err)
		s.tasks = nil
	}
	return s
}

// List returns a copy of the task list in display order.
func (s *Store) List() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Add appends a new pending task and persists the list.
func (s *Store) Add(description string) (Task, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return Task{}, errs.New(errs.KindValidation, "task description must be a non-empty string")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	t := Task{
		ID:          s.nextIDLocked(),
		Description: description,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.tasks = append(s.tasks, t)
	if err := s.persistLocked(); err != nil {
		s.tasks = s.tasks[:len(s.tasks)-1]
		return Task{}, err
	}
	return t, nil
}

// Start moves the task at the 1-based index to in-progress. If another
// task is currently in-progress it is displaced to on-hold first, so
// at most one task is ever in-progress. Completed tasks cannot be
// started; the operation is rejected and nothing changes.
// The displaced task, if any, is returned alongside the started one.
func (s *Store) Start(index int) (started Task, displaced *Task, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.resolveIndexLocked(index)
	if err != nil {
		return Task{}, nil, err
	}
	if s.tasks[i].Status == StatusCompleted {
		return Task{}, nil, ErrAlreadyCompleted
	}

	snapshot := s.snapshotLocked()
	now := s.now()

	for j := range s.tasks {
		if j != i && s.tasks[j].Status == StatusInProgress {
			s.tasks[j].Status = StatusOnHold
			s.tasks[j].UpdatedAt = now
			d := s.tasks[j]
			displaced = &d
		}
	}
	s.tasks[i].Status = StatusInProgress
	s.tasks[i].UpdatedAt = now

	if err := s.persistLocked(); err != nil {
		s.tasks = snapshot
		return Task{}, nil, err
	}
	return s.tasks[i], displaced, nil
}

// Complete marks the task at the 1-based index completed. Any state
// may be completed; completing a completed task is a no-op.
func (s *Store) Complete(index int) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.resolveIndexLocked(index)
	if err != nil {
		return Task{}, err
	}
	if s.tasks[i].Status == StatusCompleted {
		return s.tasks[i], nil
	}

	snapshot := s.snapshotLocked()
	s.tasks[i].Status = StatusCompleted
	s.tasks[i].UpdatedAt = s.now()

	if err := s.persistLocked(); err != nil {
		s.tasks = snapshot
		return Task{}, err
	}
	return s.tasks[i], nil
}

// Remove deletes the task at the 1-based index regardless of status.
func (s *Store) Remove(index int) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.resolveIndexLocked(index)
	if err != nil {
		return Task{}, err
	}

	snapshot := s.snapshotLocked()
	removed := s.tasks[i]
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)

	if err := s.persistLocked(); err != nil {
		s.tasks = snapshot
		return Task{}, err
	}
	return removed, nil
}

// Backup writes a timestamped copy of the current task list next to
// the live file.
func (s *Store) Backup() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := "tasks.backup." + s.now().Format("20060102-150405") + ".json"
	if err := s.backend.Save(name, s.tasks); err != nil {
		return "", err
	}
	return name, nil
}

// Summary describes the task list for the coaching prompt.
type Summary struct {
	InProgress     []string
	OnHold         []string
	Pending        int
	CompletedToday int
}

// Summarize builds a Summary relative to the given date.
func (s *Store) Summarize(date time.Time) Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum Summary
	for _, t := range s.tasks {
		switch t.Status {
		case StatusInProgress:
			sum.InProgress = append(sum.InProgress, t.Description)
		case StatusOnHold:
			sum.OnHold = append(sum.OnHold, t.Description)
		case StatusPending:
			sum.Pending++
		case StatusCompleted:
			if t.CompletedOn(date) {
				sum.CompletedToday++
			}
		}
	}
	return sum
}

func (s *Store) nextIDLocked() int {
	max := 0
	for _, t := range s.tasks {
		if t.ID > max {
			max = t.ID
		}
	}
	return max + 1
}

func (s *Store) resolveIndexLocked(index int) (int, error) {
	if index < 1 || index > len(s.tasks) {
		return 0, errs.Newf(errs.KindValidation, "index must be between 1 and %d", len(s.tasks))
	}
	return index - 1, nil
}

func (s *Store) snapshotLocked() []Task {
	snap := make([]Task, len(s.tasks))
	copy(snap, s.tasks)
	return snap
}

func (s *Store) persistLocked() error {
	if err := s.backend.Save(tasksFile, s.tasks); err != nil {
		s.log.Error("failed to persist tasks", "err", err)
		return err
	}
	return nil
}

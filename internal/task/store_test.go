package task

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kylemclaren/devcoach/internal/errs"
)

// memBackend is an in-memory storage.Backend with injectable write
// failures.
type memBackend struct {
	files   map[string][]byte
	saves   int
	failing bool
}

func newMemBackend() *memBackend {
	return &memBackend{files: map[string][]byte{}}
}

func (b *memBackend) Load(name string, v any) (bool, error) {
	return false, nil
}

func (b *memBackend) Save(name string, v any) error {
	b.saves++
	if b.failing {
		return errs.New(errs.KindFileIO, "disk full")
	}
	b.files[name] = []byte("saved")
	return nil
}

func newTestStore() (*Store, *memBackend) {
	b := newMemBackend()
	s := NewStore(b, log.New(io.Discard))
	return s, b
}

func inProgressCount(s *Store) int {
	n := 0
	for _, t := range s.List() {
		if t.Status == StatusInProgress {
			n++
		}
	}
	return n
}

func TestAddAssignsMonotonicIDs(t *testing.T) {
	s, _ := newTestStore()

	a, err := s.Add("write tests")
	require.NoError(t, err)
	b, err := s.Add("review PR")
	require.NoError(t, err)
	assert.Equal(t, 1, a.ID)
	assert.Equal(t, 2, b.ID)
	assert.Equal(t, StatusPending, a.Status)

	// Removing the newest task frees its id for reuse (max+1).
	_, err = s.Remove(2)
	require.NoError(t, err)
	c, err := s.Add("ship it")
	require.NoError(t, err)
	assert.Equal(t, 2, c.ID)
}

func TestAddRejectsEmptyDescription(t *testing.T) {
	s, b := newTestStore()

	for _, desc := range []string{"", "   ", "\t"} {
		_, err := s.Add(desc)
		require.Error(t, err, "description %q", desc)
		assert.True(t, errs.IsValidation(err))
	}
	assert.Zero(t, b.saves, "no persistence attempt for rejected adds")
	assert.Zero(t, s.Len())
}

func TestStartKeepsSingleInProgress(t *testing.T) {
	s, _ := newTestStore()
	for _, d := range []string{"one", "two", "three"} {
		_, err := s.Add(d)
		require.NoError(t, err)
	}

	started, displaced, err := s.Start(1)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, started.Status)
	assert.Nil(t, displaced)

	// Starting another displaces the first to on-hold.
	started, displaced, err = s.Start(2)
	require.NoError(t, err)
	assert.Equal(t, "two", started.Description)
	require.NotNil(t, displaced)
	assert.Equal(t, "one", displaced.Description)
	assert.Equal(t, StatusOnHold, displaced.Status)
	assert.Equal(t, 1, inProgressCount(s))
}

func TestStartRejectsCompletedTask(t *testing.T) {
	s, _ := newTestStore()
	_, err := s.Add("done already")
	require.NoError(t, err)
	_, err = s.Complete(1)
	require.NoError(t, err)

	_, _, err = s.Start(1)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	// Rejected operation leaves the task unchanged.
	assert.Equal(t, StatusCompleted, s.List()[0].Status)
	assert.Zero(t, inProgressCount(s))
}

func TestCompleteFromAnyState(t *testing.T) {
	s, _ := newTestStore()
	for _, d := range []string{"pending one", "in progress one", "on hold one"} {
		_, err := s.Add(d)
		require.NoError(t, err)
	}
	_, _, err := s.Start(2)
	require.NoError(t, err)
	_, _, err = s.Start(3) // displaces task 2 to on-hold
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		got, err := s.Complete(i)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, got.Status)
	}
}

func TestCompleteIsIdempotent(t *testing.T) {
	s, b := newTestStore()
	_, err := s.Add("finish report")
	require.NoError(t, err)

	first, err := s.Complete(1)
	require.NoError(t, err)
	savesAfterFirst := b.saves

	second, err := s.Complete(1)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, second.Status)
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt, "second complete must not touch the task")
	assert.Equal(t, savesAfterFirst, b.saves, "second complete must not re-persist")
}

func TestIndexValidation(t *testing.T) {
	s, _ := newTestStore()
	_, err := s.Add("only task")
	require.NoError(t, err)

	for _, index := range []int{0, -1, 2, 100} {
		_, err := s.Complete(index)
		require.Error(t, err, "index %d", index)
		assert.True(t, errs.IsValidation(err))
		assert.Contains(t, err.Error(), "between 1 and 1")
	}
}

func TestPersistFailureRollsBack(t *testing.T) {
	s, b := newTestStore()
	_, err := s.Add("survivor")
	require.NoError(t, err)

	b.failing = true

	_, err = s.Add("never lands")
	require.Error(t, err)
	assert.Equal(t, 1, s.Len())

	_, _, err = s.Start(1)
	require.Error(t, err)
	assert.Equal(t, StatusPending, s.List()[0].Status)

	_, err = s.Complete(1)
	require.Error(t, err)
	assert.Equal(t, StatusPending, s.List()[0].Status)

	_, err = s.Remove(1)
	require.Error(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestSummarize(t *testing.T) {
	s, _ := newTestStore()
	now := time.Now()

	for _, d := range []string{"a", "b", "c", "d"} {
		_, err := s.Add(d)
		require.NoError(t, err)
	}
	_, _, err := s.Start(1)
	require.NoError(t, err)
	_, _, err = s.Start(2) // "a" goes on hold
	require.NoError(t, err)
	_, err = s.Complete(3)
	require.NoError(t, err)

	sum := s.Summarize(now)
	assert.Equal(t, []string{"b"}, sum.InProgress)
	assert.Equal(t, []string{"a"}, sum.OnHold)
	assert.Equal(t, 1, sum.Pending)
	assert.Equal(t, 1, sum.CompletedToday)

	// A task completed on another day does not count.
	sum = s.Summarize(now.AddDate(0, 0, 1))
	assert.Zero(t, sum.CompletedToday)
}

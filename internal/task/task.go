package task

import "time"

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusOnHold     Status = "on-hold"
	StatusCompleted  Status = "completed"
)

// Task is a single to-do item. At most one task is in-progress at any
// time; Store.Start enforces the invariant.
type Task struct {
	ID          int       `json:"id"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CompletedOn reports whether the task was completed on the given
// calendar date, judged by its last update.
func (t Task) CompletedOn(date time.Time) bool {
	if t.Status != StatusCompleted {
		return false
	}
	y1, m1, d1 := t.UpdatedAt.Date()
	y2, m2, d2 := date.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

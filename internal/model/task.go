package model

import "time"

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusNotStarted, StatusInProgress, StatusDone}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// IsActive reports whether a task with this status shows up in the active listing.
func (s Status) IsActive() bool {
	return s == StatusNotStarted || s == StatusInProgress
}

// IsSettable reports whether a task can be moved to s by an update.
// There is no way back to not_started once a task exists.
func (s Status) IsSettable() bool {
	return s == StatusInProgress || s == StatusDone
}

type Task struct {
	ID          int64
	Name        string
	Description string
	Status      Status
	CreatedAt   time.Time
}

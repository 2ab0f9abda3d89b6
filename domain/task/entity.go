package task

import (
	"time"

	"github.com/example/task-reminder-bot/domain/reminder"
)

// Status represents the state of a task.
type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
)

// ParseStatus maps a user-supplied filter onto a Status.
// Anything that is not "done" lists pending tasks.
func ParseStatus(s string) Status {
	if Status(s) == StatusDone {
		return StatusDone
	}
	return StatusPending
}

// Task is the core domain entity representing a reminder-tracked todo item.
type Task struct {
	ID             uint         `json:"id"`
	OwnerID        string       `json:"owner_id"`
	ConversationID string       `json:"conversation_id"`
	Description    string       `json:"description"`
	DueAt          *time.Time   `json:"due_at,omitempty"`
	Status         Status       `json:"status"`
	Fired          reminder.Set `json:"fired,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// DueTask is a pending task with a due date together with its owner's
// stored timezone name.
type DueTask struct {
	Task
	Timezone string
}

package task

import (
	"context"
	"time"

	"github.com/example/task-reminder-bot/domain/reminder"
)

// Repository is the durable store of tasks and user timezone preferences.
//
// Every method is a single storage statement. Not-found conditions are
// reported as ErrNotFound, driver failures as ErrStorage.
type Repository interface {
	CreateTask(ctx context.Context, ownerID, conversationID, description string, dueAt *time.Time) (*Task, error)
	TasksByOwner(ctx context.Context, ownerID string, status Status) ([]Task, error)
	GetTask(ctx context.Context, id uint, ownerID string) (*Task, error)
	PendingWithDueDates(ctx context.Context) ([]DueTask, error)
	SetStatus(ctx context.Context, id uint, ownerID string, status Status) error
	DeleteTask(ctx context.Context, id uint, ownerID string) error

	// MarkThresholdFired reports whether a pending task with the id existed.
	// A false result with a nil error means the task was completed or removed.
	MarkThresholdFired(ctx context.Context, id uint, key reminder.Key) (bool, error)

	UserTimezone(ctx context.Context, ownerID string) (string, error)
	SetUserTimezone(ctx context.Context, ownerID, zone string) error
}

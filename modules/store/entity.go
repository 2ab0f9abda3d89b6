package store

import (
	"time"

	"github.com/example/task-reminder-bot/domain/reminder"
	"github.com/example/task-reminder-bot/domain/task"
)

// TaskRecord is the persisted form of a task, with one flag column per
// notification threshold.
type TaskRecord struct {
	ID               uint       `gorm:"primaryKey;autoIncrement"`
	OwnerID          string     `gorm:"size:64;not null;index:idx_tasks_owner_status"`
	ConversationID   string     `gorm:"size:64;not null"`
	Description      string     `gorm:"not null"`
	DueAt            *time.Time `gorm:"index"`
	Status           string     `gorm:"size:16;not null;default:pending;index:idx_tasks_owner_status"`
	Notified24h      bool       `gorm:"column:notified_24h;not null;default:false"`
	Notified12h      bool       `gorm:"column:notified_12h;not null;default:false"`
	Notified6h       bool       `gorm:"column:notified_6h;not null;default:false"`
	Notified3h       bool       `gorm:"column:notified_3h;not null;default:false"`
	Notified1h       bool       `gorm:"column:notified_1h;not null;default:false"`
	Notified15m      bool       `gorm:"column:notified_15m;not null;default:false"`
	NotifiedFinalDue bool       `gorm:"column:notified_final_due;not null;default:false"`
	CreatedAt        time.Time
}

// TableName returns the table name for TaskRecord.
func (TaskRecord) TableName() string {
	return "tasks"
}

// UserRecord holds a user's timezone preference.
type UserRecord struct {
	OwnerID   string `gorm:"primaryKey;size:64"`
	Timezone  string `gorm:"size:64;not null;default:UTC"`
	UpdatedAt time.Time
}

// TableName returns the table name for UserRecord.
func (UserRecord) TableName() string {
	return "users"
}

func (r *TaskRecord) fired() reminder.Set {
	flags := map[reminder.Key]bool{
		reminder.Key24h: r.Notified24h,
		reminder.Key12h: r.Notified12h,
		reminder.Key6h:  r.Notified6h,
		reminder.Key3h:  r.Notified3h,
		reminder.Key1h:  r.Notified1h,
		reminder.Key15m: r.Notified15m,
		reminder.KeyDue: r.NotifiedFinalDue,
	}
	set := reminder.Set{}
	for key, on := range flags {
		if on {
			set[key] = true
		}
	}
	return set
}

func (r *TaskRecord) toDomain() task.Task {
	t := task.Task{
		ID:             r.ID,
		OwnerID:        r.OwnerID,
		ConversationID: r.ConversationID,
		Description:    r.Description,
		Status:         task.Status(r.Status),
		Fired:          r.fired(),
		CreatedAt:      r.CreatedAt,
	}
	if r.DueAt != nil {
		due := r.DueAt.UTC()
		t.DueAt = &due
	}
	return t
}

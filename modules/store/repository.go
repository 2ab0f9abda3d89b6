package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/task-reminder-bot/domain/reminder"
	"github.com/example/task-reminder-bot/domain/task"
	"github.com/example/task-reminder-bot/domain/timezone"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository implements task.Repository on top of GORM.
type Repository struct {
	db *gorm.DB
}

var _ task.Repository = (*Repository)(nil)

// NewRepository creates a new task repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateTask saves a new pending task with no thresholds fired.
func (r *Repository) CreateTask(ctx context.Context, ownerID, conversationID, description string, dueAt *time.Time) (*task.Task, error) {
	rec := &TaskRecord{
		OwnerID:        ownerID,
		ConversationID: conversationID,
		Description:    description,
		Status:         string(task.StatusPending),
		CreatedAt:      time.Now().UTC(),
	}
	if dueAt != nil {
		due := dueAt.UTC()
		rec.DueAt = &due
	}

	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to create task: %w", task.ErrStorage, err)
	}
	t := rec.toDomain()
	return &t, nil
}

// TasksByOwner lists an owner's tasks with the given status, earliest due
// first, undated tasks last, ties broken by creation order.
func (r *Repository) TasksByOwner(ctx context.Context, ownerID string, status task.Status) ([]task.Task, error) {
	var records []TaskRecord
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND status = ?", ownerID, string(status)).
		Order("due_at IS NULL").
		Order("due_at ASC").
		Order("created_at ASC").
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list tasks: %w", task.ErrStorage, err)
	}

	tasks := make([]task.Task, 0, len(records))
	for i := range records {
		tasks = append(tasks, records[i].toDomain())
	}
	return tasks, nil
}

// GetTask retrieves a task by id, scoped to its owner.
func (r *Repository) GetTask(ctx context.Context, id uint, ownerID string) (*task.Task, error) {
	var rec TaskRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ? AND owner_id = ?", id, ownerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, task.ErrNotFound
		}
		return nil, fmt.Errorf("%w: failed to find task: %w", task.ErrStorage, err)
	}
	t := rec.toDomain()
	return &t, nil
}

type dueRow struct {
	TaskRecord
	Timezone string
}

// PendingWithDueDates returns every pending task that has a due date,
// joined with its owner's stored timezone.
func (r *Repository) PendingWithDueDates(ctx context.Context) ([]task.DueTask, error) {
	var rows []dueRow
	err := r.db.WithContext(ctx).
		Table("tasks").
		Select("tasks.*, COALESCE(users.timezone, ?) AS timezone", timezone.Reference).
		Joins("LEFT JOIN users ON users.owner_id = tasks.owner_id").
		Where("tasks.status = ? AND tasks.due_at IS NOT NULL", string(task.StatusPending)).
		Order("tasks.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load due tasks: %w", task.ErrStorage, err)
	}

	out := make([]task.DueTask, 0, len(rows))
	for i := range rows {
		out = append(out, task.DueTask{
			Task:     rows[i].TaskRecord.toDomain(),
			Timezone: rows[i].Timezone,
		})
	}
	return out, nil
}

// SetStatus changes a task's status.
func (r *Repository) SetStatus(ctx context.Context, id uint, ownerID string, status task.Status) error {
	result := r.db.WithContext(ctx).
		Model(&TaskRecord{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Update("status", string(status))
	if err := result.Error; err != nil {
		return fmt.Errorf("%w: failed to update task status: %w", task.ErrStorage, err)
	}
	if result.RowsAffected == 0 {
		return task.ErrNotFound
	}
	return nil
}

// DeleteTask permanently removes a task.
func (r *Repository) DeleteTask(ctx context.Context, id uint, ownerID string) error {
	result := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Delete(&TaskRecord{})
	if err := result.Error; err != nil {
		return fmt.Errorf("%w: failed to delete task: %w", task.ErrStorage, err)
	}
	if result.RowsAffected == 0 {
		return task.ErrNotFound
	}
	return nil
}

// MarkThresholdFired sets one threshold flag on a pending task.
func (r *Repository) MarkThresholdFired(ctx context.Context, id uint, key reminder.Key) (bool, error) {
	if _, ok := reminder.Lookup(key); !ok {
		return false, fmt.Errorf("%w: unknown threshold %q", task.ErrValidation, key)
	}

	result := r.db.WithContext(ctx).
		Model(&TaskRecord{}).
		Where("id = ? AND status = ?", id, string(task.StatusPending)).
		Update(string(key), true)
	if err := result.Error; err != nil {
		return false, fmt.Errorf("%w: failed to mark %s: %w", task.ErrStorage, key, err)
	}
	return result.RowsAffected > 0, nil
}

// UserTimezone returns the stored zone name, or the reference zone when
// the owner never set one.
func (r *Repository) UserTimezone(ctx context.Context, ownerID string) (string, error) {
	var rec UserRecord
	if err := r.db.WithContext(ctx).First(&rec, "owner_id = ?", ownerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return timezone.Reference, nil
		}
		return "", fmt.Errorf("%w: failed to load timezone: %w", task.ErrStorage, err)
	}
	return rec.Timezone, nil
}

// SetUserTimezone validates and upserts an owner's zone preference.
func (r *Repository) SetUserTimezone(ctx context.Context, ownerID, zone string) error {
	zone = strings.TrimSpace(zone)
	if err := timezone.Validate(zone); err != nil {
		return err
	}

	rec := UserRecord{OwnerID: ownerID, Timezone: zone, UpdatedAt: time.Now().UTC()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"timezone", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("%w: failed to save timezone: %w", task.ErrStorage, err)
	}
	return nil
}

package notification

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/example/task-reminder-bot/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/google/uuid"
)

const defaultCapacity = 500

// NotificationLog is one entry of the audit feed.
type NotificationLog struct {
	ID        string    `json:"id"`
	TaskID    uint      `json:"task_id"`
	OwnerID   string    `json:"owner_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Channel   string    `json:"channel"`
	Timestamp time.Time `json:"timestamp"`
}

// NotificationModule keeps a bounded audit feed of task lifecycle events
// and delivered reminders.
type NotificationModule struct {
	notifications []NotificationLog
	capacity      int
	mu            sync.RWMutex
}

var _ mono.Module = (*NotificationModule)(nil)
var _ mono.EventConsumerModule = (*NotificationModule)(nil)

// NewModule creates a NotificationModule keeping at most capacity entries.
func NewModule(capacity int) *NotificationModule {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &NotificationModule{
		notifications: make([]NotificationLog, 0),
		capacity:      capacity,
	}
}

func (m *NotificationModule) Name() string {
	return "notification"
}

func (m *NotificationModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCompletedV1, m.handleTaskCompleted, m); err != nil {
		return fmt.Errorf("failed to register TaskCompleted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.handleTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.ReminderSentV1, m.handleReminderSent, m); err != nil {
		return fmt.Errorf("failed to register ReminderSent consumer: %w", err)
	}

	log.Printf("[notification] Registered event consumers: TaskCreated, TaskCompleted, TaskDeleted, ReminderSent")
	return nil
}

func (m *NotificationModule) handleTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	message := fmt.Sprintf("Task %d '%s' created for owner %s", event.TaskID, event.Description, event.OwnerID)
	if event.DueAt != nil {
		message += fmt.Sprintf(", due %s", event.DueAt.UTC().Format(time.RFC3339))
	}
	m.logNotification(event.TaskID, event.OwnerID, "task_created", message, event.CreatedAt)
	return nil
}

func (m *NotificationModule) handleTaskCompleted(_ context.Context, event events.TaskCompletedEvent, _ *mono.Msg) error {
	m.logNotification(event.TaskID, event.OwnerID, "task_completed",
		fmt.Sprintf("Task %d '%s' completed", event.TaskID, event.Description), event.CompletedAt)
	return nil
}

func (m *NotificationModule) handleTaskDeleted(_ context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	m.logNotification(event.TaskID, event.OwnerID, "task_deleted",
		fmt.Sprintf("Task %d deleted", event.TaskID), event.DeletedAt)
	return nil
}

func (m *NotificationModule) handleReminderSent(_ context.Context, event events.ReminderSentEvent, _ *mono.Msg) error {
	m.logNotification(event.TaskID, event.OwnerID, "reminder_sent",
		fmt.Sprintf("Reminder %s sent for task %d to conversation %s", event.Threshold, event.TaskID, event.ConversationID), event.SentAt)
	return nil
}

func (m *NotificationModule) logNotification(taskID uint, ownerID, notificationType, message string, at time.Time) {
	if at.IsZero() {
		at = time.Now()
	}
	log.Printf("[notification] %s: %s", notificationType, message)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.notifications = append(m.notifications, NotificationLog{
		ID:        uuid.New().String(),
		TaskID:    taskID,
		OwnerID:   ownerID,
		Type:      notificationType,
		Message:   message,
		Channel:   "event",
		Timestamp: at.UTC(),
	})
	if overflow := len(m.notifications) - m.capacity; overflow > 0 {
		m.notifications = append(m.notifications[:0:0], m.notifications[overflow:]...)
	}
}

// GetNotifications returns the feed, oldest first. A non-empty ownerID
// filters to that owner's entries.
func (m *NotificationModule) GetNotifications(ownerID string) []NotificationLog {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]NotificationLog, 0, len(m.notifications))
	for _, n := range m.notifications {
		if ownerID == "" || n.OwnerID == ownerID {
			result = append(result, n)
		}
	}
	return result
}

func (m *NotificationModule) Start(_ context.Context) error {
	log.Println("[notification] Module started - listening for task and reminder events")
	return nil
}

func (m *NotificationModule) Stop(_ context.Context) error {
	log.Println("[notification] Module stopped")
	return nil
}

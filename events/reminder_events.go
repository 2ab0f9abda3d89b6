package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// ReminderSentEvent is emitted after a deadline notification was delivered
// and its threshold recorded.
type ReminderSentEvent struct {
	TaskID         uint      `json:"task_id"`
	OwnerID        string    `json:"owner_id"`
	ConversationID string    `json:"conversation_id"`
	Threshold      string    `json:"threshold"`
	DueAt          time.Time `json:"due_at"`
	SentAt         time.Time `json:"sent_at"`
}

// ReminderSentV1 is the typed event definition for delivered reminders.
// Subject: events.sweeper.v1.reminder-sent
var ReminderSentV1 = helper.EventDefinition[ReminderSentEvent](
	"sweeper", "ReminderSent", "v1",
)

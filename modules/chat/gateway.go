package chat

import (
	"context"

	"github.com/example/task-reminder-bot/domain/task"
)

// Button is an inline affordance attached to a message.
type Button struct {
	Text string `json:"text"`
	Data string `json:"data"`
}

// Keyboard is a grid of buttons, one slice per row.
type Keyboard [][]Button

// MessageRef identifies a delivered message so it can be edited later.
type MessageRef struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
}

// Gateway delivers outbound text to conversations. Failures wrap
// task.ErrDelivery.
type Gateway interface {
	SendMessage(ctx context.Context, conversationID, text string, keyboard Keyboard) (MessageRef, error)
	EditMessage(ctx context.Context, ref MessageRef, text string, keyboard Keyboard) error
}

// TaskKeyboard returns the Done/Delete buttons for a task.
func TaskKeyboard(id uint) Keyboard {
	return Keyboard{{
		{Text: "✅ Done", Data: task.CallbackData(task.ButtonDone, id)},
		{Text: "🗑️ Delete", Data: task.CallbackData(task.ButtonDelete, id)},
	}}
}

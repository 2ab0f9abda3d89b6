package api

import (
	"encoding/json"

	"github.com/example/task-reminder-bot/modules/chat"
	"github.com/example/task-reminder-bot/modules/notification"
	"github.com/example/task-reminder-bot/modules/sweeper"
	"github.com/example/task-reminder-bot/modules/task"
)

// CommandRequest is the HTTP request for running a chat command.
type CommandRequest struct {
	OwnerID string `json:"owner_id"`
	Text    string `json:"text"`
}

// CommandResponse carries the messages a command produced, in order.
type CommandResponse struct {
	Messages []Outgoing `json:"messages"`
}

// ButtonPressRequest is the HTTP request for pressing an inline button.
type ButtonPressRequest struct {
	OwnerID string `json:"owner_id"`
	Data    string `json:"data"`
}

// ToolCallRequest is the HTTP request for a conversational tool call.
type ToolCallRequest struct {
	OwnerID        string          `json:"owner_id"`
	ConversationID string          `json:"conversation_id"`
	Name           string          `json:"name"`
	Arguments      json.RawMessage `json:"arguments,omitempty"`
}

// ToolCallResponse is the HTTP response for a tool call.
type ToolCallResponse struct {
	Result  string       `json:"result"`
	Outcome task.Outcome `json:"outcome"`
	TaskID  uint         `json:"task_id,omitempty"`
}

// NotificationsResponse is the HTTP response for the audit feed.
type NotificationsResponse struct {
	Notifications []notification.NotificationLog `json:"notifications"`
	Total         int                            `json:"total"`
}

// SweepResponse is the HTTP response for an on-demand sweep.
type SweepResponse struct {
	Report sweeper.Report `json:"report"`
}

// InboundFrame is a message received from a chat websocket client.
type InboundFrame struct {
	Type      string          `json:"type"` // "text", "button" or "action"
	Text      string          `json:"text,omitempty"`
	Data      string          `json:"data,omitempty"`
	MessageID string          `json:"message_id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Outgoing is one message to deliver to a conversation.
type Outgoing struct {
	Text     string        `json:"text"`
	Keyboard chat.Keyboard `json:"keyboard,omitempty"`
}

// HealthResponse is the HTTP response for health check.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorResponse is the HTTP response for errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

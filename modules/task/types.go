package task

import (
	"context"
	"encoding/json"
)

// Outcome classifies a Reply so transports can react without parsing text.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeNoop     Outcome = "noop"
	OutcomeInvalid  Outcome = "invalid"
	OutcomeNotFound Outcome = "not_found"
	OutcomeFailed   Outcome = "failed"
)

// Reply is the user-facing result of a lifecycle operation. The same text
// is returned to command and conversational callers.
type Reply struct {
	Text    string  `json:"text"`
	Outcome Outcome `json:"outcome"`
	TaskID  uint    `json:"task_id,omitempty"`
}

// ButtonReply is the edit-in-place text for an inline button press.
type ButtonReply struct {
	Text        string  `json:"text"`
	Outcome     Outcome `json:"outcome"`
	TaskID      uint    `json:"task_id,omitempty"`
	KeepButtons bool    `json:"keep_buttons"`
}

// Card is one pending task rendered for a message with inline buttons.
type Card struct {
	TaskID uint   `json:"task_id"`
	Text   string `json:"text"`
}

// CardsReply lists pending tasks as individual cards.
type CardsReply struct {
	Header  string  `json:"header"`
	Cards   []Card  `json:"cards"`
	Note    string  `json:"note,omitempty"`
	Outcome Outcome `json:"outcome"`
}

// AddTaskRequest is the request for adding a task. DueDate is free text.
type AddTaskRequest struct {
	OwnerID        string `json:"owner_id"`
	ConversationID string `json:"conversation_id"`
	Description    string `json:"description"`
	DueDate        string `json:"due_date,omitempty"`
}

// ListTasksRequest is the request for listing tasks.
type ListTasksRequest struct {
	OwnerID string `json:"owner_id"`
	Status  string `json:"status,omitempty"`
}

// TaskRefRequest addresses one task of an owner.
type TaskRefRequest struct {
	OwnerID string `json:"owner_id"`
	TaskID  uint   `json:"task_id"`
}

// ButtonRequest carries the payload of a pressed inline button.
type ButtonRequest struct {
	OwnerID string `json:"owner_id"`
	Data    string `json:"data"`
}

// CardsRequest is the request for pending task cards.
type CardsRequest struct {
	OwnerID string `json:"owner_id"`
}

// TimezoneRequest is the request for reading or changing a timezone.
type TimezoneRequest struct {
	OwnerID  string `json:"owner_id"`
	Timezone string `json:"timezone,omitempty"`
}

// ToolCallRequest is a structured action produced by the conversational layer.
type ToolCallRequest struct {
	OwnerID        string          `json:"owner_id"`
	ConversationID string          `json:"conversation_id"`
	Name           string          `json:"name"`
	Arguments      json.RawMessage `json:"arguments,omitempty"`
}

// TaskPort defines the interface for task operations (hexagonal port).
// Errors are transport failures only; domain outcomes travel in the reply.
type TaskPort interface {
	AddTask(ctx context.Context, req *AddTaskRequest) (*Reply, error)
	ListTasks(ctx context.Context, ownerID, status string) (*Reply, error)
	CompleteTask(ctx context.Context, ownerID string, taskID uint) (*Reply, error)
	DeleteTask(ctx context.Context, ownerID string, taskID uint) (*Reply, error)
	PressButton(ctx context.Context, ownerID, data string) (*ButtonReply, error)
	TaskCards(ctx context.Context, ownerID string) (*CardsReply, error)
	SetTimezone(ctx context.Context, ownerID, zone string) (*Reply, error)
	ShowTimezone(ctx context.Context, ownerID string) (*Reply, error)
	Dispatch(ctx context.Context, req *ToolCallRequest) (*Reply, error)
}

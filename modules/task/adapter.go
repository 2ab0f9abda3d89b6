package task

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// taskAdapter wraps ServiceContainer for type-safe cross-module communication.
// This is the adapter that implements the TaskPort interface.
type taskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates a new adapter for task services.
// container is the ServiceContainer from the task module received via SetDependencyServiceContainer.
func NewTaskAdapter(container mono.ServiceContainer) TaskPort {
	if container == nil {
		panic("task adapter requires non-nil ServiceContainer")
	}
	return &taskAdapter{container: container}
}

// AddTask adds a task via the add-task service.
func (a *taskAdapter) AddTask(ctx context.Context, req *AddTaskRequest) (*Reply, error) {
	var resp Reply
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"add-task",
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("add-task service call failed: %w", err)
	}
	return &resp, nil
}

// ListTasks renders an owner's tasks via the list-tasks service.
func (a *taskAdapter) ListTasks(ctx context.Context, ownerID, status string) (*Reply, error) {
	req := ListTasksRequest{OwnerID: ownerID, Status: status}
	var resp Reply
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"list-tasks",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("list-tasks service call failed: %w", err)
	}
	return &resp, nil
}

// CompleteTask marks a task done via the complete-task service.
func (a *taskAdapter) CompleteTask(ctx context.Context, ownerID string, taskID uint) (*Reply, error) {
	req := TaskRefRequest{OwnerID: ownerID, TaskID: taskID}
	var resp Reply
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"complete-task",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("complete-task service call failed: %w", err)
	}
	return &resp, nil
}

// DeleteTask removes a task via the delete-task service.
func (a *taskAdapter) DeleteTask(ctx context.Context, ownerID string, taskID uint) (*Reply, error) {
	req := TaskRefRequest{OwnerID: ownerID, TaskID: taskID}
	var resp Reply
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"delete-task",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("delete-task service call failed: %w", err)
	}
	return &resp, nil
}

// PressButton handles an inline button via the press-button service.
func (a *taskAdapter) PressButton(ctx context.Context, ownerID, data string) (*ButtonReply, error) {
	req := ButtonRequest{OwnerID: ownerID, Data: data}
	var resp ButtonReply
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"press-button",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("press-button service call failed: %w", err)
	}
	return &resp, nil
}

// TaskCards lists pending task cards via the task-cards service.
func (a *taskAdapter) TaskCards(ctx context.Context, ownerID string) (*CardsReply, error) {
	req := CardsRequest{OwnerID: ownerID}
	var resp CardsReply
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"task-cards",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("task-cards service call failed: %w", err)
	}
	return &resp, nil
}

// SetTimezone changes the owner's zone via the set-timezone service.
func (a *taskAdapter) SetTimezone(ctx context.Context, ownerID, zone string) (*Reply, error) {
	req := TimezoneRequest{OwnerID: ownerID, Timezone: zone}
	var resp Reply
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"set-timezone",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("set-timezone service call failed: %w", err)
	}
	return &resp, nil
}

// ShowTimezone reports the owner's zone via the show-timezone service.
func (a *taskAdapter) ShowTimezone(ctx context.Context, ownerID string) (*Reply, error) {
	req := TimezoneRequest{OwnerID: ownerID}
	var resp Reply
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"show-timezone",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("show-timezone service call failed: %w", err)
	}
	return &resp, nil
}

// Dispatch runs a conversational tool call via the dispatch service.
func (a *taskAdapter) Dispatch(ctx context.Context, req *ToolCallRequest) (*Reply, error) {
	var resp Reply
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"dispatch",
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("dispatch service call failed: %w", err)
	}
	return &resp, nil
}

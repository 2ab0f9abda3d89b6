package task

import (
	"context"

	"github.com/go-monolith/mono"
)

// addTask handles the add-task service request.
func (m *TaskModule) addTask(ctx context.Context, req AddTaskRequest, _ *mono.Msg) (Reply, error) {
	return m.manager.Add(ctx, req), nil
}

// listTasks handles the list-tasks service request.
func (m *TaskModule) listTasks(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (Reply, error) {
	return m.manager.List(ctx, req.OwnerID, req.Status), nil
}

// completeTask handles the complete-task service request.
func (m *TaskModule) completeTask(ctx context.Context, req TaskRefRequest, _ *mono.Msg) (Reply, error) {
	return m.manager.Complete(ctx, req.OwnerID, req.TaskID), nil
}

// deleteTask handles the delete-task service request.
func (m *TaskModule) deleteTask(ctx context.Context, req TaskRefRequest, _ *mono.Msg) (Reply, error) {
	return m.manager.Delete(ctx, req.OwnerID, req.TaskID), nil
}

// pressButton handles the press-button service request.
func (m *TaskModule) pressButton(ctx context.Context, req ButtonRequest, _ *mono.Msg) (ButtonReply, error) {
	return m.manager.PressButton(ctx, req.OwnerID, req.Data), nil
}

// taskCards handles the task-cards service request.
func (m *TaskModule) taskCards(ctx context.Context, req CardsRequest, _ *mono.Msg) (CardsReply, error) {
	return m.manager.Cards(ctx, req.OwnerID), nil
}

// setTimezone handles the set-timezone service request.
func (m *TaskModule) setTimezone(ctx context.Context, req TimezoneRequest, _ *mono.Msg) (Reply, error) {
	return m.manager.SetTimezone(ctx, req.OwnerID, req.Timezone), nil
}

// showTimezone handles the show-timezone service request.
func (m *TaskModule) showTimezone(ctx context.Context, req TimezoneRequest, _ *mono.Msg) (Reply, error) {
	return m.manager.ShowTimezone(ctx, req.OwnerID), nil
}

// dispatch handles the dispatch service request from the conversational layer.
func (m *TaskModule) dispatch(ctx context.Context, req ToolCallRequest, _ *mono.Msg) (Reply, error) {
	return m.manager.DispatchToolCall(ctx, req), nil
}

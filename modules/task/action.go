package task

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	domain "github.com/example/task-reminder-bot/domain/task"
)

// Tool names accepted from the conversational layer.
const (
	ToolAddTask      = "add_task"
	ToolListTasks    = "list_tasks"
	ToolMarkTaskDone = "mark_task_done"
	ToolDeleteTask   = "delete_task"
)

// Action is one of AddTask, ListTasks, CompleteTask or DeleteTask.
type Action interface {
	ToolName() string
	isAction()
}

// AddTask adds a task; DueDate is free text resolved in the owner's zone.
type AddTask struct {
	Description string `json:"description"`
	DueDate     string `json:"due_date,omitempty"`
}

// ListTasks lists tasks with the given status, pending by default.
type ListTasks struct {
	Status string `json:"status,omitempty"`
}

// CompleteTask marks a task done.
type CompleteTask struct {
	TaskID uint `json:"task_id"`
}

// DeleteTask removes a task.
type DeleteTask struct {
	TaskID uint `json:"task_id"`
}

func (AddTask) ToolName() string      { return ToolAddTask }
func (ListTasks) ToolName() string    { return ToolListTasks }
func (CompleteTask) ToolName() string { return ToolMarkTaskDone }
func (DeleteTask) ToolName() string   { return ToolDeleteTask }

func (AddTask) isAction()      {}
func (ListTasks) isAction()    {}
func (CompleteTask) isAction() {}
func (DeleteTask) isAction()   {}

type decoder func(args map[string]any) (Action, error)

var decoders = map[string]decoder{
	ToolAddTask: func(args map[string]any) (Action, error) {
		desc, _ := args["description"].(string)
		due, _ := args["due_date"].(string)
		return AddTask{Description: desc, DueDate: due}, nil
	},
	ToolListTasks: func(args map[string]any) (Action, error) {
		status, _ := args["status"].(string)
		return ListTasks{Status: status}, nil
	},
	ToolMarkTaskDone: func(args map[string]any) (Action, error) {
		id, err := taskID(args["task_id"])
		if err != nil {
			return nil, err
		}
		return CompleteTask{TaskID: id}, nil
	},
	ToolDeleteTask: func(args map[string]any) (Action, error) {
		id, err := taskID(args["task_id"])
		if err != nil {
			return nil, err
		}
		return DeleteTask{TaskID: id}, nil
	},
}

// ParseToolCall decodes a named tool call into an Action.
func ParseToolCall(name string, raw json.RawMessage) (Action, error) {
	dec, ok := decoders[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown action %q", domain.ErrValidation, name)
	}

	args := map[string]any{}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("%w: invalid arguments for %s: %v", domain.ErrValidation, name, err)
		}
	}
	return dec(args)
}

// taskID accepts a JSON number or a numeric string.
func taskID(v any) (uint, error) {
	switch id := v.(type) {
	case float64:
		if id >= 1 && id == math.Trunc(id) && id <= math.MaxUint32 {
			return uint(id), nil
		}
	case string:
		n, err := strconv.ParseUint(strings.TrimSpace(id), 10, 64)
		if err == nil && n > 0 {
			return uint(n), nil
		}
	}
	return 0, fmt.Errorf("%w: task_id must be a positive integer, got %v", domain.ErrValidation, v)
}

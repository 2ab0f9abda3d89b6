package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	domain "github.com/example/task-reminder-bot/domain/task"
	"github.com/example/task-reminder-bot/events"
	"github.com/example/task-reminder-bot/modules/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// TaskModule exposes the task lifecycle as request-reply services.
type TaskModule struct {
	repo      domain.Repository
	dates     DueResolver
	cardLimit int
	manager   *Manager
	userPort  user.UserPort
	eventBus  mono.EventBus
}

var _ mono.Module = (*TaskModule)(nil)
var _ mono.ServiceProviderModule = (*TaskModule)(nil)
var _ mono.DependentModule = (*TaskModule)(nil)
var _ mono.EventEmitterModule = (*TaskModule)(nil)

func NewModule(repo domain.Repository, dates DueResolver, cardLimit int) *TaskModule {
	return &TaskModule{
		repo:      repo,
		dates:     dates,
		cardLimit: cardLimit,
	}
}

func (m *TaskModule) Name() string {
	return "task"
}

func (m *TaskModule) Dependencies() []string {
	return []string{"user"}
}

func (m *TaskModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "user" {
		m.userPort = user.NewUserAdapter(container)
	}
}

func (m *TaskModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

func (m *TaskModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskCompletedV1.ToBase(),
		events.TaskDeletedV1.ToBase(),
	}
}

func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "add-task", json.Unmarshal, json.Marshal, m.addTask,
	); err != nil {
		return fmt.Errorf("failed to register add-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-tasks", json.Unmarshal, json.Marshal, m.listTasks,
	); err != nil {
		return fmt.Errorf("failed to register list-tasks service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "complete-task", json.Unmarshal, json.Marshal, m.completeTask,
	); err != nil {
		return fmt.Errorf("failed to register complete-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-task", json.Unmarshal, json.Marshal, m.deleteTask,
	); err != nil {
		return fmt.Errorf("failed to register delete-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "press-button", json.Unmarshal, json.Marshal, m.pressButton,
	); err != nil {
		return fmt.Errorf("failed to register press-button service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "task-cards", json.Unmarshal, json.Marshal, m.taskCards,
	); err != nil {
		return fmt.Errorf("failed to register task-cards service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "set-timezone", json.Unmarshal, json.Marshal, m.setTimezone,
	); err != nil {
		return fmt.Errorf("failed to register set-timezone service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "show-timezone", json.Unmarshal, json.Marshal, m.showTimezone,
	); err != nil {
		return fmt.Errorf("failed to register show-timezone service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "dispatch", json.Unmarshal, json.Marshal, m.dispatch,
	); err != nil {
		return fmt.Errorf("failed to register dispatch service: %w", err)
	}

	log.Printf("[task] Registered services: add-task, list-tasks, complete-task, delete-task, press-button, task-cards, set-timezone, show-timezone, dispatch")
	return nil
}

func (m *TaskModule) Start(_ context.Context) error {
	if m.userPort == nil {
		return fmt.Errorf("userPort dependency not set")
	}
	if m.repo == nil {
		return fmt.Errorf("task repository not set")
	}

	m.manager = NewManager(m.repo, m.userPort, m.dates, m.cardLimit)
	if m.eventBus != nil {
		m.manager.SetEventBus(m.eventBus)
	} else {
		log.Println("[task] Warning: eventBus not set, events will not be published")
	}

	log.Println("[task] Module started (depends on: user)")
	return nil
}

func (m *TaskModule) Stop(_ context.Context) error {
	log.Println("[task] Module stopped")
	return nil
}

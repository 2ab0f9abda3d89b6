package task

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	domain "github.com/example/task-reminder-bot/domain/task"
	"github.com/example/task-reminder-bot/domain/timezone"
	"github.com/example/task-reminder-bot/events"
	"github.com/example/task-reminder-bot/modules/user"
	"github.com/go-monolith/mono"
)

const defaultCardLimit = 20

// DueResolver turns free-text due dates into instants.
type DueResolver interface {
	Resolve(text string, loc *time.Location, now time.Time) (time.Time, bool)
}

// Manager implements the task lifecycle: add, list, complete and delete,
// plus the inline button and timezone operations built on them.
type Manager struct {
	repo      domain.Repository
	zones     user.UserPort
	dates     DueResolver
	eventBus  mono.EventBus
	now       func() time.Time
	cardLimit int
}

// NewManager creates a Manager. A non-positive cardLimit uses the default.
func NewManager(repo domain.Repository, zones user.UserPort, dates DueResolver, cardLimit int) *Manager {
	if cardLimit <= 0 {
		cardLimit = defaultCardLimit
	}
	return &Manager{
		repo:      repo,
		zones:     zones,
		dates:     dates,
		now:       time.Now,
		cardLimit: cardLimit,
	}
}

// SetEventBus enables lifecycle event publishing.
func (m *Manager) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// Add creates a task. An unparseable due date still creates the task,
// without a deadline.
func (m *Manager) Add(ctx context.Context, req AddTaskRequest) Reply {
	if req.OwnerID == "" || req.ConversationID == "" {
		return Reply{Text: "Error: missing user or conversation context.", Outcome: OutcomeInvalid}
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return Reply{Text: "Error: a task description is required.", Outcome: OutcomeInvalid}
	}

	zone := m.zoneFor(ctx, req.OwnerID)
	loc := timezone.Resolve(zone)

	var dueAt *time.Time
	unparsed := false
	if raw := strings.TrimSpace(req.DueDate); raw != "" {
		if at, ok := m.dates.Resolve(raw, loc, m.now()); ok {
			dueAt = &at
		} else {
			log.Printf("[task] Could not understand due date %q for owner %s", raw, req.OwnerID)
			unparsed = true
		}
	}

	created, err := m.repo.CreateTask(ctx, req.OwnerID, req.ConversationID, description, dueAt)
	if err != nil {
		log.Printf("[task] Error adding task for owner %s: %v", req.OwnerID, err)
		return Reply{Text: "Sorry, I failed to add the task to the database.", Outcome: OutcomeFailed}
	}

	if m.eventBus != nil {
		event := events.TaskCreatedEvent{
			TaskID:         created.ID,
			OwnerID:        created.OwnerID,
			ConversationID: created.ConversationID,
			Description:    created.Description,
			DueAt:          created.DueAt,
			CreatedAt:      created.CreatedAt,
		}
		if err := events.TaskCreatedV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[task] Warning: failed to publish TaskCreated event for task %d: %v", created.ID, err)
		}
	}

	text := fmt.Sprintf("Okay, I've added task '%s' (ID: %d).", created.Description, created.ID)
	switch {
	case created.DueAt != nil:
		text += fmt.Sprintf(" Due date is set to %s.", timezone.Format(created.DueAt, loc))
	case unparsed:
		text += " I couldn't understand the due date, so none was set."
	default:
		text += " No due date was set."
	}
	return Reply{Text: text, Outcome: OutcomeOK, TaskID: created.ID}
}

// List renders the owner's tasks with the given status.
func (m *Manager) List(ctx context.Context, ownerID, status string) Reply {
	if ownerID == "" {
		return Reply{Text: "Error: missing user context.", Outcome: OutcomeInvalid}
	}
	st := domain.ParseStatus(status)

	tasks, err := m.repo.TasksByOwner(ctx, ownerID, st)
	if err != nil {
		log.Printf("[task] Error listing tasks for owner %s: %v", ownerID, err)
		return Reply{Text: "Sorry, couldn't retrieve tasks due to a database error.", Outcome: OutcomeFailed}
	}
	if len(tasks) == 0 {
		return Reply{Text: fmt.Sprintf("You have no %s tasks! 🎉", st), Outcome: OutcomeOK}
	}

	zone := m.zoneFor(ctx, ownerID)
	loc := timezone.Resolve(zone)

	var b strings.Builder
	fmt.Fprintf(&b, "OK. Your %s tasks (Times in %s):\n\n", st, zone)
	for _, t := range tasks {
		fmt.Fprintf(&b, "- ID: %d - %s", t.ID, t.Description)
		if t.DueAt != nil {
			fmt.Fprintf(&b, " (Due: %s)", timezone.Format(t.DueAt, loc))
		}
		b.WriteString("\n")
	}
	return Reply{Text: strings.TrimRight(b.String(), "\n"), Outcome: OutcomeOK}
}

// Complete marks a task done. Completing a done task changes nothing.
func (m *Manager) Complete(ctx context.Context, ownerID string, id uint) Reply {
	if ownerID == "" || id == 0 {
		return Reply{Text: "Error: missing task ID or user context.", Outcome: OutcomeInvalid}
	}

	t, reply, ok := m.lookup(ctx, ownerID, id)
	if !ok {
		return reply
	}
	if t.Status == domain.StatusDone {
		return Reply{Text: fmt.Sprintf("Task %d ('%s') is already done.", id, t.Description), Outcome: OutcomeNoop, TaskID: id}
	}

	if err := m.markDone(ctx, t); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Reply{Text: fmt.Sprintf("❌ Failed to mark task %d as done (it might have been deleted).", id), Outcome: OutcomeNotFound, TaskID: id}
		}
		return Reply{Text: fmt.Sprintf("❌ Failed to mark task %d as done.", id), Outcome: OutcomeFailed, TaskID: id}
	}
	return Reply{Text: fmt.Sprintf("✅ Marked task %d ('%s') as done.", id, t.Description), Outcome: OutcomeOK, TaskID: id}
}

// Delete removes a task permanently.
func (m *Manager) Delete(ctx context.Context, ownerID string, id uint) Reply {
	if ownerID == "" || id == 0 {
		return Reply{Text: "Error: missing task ID or user context.", Outcome: OutcomeInvalid}
	}

	description := ""
	t, err := m.repo.GetTask(ctx, id, ownerID)
	switch {
	case err == nil:
		description = t.Description
	case !errors.Is(err, domain.ErrNotFound):
		log.Printf("[task] Error loading task %d for owner %s: %v", id, ownerID, err)
		return Reply{Text: fmt.Sprintf("❌ Failed to delete task %d.", id), Outcome: OutcomeFailed, TaskID: id}
	}

	if err := m.remove(ctx, ownerID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return notFound(id)
		}
		return Reply{Text: fmt.Sprintf("❌ Failed to delete task %d.", id), Outcome: OutcomeFailed, TaskID: id}
	}

	if description == "" {
		return Reply{Text: fmt.Sprintf("🗑️ Deleted task %d.", id), Outcome: OutcomeOK, TaskID: id}
	}
	return Reply{Text: fmt.Sprintf("🗑️ Deleted task %d ('%s').", id, description), Outcome: OutcomeOK, TaskID: id}
}

// Cards renders pending tasks one per card, up to the card limit.
func (m *Manager) Cards(ctx context.Context, ownerID string) CardsReply {
	if ownerID == "" {
		return CardsReply{Header: "Error: missing user context.", Outcome: OutcomeInvalid}
	}

	tasks, err := m.repo.TasksByOwner(ctx, ownerID, domain.StatusPending)
	if err != nil {
		log.Printf("[task] Error listing tasks for owner %s: %v", ownerID, err)
		return CardsReply{Header: "Sorry, couldn't retrieve tasks due to a database error.", Outcome: OutcomeFailed}
	}
	if len(tasks) == 0 {
		return CardsReply{Header: "You have no pending tasks! 🎉", Outcome: OutcomeOK}
	}

	zone := m.zoneFor(ctx, ownerID)
	loc := timezone.Resolve(zone)

	reply := CardsReply{
		Header:  fmt.Sprintf("Pending tasks (Times in %s):", zone),
		Cards:   make([]Card, 0, min(len(tasks), m.cardLimit)),
		Outcome: OutcomeOK,
	}
	for i, t := range tasks {
		if i == m.cardLimit {
			reply.Note = fmt.Sprintf("Showing the first %d of %d tasks. Use /list to see all of them.", m.cardLimit, len(tasks))
			break
		}
		reply.Cards = append(reply.Cards, Card{TaskID: t.ID, Text: taskLine(t, loc)})
	}
	return reply
}

// PressButton handles a "done:<id>" or "delete:<id>" button. Tasks that
// are already done or gone are reported as such instead of failing.
func (m *Manager) PressButton(ctx context.Context, ownerID, data string) ButtonReply {
	action, id, err := domain.ParseCallback(data)
	if err != nil || ownerID == "" {
		return ButtonReply{Text: "⚠️ Error.", Outcome: OutcomeInvalid}
	}
	if action != domain.ButtonDone && action != domain.ButtonDelete {
		return ButtonReply{Text: "⚠️ Unknown action.", Outcome: OutcomeInvalid, TaskID: id}
	}

	t, err := m.repo.GetTask(ctx, id, ownerID)
	if errors.Is(err, domain.ErrNotFound) {
		return ButtonReply{Text: fmt.Sprintf("Task %d not found.", id), Outcome: OutcomeNotFound, TaskID: id}
	}
	if err != nil {
		log.Printf("[task] Error loading task %d for owner %s: %v", id, ownerID, err)
		return ButtonReply{Text: "⚠️ Error.", Outcome: OutcomeFailed, TaskID: id, KeepButtons: true}
	}
	line := taskLine(*t, timezone.Resolve(m.zoneFor(ctx, ownerID)))

	switch action {
	case domain.ButtonDone:
		if t.Status == domain.StatusDone {
			return ButtonReply{Text: fmt.Sprintf("✅ Done!\n~%s~", line), Outcome: OutcomeNoop, TaskID: id}
		}
		if err := m.markDone(ctx, t); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return ButtonReply{Text: fmt.Sprintf("Task %d not found.", id), Outcome: OutcomeNotFound, TaskID: id}
			}
			return ButtonReply{Text: fmt.Sprintf("⚠️ Failed to mark task %d as done.", id), Outcome: OutcomeFailed, TaskID: id, KeepButtons: true}
		}
		return ButtonReply{Text: fmt.Sprintf("✅ DONE: ~%s~", line), Outcome: OutcomeOK, TaskID: id}

	default:
		if err := m.remove(ctx, ownerID, id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return ButtonReply{Text: fmt.Sprintf("Task %d not found.", id), Outcome: OutcomeNotFound, TaskID: id}
			}
			return ButtonReply{Text: fmt.Sprintf("⚠️ Failed to delete task %d.", id), Outcome: OutcomeFailed, TaskID: id, KeepButtons: true}
		}
		return ButtonReply{Text: fmt.Sprintf("🗑️ Deleted: ~%s~", line), Outcome: OutcomeOK, TaskID: id}
	}
}

// SetTimezone stores the owner's zone preference.
func (m *Manager) SetTimezone(ctx context.Context, ownerID, zone string) Reply {
	zone = strings.TrimSpace(zone)
	if ownerID == "" || zone == "" {
		return Reply{Text: "Usage: /set_timezone <Area/City>\nExample: /set_timezone Asia/Tashkent", Outcome: OutcomeInvalid}
	}

	if err := m.zones.SetTimezone(ctx, ownerID, zone); err != nil {
		if errors.Is(err, domain.ErrInvalidTimezone) {
			return Reply{
				Text:    fmt.Sprintf("❌ Invalid timezone: '%s'.\nUse an IANA name like Europe/Berlin. Full list: https://en.wikipedia.org/wiki/List_of_tz_database_time_zones", zone),
				Outcome: OutcomeInvalid,
			}
		}
		log.Printf("[task] Error saving timezone for owner %s: %v", ownerID, err)
		return Reply{Text: "❌ Failed to save timezone.", Outcome: OutcomeFailed}
	}

	now := m.now()
	return Reply{
		Text:    fmt.Sprintf("✅ Timezone set: %s\nCurrent time: %s", zone, timezone.Format(&now, timezone.Resolve(zone))),
		Outcome: OutcomeOK,
	}
}

// ShowTimezone reports the owner's zone and local time.
func (m *Manager) ShowTimezone(ctx context.Context, ownerID string) Reply {
	if ownerID == "" {
		return Reply{Text: "Error: missing user context.", Outcome: OutcomeInvalid}
	}
	zone := m.zoneFor(ctx, ownerID)
	now := m.now()
	return Reply{
		Text:    fmt.Sprintf("Your timezone: %s\nCurrent time: %s", zone, timezone.Format(&now, timezone.Resolve(zone))),
		Outcome: OutcomeOK,
	}
}

// Dispatch runs a parsed conversational action.
func (m *Manager) Dispatch(ctx context.Context, ownerID, conversationID string, action Action) Reply {
	switch a := action.(type) {
	case AddTask:
		return m.Add(ctx, AddTaskRequest{
			OwnerID:        ownerID,
			ConversationID: conversationID,
			Description:    a.Description,
			DueDate:        a.DueDate,
		})
	case ListTasks:
		return m.List(ctx, ownerID, a.Status)
	case CompleteTask:
		return m.Complete(ctx, ownerID, a.TaskID)
	case DeleteTask:
		return m.Delete(ctx, ownerID, a.TaskID)
	default:
		return Reply{Text: "Sorry, I can't do that.", Outcome: OutcomeInvalid}
	}
}

// DispatchToolCall parses and runs a named tool call.
func (m *Manager) DispatchToolCall(ctx context.Context, req ToolCallRequest) Reply {
	action, err := ParseToolCall(req.Name, req.Arguments)
	if err != nil {
		log.Printf("[task] Rejected tool call %q from owner %s: %v", req.Name, req.OwnerID, err)
		if _, known := decoders[req.Name]; !known {
			return Reply{Text: fmt.Sprintf("Sorry, I don't know how to %q.", req.Name), Outcome: OutcomeInvalid}
		}
		return Reply{Text: "Error: missing task ID or user context.", Outcome: OutcomeInvalid}
	}
	return m.Dispatch(ctx, req.OwnerID, req.ConversationID, action)
}

func (m *Manager) lookup(ctx context.Context, ownerID string, id uint) (*domain.Task, Reply, bool) {
	t, err := m.repo.GetTask(ctx, id, ownerID)
	if err == nil {
		return t, Reply{}, true
	}
	if errors.Is(err, domain.ErrNotFound) {
		return nil, notFound(id), false
	}
	log.Printf("[task] Error loading task %d for owner %s: %v", id, ownerID, err)
	return nil, Reply{Text: fmt.Sprintf("Sorry, something went wrong while looking up task %d.", id), Outcome: OutcomeFailed, TaskID: id}, false
}

func (m *Manager) markDone(ctx context.Context, t *domain.Task) error {
	if err := m.repo.SetStatus(ctx, t.ID, t.OwnerID, domain.StatusDone); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Printf("[task] Error completing task %d: %v", t.ID, err)
		}
		return err
	}

	if m.eventBus != nil {
		event := events.TaskCompletedEvent{
			TaskID:      t.ID,
			OwnerID:     t.OwnerID,
			Description: t.Description,
			CompletedAt: m.now(),
		}
		if err := events.TaskCompletedV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[task] Warning: failed to publish TaskCompleted event for task %d: %v", t.ID, err)
		}
	}
	return nil
}

func (m *Manager) remove(ctx context.Context, ownerID string, id uint) error {
	if err := m.repo.DeleteTask(ctx, id, ownerID); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Printf("[task] Error deleting task %d: %v", id, err)
		}
		return err
	}

	if m.eventBus != nil {
		event := events.TaskDeletedEvent{
			TaskID:    id,
			OwnerID:   ownerID,
			DeletedAt: m.now(),
		}
		if err := events.TaskDeletedV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[task] Warning: failed to publish TaskDeleted event for task %d: %v", id, err)
		}
	}
	return nil
}

// zoneFor never fails; lookup errors fall back to the reference zone.
func (m *Manager) zoneFor(ctx context.Context, ownerID string) string {
	zone, err := m.zones.Timezone(ctx, ownerID)
	if err != nil {
		log.Printf("[task] Warning: timezone lookup failed for owner %s: %v", ownerID, err)
		return timezone.Reference
	}
	return timezone.Name(zone)
}

func notFound(id uint) Reply {
	return Reply{Text: fmt.Sprintf("Sorry, I couldn't find task ID %d.", id), Outcome: OutcomeNotFound, TaskID: id}
}

func taskLine(t domain.Task, loc *time.Location) string {
	return fmt.Sprintf("📌 ID: %d - %s (Due: %s)", t.ID, t.Description, timezone.Format(t.DueAt, loc))
}

package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/example/task-reminder-bot/domain/reminder"
	"github.com/example/task-reminder-bot/domain/task"
	"github.com/example/task-reminder-bot/events"
	"github.com/example/task-reminder-bot/modules/chat"
	"github.com/go-monolith/mono"
	"golang.org/x/sync/errgroup"
)

// Store is the part of the task repository the sweeper needs.
type Store interface {
	PendingWithDueDates(ctx context.Context) ([]task.DueTask, error)
	MarkThresholdFired(ctx context.Context, id uint, key reminder.Key) (bool, error)
}

// Config tunes a Sweeper.
type Config struct {
	Concurrency     int
	DeliveryTimeout time.Duration
}

const (
	defaultConcurrency     = 4
	defaultDeliveryTimeout = 10 * time.Second
)

// Report summarizes one sweep.
type Report struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Checked   int           `json:"checked"`
	Fired     int           `json:"fired"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Gone      int           `json:"gone"`
}

// Sweeper sends deadline reminders for pending tasks. Each task is handled
// independently: one failed delivery never stops the rest of the batch.
type Sweeper struct {
	store    Store
	gateway  chat.Gateway
	eventBus mono.EventBus
	cfg      Config
}

// New creates a Sweeper. Zero config values use defaults.
func New(store Store, gateway chat.Gateway, cfg Config) *Sweeper {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.DeliveryTimeout <= 0 {
		cfg.DeliveryTimeout = defaultDeliveryTimeout
	}
	return &Sweeper{store: store, gateway: gateway, cfg: cfg}
}

// SetEventBus enables ReminderSent events.
func (s *Sweeper) SetEventBus(bus mono.EventBus) {
	s.eventBus = bus
}

type outcome int

const (
	skipped outcome = iota
	fired
	failed
	gone
)

// Sweep evaluates every pending task with a due date at instant now.
// A storage failure while loading the batch is returned; per-task failures
// are only logged and counted.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (Report, error) {
	report := Report{StartedAt: now}
	start := time.Now()

	due, err := s.store.PendingWithDueDates(ctx)
	if err != nil {
		log.Printf("[sweeper] Error loading pending tasks: %v", err)
		return report, err
	}
	report.Checked = len(due)

	var counts [4]atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, dt := range due {
		g.Go(func() error {
			counts[s.process(gctx, dt, now)].Add(1)
			return nil
		})
	}
	_ = g.Wait()

	report.Skipped = int(counts[skipped].Load())
	report.Fired = int(counts[fired].Load())
	report.Failed = int(counts[failed].Load())
	report.Gone = int(counts[gone].Load())
	report.Duration = time.Since(start)
	return report, nil
}

func (s *Sweeper) process(ctx context.Context, dt task.DueTask, now time.Time) (result outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[sweeper] Panic while processing task %d: %v", dt.ID, r)
			result = failed
		}
	}()

	if dt.DueAt == nil {
		return skipped
	}
	th, ok := reminder.Next(now, *dt.DueAt, dt.Fired)
	if !ok {
		return skipped
	}

	text := reminder.Compose(th, dt.ID, dt.Description, *dt.DueAt, dt.Timezone)
	if err := s.deliver(ctx, dt.ConversationID, text, chat.TaskKeyboard(dt.ID)); err != nil {
		log.Printf("[sweeper] Failed to deliver %s reminder for task %d: %v", th.Key, dt.ID, err)
		return failed
	}

	marked, err := s.store.MarkThresholdFired(ctx, dt.ID, th.Key)
	if err != nil {
		// The reminder went out; it may be repeated on the next sweep.
		log.Printf("[sweeper] Failed to record %s for task %d: %v", th.Key, dt.ID, err)
		return failed
	}
	if !marked {
		log.Printf("[sweeper] Task %d was completed or removed during the sweep", dt.ID)
		return gone
	}

	log.Printf("[sweeper] Sent %s reminder for task %d to conversation %s", th.Key, dt.ID, dt.ConversationID)
	s.publish(dt, th, now)
	return fired
}

func (s *Sweeper) deliver(ctx context.Context, conversationID, text string, kb chat.Keyboard) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.DeliveryTimeout)
	defer cancel()

	_, err := s.gateway.SendMessage(ctx, conversationID, text, kb)
	if err != nil && !errors.Is(err, task.ErrDelivery) {
		err = fmt.Errorf("%w: %w", task.ErrDelivery, err)
	}
	return err
}

func (s *Sweeper) publish(dt task.DueTask, th reminder.Threshold, now time.Time) {
	if s.eventBus == nil {
		return
	}
	event := events.ReminderSentEvent{
		TaskID:         dt.ID,
		OwnerID:        dt.OwnerID,
		ConversationID: dt.ConversationID,
		Threshold:      string(th.Key),
		DueAt:          *dt.DueAt,
		SentAt:         now,
	}
	if err := events.ReminderSentV1.Publish(s.eventBus, event, nil); err != nil {
		log.Printf("[sweeper] Warning: failed to publish ReminderSent event for task %d: %v", dt.ID, err)
	}
}

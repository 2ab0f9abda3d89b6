package sweeper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/example/task-reminder-bot/domain/reminder"
	"github.com/example/task-reminder-bot/domain/task"
	"github.com/example/task-reminder-bot/modules/chat"
	"github.com/example/task-reminder-bot/modules/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	conversationID string
	text           string
	keyboard       chat.Keyboard
}

// fakeGateway records deliveries; conversations listed in fail are rejected.
type fakeGateway struct {
	mu    sync.Mutex
	sent  []sentMessage
	fail  map[string]bool
	panic map[string]bool
	block map[string]bool
}

func (g *fakeGateway) SendMessage(ctx context.Context, conversationID, text string, kb chat.Keyboard) (chat.MessageRef, error) {
	if g.panic[conversationID] {
		panic("gateway exploded")
	}
	if g.block[conversationID] {
		<-ctx.Done()
		return chat.MessageRef{}, ctx.Err()
	}
	if g.fail[conversationID] {
		return chat.MessageRef{}, fmt.Errorf("%w: no client for %s", task.ErrDelivery, conversationID)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, sentMessage{conversationID: conversationID, text: text, keyboard: kb})
	return chat.MessageRef{ConversationID: conversationID, MessageID: fmt.Sprint(len(g.sent))}, nil
}

func (g *fakeGateway) EditMessage(context.Context, chat.MessageRef, string, chat.Keyboard) error {
	return nil
}

func (g *fakeGateway) messages() []sentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]sentMessage, len(g.sent))
	copy(out, g.sent)
	return out
}

// fakeStore serves a fixed batch and records fired thresholds.
type fakeStore struct {
	mu      sync.Mutex
	tasks   []task.DueTask
	loadErr error
	markErr error
	gone    map[uint]bool
	marked  map[uint][]reminder.Key
}

func (s *fakeStore) PendingWithDueDates(context.Context) ([]task.DueTask, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]task.DueTask, len(s.tasks))
	copy(out, s.tasks)
	return out, nil
}

func (s *fakeStore) MarkThresholdFired(_ context.Context, id uint, key reminder.Key) (bool, error) {
	if s.markErr != nil {
		return false, s.markErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gone[id] {
		return false, nil
	}
	if s.marked == nil {
		s.marked = map[uint][]reminder.Key{}
	}
	s.marked[id] = append(s.marked[id], key)
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i].Fired = s.tasks[i].Fired.With(key)
		}
	}
	return true, nil
}

func dueTask(id uint, conv string, due time.Time, zone string) task.DueTask {
	return task.DueTask{
		Task: task.Task{
			ID:             id,
			OwnerID:        "owner-" + conv,
			ConversationID: conv,
			Description:    fmt.Sprintf("task %d", id),
			DueAt:          &due,
			Status:         task.StatusPending,
			Fired:          reminder.Set{},
		},
		Timezone: zone,
	}
}

var sweepNow = time.Date(2025, 5, 10, 11, 50, 0, 0, time.UTC)

func TestSweep_NearestThresholdOnly(t *testing.T) {
	st := &fakeStore{tasks: []task.DueTask{
		dueTask(1, "c1", sweepNow.Add(10*time.Minute), "Asia/Tashkent"),
	}}
	gw := &fakeGateway{}
	s := New(st, gw, Config{})

	report, err := s.Sweep(context.Background(), sweepNow)
	require.NoError(t, err)
	assert.Equal(t, Report{StartedAt: sweepNow, Duration: report.Duration, Checked: 1, Fired: 1}, report)

	msgs := gw.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "c1", msgs[0].conversationID)
	assert.Equal(t, "⏳ Reminder: Due in less than 15 minutes!\nID: 1\nDesc: task 1\nDue: 2025-05-10 17:00 (Asia/Tashkent)", msgs[0].text)
	assert.Equal(t, chat.TaskKeyboard(1), msgs[0].keyboard)
	assert.Equal(t, []reminder.Key{reminder.Key15m}, st.marked[1])
}

func TestSweep_OverdueFiresOnce(t *testing.T) {
	st := &fakeStore{tasks: []task.DueTask{
		dueTask(1, "c1", sweepNow.Add(-2*time.Hour), "UTC"),
	}}
	gw := &fakeGateway{}
	s := New(st, gw, Config{})

	first, err := s.Sweep(context.Background(), sweepNow)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Fired)

	second, err := s.Sweep(context.Background(), sweepNow.Add(15*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0, second.Fired)
	assert.Equal(t, 1, second.Skipped)

	msgs := gw.messages()
	require.Len(t, msgs, 1)
	assert.True(t, strings.HasPrefix(msgs[0].text, "🔔 DUE NOW or is OVERDUE!"))
	assert.Equal(t, []reminder.Key{reminder.KeyDue}, st.marked[1])
}

func TestSweep_FailureIsolation(t *testing.T) {
	st := &fakeStore{tasks: []task.DueTask{
		dueTask(1, "offline", sweepNow.Add(30*time.Minute), "UTC"),
		dueTask(2, "online", sweepNow.Add(30*time.Minute), "UTC"),
		dueTask(3, "broken", sweepNow.Add(30*time.Minute), "UTC"),
		dueTask(4, "stuck", sweepNow.Add(30*time.Minute), "UTC"),
	}}
	gw := &fakeGateway{
		fail:  map[string]bool{"offline": true},
		panic: map[string]bool{"broken": true},
		block: map[string]bool{"stuck": true},
	}
	s := New(st, gw, Config{Concurrency: 2, DeliveryTimeout: 50 * time.Millisecond})

	report, err := s.Sweep(context.Background(), sweepNow)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Checked)
	assert.Equal(t, 1, report.Fired)
	assert.Equal(t, 3, report.Failed)

	msgs := gw.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "online", msgs[0].conversationID)
	assert.Equal(t, map[uint][]reminder.Key{2: {reminder.Key1h}}, st.marked)

	// Failed tasks are retried on the next sweep. Task 2 already has 1h, so
	// the next unfired covering threshold is 3h.
	gw.fail = nil
	gw.panic = nil
	gw.block = nil
	report, err = s.Sweep(context.Background(), sweepNow.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 4, report.Fired)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, []reminder.Key{reminder.Key1h}, st.marked[1])
	assert.Equal(t, []reminder.Key{reminder.Key1h, reminder.Key3h}, st.marked[2])
}

func TestSweep_TaskGoneDuringSweep(t *testing.T) {
	st := &fakeStore{
		tasks: []task.DueTask{dueTask(1, "c1", sweepNow.Add(-time.Minute), "UTC")},
		gone:  map[uint]bool{1: true},
	}
	gw := &fakeGateway{}

	report, err := New(st, gw, Config{}).Sweep(context.Background(), sweepNow)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Gone)
	assert.Equal(t, 0, report.Failed)
	assert.Len(t, gw.messages(), 1)
}

func TestSweep_MarkFailureCountsAsFailed(t *testing.T) {
	st := &fakeStore{
		tasks:   []task.DueTask{dueTask(1, "c1", sweepNow.Add(-time.Minute), "UTC")},
		markErr: task.ErrStorage,
	}
	report, err := New(st, &fakeGateway{}, Config{}).Sweep(context.Background(), sweepNow)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
}

func TestSweep_LoadError(t *testing.T) {
	st := &fakeStore{loadErr: task.ErrStorage}
	gw := &fakeGateway{}

	_, err := New(st, gw, Config{}).Sweep(context.Background(), sweepNow)
	assert.True(t, errors.Is(err, task.ErrStorage))
	assert.Empty(t, gw.messages())
}

func TestSweep_NothingToSend(t *testing.T) {
	undated := dueTask(2, "c1", sweepNow, "UTC")
	undated.DueAt = nil
	st := &fakeStore{tasks: []task.DueTask{
		dueTask(1, "c1", sweepNow.Add(48*time.Hour), "UTC"),
		undated,
	}}
	gw := &fakeGateway{}

	report, err := New(st, gw, Config{}).Sweep(context.Background(), sweepNow)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Skipped)
	assert.Empty(t, gw.messages())
}

func TestSweep_WithSQLiteStore(t *testing.T) {
	ctx := context.Background()
	db, err := store.Open(":memory:", false)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	repo := store.NewRepository(db)

	require.NoError(t, repo.SetUserTimezone(ctx, "u1", "Asia/Tashkent"))
	due := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	soon, err := repo.CreateTask(ctx, "u1", "c1", "Submit thesis", &due)
	require.NoError(t, err)
	later := due.Add(72 * time.Hour)
	_, err = repo.CreateTask(ctx, "u1", "c1", "Far away", &later)
	require.NoError(t, err)
	done, err := repo.CreateTask(ctx, "u2", "c2", "Finished", &due)
	require.NoError(t, err)
	require.NoError(t, repo.SetStatus(ctx, done.ID, "u2", task.StatusDone))

	gw := &fakeGateway{}
	s := New(repo, gw, Config{})

	report, err := s.Sweep(ctx, sweepNow)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, 1, report.Fired)

	msgs := gw.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].text, "Due: 2025-05-10 17:00 (Asia/Tashkent)")

	got, err := repo.GetTask(ctx, soon.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, []reminder.Key{reminder.Key15m}, got.Fired.Keys())
	assert.Equal(t, task.StatusPending, got.Status)

	report, err = s.Sweep(ctx, sweepNow.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Fired)
	msgs = gw.messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].text, "in less than 1 hour")

	got, err = repo.GetTask(ctx, soon.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, []reminder.Key{reminder.Key1h, reminder.Key15m}, got.Fired.Keys())

	report, err = s.Sweep(ctx, sweepNow.Add(11*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Fired)
	msgs = gw.messages()
	require.Len(t, msgs, 3)
	assert.True(t, strings.HasPrefix(msgs[2].text, "🔔 DUE NOW or is OVERDUE!"))

	report, err = s.Sweep(ctx, sweepNow.Add(26*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0, report.Fired)
	assert.Len(t, gw.messages(), 3)
}

// hangingConn blocks every write until closed and ignores write deadlines.
type hangingConn struct {
	once    sync.Once
	release chan struct{}
}

func (c *hangingConn) WriteMessage(int, []byte) error {
	<-c.release
	return errors.New("connection closed")
}

func (c *hangingConn) SetWriteDeadline(time.Time) error { return nil }

func (c *hangingConn) Close() error {
	c.once.Do(func() { close(c.release) })
	return nil
}

type recordingConn struct {
	mu     sync.Mutex
	writes int
}

func (c *recordingConn) WriteMessage(int, []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes++
	return nil
}

func (c *recordingConn) SetWriteDeadline(time.Time) error { return nil }
func (c *recordingConn) Close() error { return nil }

func (c *recordingConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

func TestSweep_HungClientDoesNotStallHub(t *testing.T) {
	hub := chat.NewHub()
	hung := &hangingConn{release: make(chan struct{})}
	healthy := &recordingConn{}
	hub.Register("conv-a", hung)
	hub.Register("conv-b", healthy)

	st := &fakeStore{tasks: []task.DueTask{
		dueTask(1, "conv-a", sweepNow.Add(10*time.Minute), "UTC"),
		dueTask(2, "conv-b", sweepNow.Add(10*time.Minute), "UTC"),
	}}
	s := New(st, hub, Config{Concurrency: 1, DeliveryTimeout: 50 * time.Millisecond})

	done := make(chan Report, 1)
	go func() {
		report, err := s.Sweep(context.Background(), sweepNow)
		assert.NoError(t, err)
		done <- report
	}()

	select {
	case report := <-done:
		assert.Equal(t, 1, report.Fired)
		assert.Equal(t, 1, report.Failed)
	case <-time.After(2 * time.Second):
		t.Fatal("sweep blocked on a hung client")
	}
	assert.Equal(t, 1, healthy.count())
	assert.Equal(t, map[uint][]reminder.Key{2: {reminder.Key15m}}, st.marked)
}

package task

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/task-reminder-bot/domain/reminder"
	domain "github.com/example/task-reminder-bot/domain/task"
	"github.com/example/task-reminder-bot/domain/timezone"
)

// fakeRepository is an in-memory domain.Repository that records calls.
type fakeRepository struct {
	mu     sync.Mutex
	tasks  map[uint]*domain.Task
	zones  map[string]string
	nextID uint

	createErr error
	listErr   error
	getErr    error
	statusErr error
	deleteErr error

	setStatusCalls int
	deleteCalls    int
	deleteMisses   int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{tasks: map[uint]*domain.Task{}, zones: map[string]string{}}
}

func (f *fakeRepository) seed(owner, desc string, due *time.Time, status domain.Status) *domain.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	t := &domain.Task{
		ID:             f.nextID,
		OwnerID:        owner,
		ConversationID: "conv-" + owner,
		Description:    desc,
		DueAt:          due,
		Status:         status,
		Fired:          reminder.Set{},
		CreatedAt:      time.Unix(int64(f.nextID), 0).UTC(),
	}
	f.tasks[t.ID] = t
	return t
}

func (f *fakeRepository) CreateTask(_ context.Context, owner, conv, desc string, due *time.Time) (*domain.Task, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	t := f.seed(owner, desc, due, domain.StatusPending)
	t.ConversationID = conv
	cp := *t
	return &cp, nil
}

func (f *fakeRepository) TasksByOwner(_ context.Context, owner string, status domain.Status) ([]domain.Task, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Task
	for _, t := range f.tasks {
		if t.OwnerID == owner && t.Status == status {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.DueAt == nil) != (b.DueAt == nil) {
			return a.DueAt != nil
		}
		if a.DueAt != nil && !a.DueAt.Equal(*b.DueAt) {
			return a.DueAt.Before(*b.DueAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (f *fakeRepository) GetTask(_ context.Context, id uint, owner string) (*domain.Task, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok || t.OwnerID != owner {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeRepository) PendingWithDueDates(_ context.Context) ([]domain.DueTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.DueTask
	for _, t := range f.tasks {
		if t.Status == domain.StatusPending && t.DueAt != nil {
			zone, ok := f.zones[t.OwnerID]
			if !ok {
				zone = timezone.Reference
			}
			out = append(out, domain.DueTask{Task: *t, Timezone: zone})
		}
	}
	return out, nil
}

func (f *fakeRepository) SetStatus(_ context.Context, id uint, owner string, status domain.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setStatusCalls++
	if f.statusErr != nil {
		return f.statusErr
	}
	t, ok := f.tasks[id]
	if !ok || t.OwnerID != owner {
		return domain.ErrNotFound
	}
	t.Status = status
	return nil
}

func (f *fakeRepository) DeleteTask(_ context.Context, id uint, owner string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	t, ok := f.tasks[id]
	if !ok || t.OwnerID != owner {
		f.deleteMisses++
		return domain.ErrNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeRepository) MarkThresholdFired(_ context.Context, id uint, key reminder.Key) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok || t.Status != domain.StatusPending {
		return false, nil
	}
	t.Fired = t.Fired.With(key)
	return true, nil
}

func (f *fakeRepository) UserTimezone(_ context.Context, owner string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if z, ok := f.zones[owner]; ok {
		return z, nil
	}
	return timezone.Reference, nil
}

func (f *fakeRepository) SetUserTimezone(_ context.Context, owner, zone string) error {
	if err := timezone.Validate(zone); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.zones[owner] = zone
	return nil
}

// fakeUserPort serves timezones from the fake repository, like the user module does.
type fakeUserPort struct {
	repo    *fakeRepository
	lookErr error
}

func (p *fakeUserPort) Timezone(ctx context.Context, owner string) (string, error) {
	if p.lookErr != nil {
		return "", p.lookErr
	}
	zone, err := p.repo.UserTimezone(ctx, owner)
	if err != nil {
		return "", err
	}
	return timezone.Name(zone), nil
}

func (p *fakeUserPort) SetTimezone(ctx context.Context, owner, zone string) error {
	return p.repo.SetUserTimezone(ctx, owner, zone)
}

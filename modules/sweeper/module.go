package sweeper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/example/task-reminder-bot/events"
	"github.com/example/task-reminder-bot/modules/chat"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"golang.org/x/sync/singleflight"
)

// ModuleConfig configures the periodic sweep.
type ModuleConfig struct {
	Interval        time.Duration
	FirstRun        time.Duration
	Concurrency     int
	DeliveryTimeout time.Duration
}

const (
	defaultInterval = 15 * time.Minute
	defaultFirstRun = 5 * time.Second
)

// SweeperModule runs the deadline sweep on a fixed interval.
type SweeperModule struct {
	sweeper  *Sweeper
	interval time.Duration
	firstRun time.Duration
	now      func() time.Time

	sfGroup singleflight.Group // collapses overlapping sweeps

	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once

	mu      sync.RWMutex
	last    *Report
	lastErr error
	runs    int
}

// Compile-time interface checks.
var _ mono.Module = (*SweeperModule)(nil)
var _ mono.ServiceProviderModule = (*SweeperModule)(nil)
var _ mono.EventEmitterModule = (*SweeperModule)(nil)
var _ mono.HealthCheckableModule = (*SweeperModule)(nil)

// NewModule creates a SweeperModule delivering through gateway.
func NewModule(store Store, gateway chat.Gateway, cfg ModuleConfig) *SweeperModule {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.FirstRun < 0 {
		cfg.FirstRun = defaultFirstRun
	}
	return &SweeperModule{
		sweeper: New(store, gateway, Config{
			Concurrency:     cfg.Concurrency,
			DeliveryTimeout: cfg.DeliveryTimeout,
		}),
		interval: cfg.Interval,
		firstRun: cfg.FirstRun,
		now:      time.Now,
	}
}

// Name returns the module name.
func (m *SweeperModule) Name() string {
	return "sweeper"
}

// SetEventBus is called by the framework to inject the event bus.
func (m *SweeperModule) SetEventBus(bus mono.EventBus) {
	m.sweeper.SetEventBus(bus)
}

// EmitEvents declares the events this module publishes.
func (m *SweeperModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.ReminderSentV1.ToBase(),
	}
}

// RegisterServices registers the on-demand sweep service.
func (m *SweeperModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "run-sweep", json.Unmarshal, json.Marshal, m.runSweep,
	); err != nil {
		return fmt.Errorf("failed to register run-sweep service: %w", err)
	}

	log.Printf("[sweeper] Registered service: run-sweep")
	return nil
}

func (m *SweeperModule) runSweep(ctx context.Context, _ RunSweepRequest, _ *mono.Msg) (RunSweepResponse, error) {
	report, err := m.RunNow(ctx)
	if err != nil {
		return RunSweepResponse{Error: err.Error()}, nil
	}
	return RunSweepResponse{Report: report}, nil
}

// RunNow sweeps immediately. A call made while a sweep is in progress
// shares that sweep's result.
func (m *SweeperModule) RunNow(ctx context.Context) (Report, error) {
	v, err, _ := m.sfGroup.Do("sweep", func() (any, error) {
		report, err := m.sweeper.Sweep(ctx, m.now())
		m.record(report, err)
		return report, err
	})
	report, _ := v.(Report)
	return report, err
}

func (m *SweeperModule) record(report Report, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs++
	m.lastErr = err
	if err == nil {
		m.last = &report
	}
}

// LastReport returns the most recent successful sweep, if any.
func (m *SweeperModule) LastReport() (Report, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.last == nil {
		return Report{}, false
	}
	return *m.last, true
}

// Start launches the sweep loop.
func (m *SweeperModule) Start(_ context.Context) error {
	m.stopChan = make(chan struct{})
	m.doneChan = make(chan struct{})

	go m.run()

	log.Printf("[sweeper] Module started - first sweep in %s, then every %s", m.firstRun, m.interval)
	return nil
}

func (m *SweeperModule) run() {
	defer close(m.doneChan)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-m.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	first := time.NewTimer(m.firstRun)
	defer first.Stop()
	select {
	case <-m.stopChan:
		return
	case <-first.C:
		m.tick(ctx)
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopChan:
			log.Println("[sweeper] Received stop signal")
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

func (m *SweeperModule) tick(ctx context.Context) {
	report, err := m.RunNow(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Printf("[sweeper] Sweep failed: %v", err)
		}
		return
	}
	if report.Fired > 0 || report.Failed > 0 {
		log.Printf("[sweeper] Sweep done: checked=%d fired=%d failed=%d gone=%d in %s",
			report.Checked, report.Fired, report.Failed, report.Gone, report.Duration)
	}
}

// Stop waits for an in-flight sweep to finish.
func (m *SweeperModule) Stop(ctx context.Context) error {
	if m.stopChan == nil {
		return nil
	}

	m.stopOnce.Do(func() {
		close(m.stopChan)
	})

	select {
	case <-m.doneChan:
		log.Println("[sweeper] Module stopped")
	case <-ctx.Done():
		log.Println("[sweeper] Shutdown timeout exceeded")
		return ctx.Err()
	}
	return nil
}

// Health reports the outcome of the last sweep.
func (m *SweeperModule) Health(_ context.Context) mono.HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	details := map[string]any{
		"interval": m.interval.String(),
		"runs":     m.runs,
	}
	if m.last != nil {
		details["last_sweep_at"] = m.last.StartedAt
		details["last_checked"] = m.last.Checked
		details["last_fired"] = m.last.Fired
		details["last_failed"] = m.last.Failed
	}
	if m.lastErr != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("last sweep failed: %v", m.lastErr),
			Details: details,
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: details,
	}
}

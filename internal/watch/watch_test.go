package watch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nholik/fleetctl/internal/health"
	"github.com/nholik/fleetctl/internal/registry"
	"github.com/nholik/fleetctl/internal/state"
	"github.com/nholik/fleetctl/internal/transition"
)

type fakeTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (t *fakeTicker) C() <-chan time.Time {
	return t.ch
}

func (t *fakeTicker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *fakeTicker) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

type fakeChecker struct {
	mu       sync.Mutex
	statuses []health.FleetStatus
	calls    int
}

func (c *fakeChecker) CheckFleet(_ context.Context, _ []*registry.ServiceDescriptor) health.FleetStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	status := c.statuses[0]
	if len(c.statuses) > 1 {
		c.statuses = c.statuses[1:]
	}
	c.calls++
	return status
}

type memoryStore struct {
	mu    sync.Mutex
	state state.State
	saves int
}

func (s *memoryStore) Load(_ context.Context) (state.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, nil
}

func (s *memoryStore) Save(_ context.Context, st state.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
	s.saves++
	return nil
}

type captureNotifier struct {
	mu      sync.Mutex
	batches [][]transition.ServiceTransition
	err     error
}

func (n *captureNotifier) Notify(_ context.Context, transitions []transition.ServiceTransition) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.batches = append(n.batches, transitions)
	return n.err
}

func healthyFleet() health.FleetStatus {
	return health.FleetStatus{
		OverallHealthy: true,
		CheckedAt:      time.Now().UTC(),
		Reports: []health.Report{
			{Service: "litellm", Status: health.StatusHealthy},
			{Service: "ragflow", Status: health.StatusHealthy},
		},
	}
}

func brokenFleet() health.FleetStatus {
	return health.FleetStatus{
		CheckedAt: time.Now().UTC(),
		Reports: []health.Report{
			{Service: "litellm", Status: health.StatusHealthy},
			{Service: "ragflow", Status: health.StatusUnreachable, LastError: "connection refused"},
		},
	}
}

func TestRunOnce_DetectsAndNotifiesTransitions(t *testing.T) {
	previous := healthyFleet()
	store := &memoryStore{state: state.State{LastStatus: &previous}}
	checker := &fakeChecker{statuses: []health.FleetStatus{brokenFleet()}}
	notifier := &captureNotifier{}

	w := New(zerolog.Nop(), time.Second, checker, store, WithNotifier(notifier))

	if err := w.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(notifier.batches) != 1 {
		t.Fatalf("expected one notification, got %d", len(notifier.batches))
	}
	batch := notifier.batches[0]
	if len(batch) != 1 || batch[0].Name != "ragflow" || batch[0].Current != health.StatusUnreachable {
		t.Fatalf("unexpected transitions: %+v", batch)
	}
	if store.state.LastStatus == nil || store.state.LastStatus.OverallHealthy {
		t.Fatalf("expected broken snapshot persisted, got %+v", store.state.LastStatus)
	}
}

func TestRunOnce_QuietCycleSkipsNotification(t *testing.T) {
	previous := healthyFleet()
	store := &memoryStore{state: state.State{LastStatus: &previous}}
	checker := &fakeChecker{statuses: []health.FleetStatus{healthyFleet()}}
	notifier := &captureNotifier{}

	w := New(zerolog.Nop(), time.Second, checker, store, WithNotifier(notifier))

	if err := w.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.batches) != 0 {
		t.Fatalf("expected no notifications, got %d", len(notifier.batches))
	}
	if store.saves != 1 {
		t.Fatalf("expected snapshot saved every cycle, got %d saves", store.saves)
	}
}

func TestRunOnce_NotifyFailureStillSavesState(t *testing.T) {
	store := &memoryStore{}
	checker := &fakeChecker{statuses: []health.FleetStatus{brokenFleet()}}
	notifier := &captureNotifier{err: errors.New("webhook down")}

	w := New(zerolog.Nop(), time.Second, checker, store, WithNotifier(notifier))

	if err := w.RunOnce(context.Background()); err != nil {
		t.Fatalf("notify failure should not fail the cycle: %v", err)
	}
	if store.saves != 1 {
		t.Fatalf("expected state saved despite notify failure, got %d saves", store.saves)
	}
}

func TestRun_TriggersCyclesOnTicks(t *testing.T) {
	ticker := &fakeTicker{ch: make(chan time.Time, 2)}
	store := &memoryStore{}
	checker := &fakeChecker{statuses: []health.FleetStatus{healthyFleet()}}

	w := New(zerolog.Nop(), time.Second, checker, store,
		WithTickerFactory(func(time.Duration) Ticker {
			return ticker
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		_ = w.Run(ctx)
		close(done)
	}()

	ticker.ch <- time.Now()
	ticker.ch <- time.Now()

	deadline := time.After(time.Second)
	for {
		checker.mu.Lock()
		calls := checker.calls
		checker.mu.Unlock()
		if calls >= 3 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("expected 3 cycles (initial + 2 ticks), got %d", calls)
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("watcher did not stop after cancel")
	}
	if !ticker.Stopped() {
		t.Fatalf("expected ticker to be stopped")
	}
}

func TestRun_RejectsNonPositiveInterval(t *testing.T) {
	w := New(zerolog.Nop(), 0, &fakeChecker{statuses: []health.FleetStatus{healthyFleet()}}, &memoryStore{})
	if err := w.Run(context.Background()); err == nil {
		t.Fatal("expected error for zero poll interval")
	}
}

// Package watch drives the continuous monitoring loop: poll fleet health,
// detect transitions against the persisted snapshot, and alert on changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nholik/fleetctl/internal/health"
	"github.com/nholik/fleetctl/internal/healthcheck"
	"github.com/nholik/fleetctl/internal/metrics"
	"github.com/nholik/fleetctl/internal/notify"
	"github.com/nholik/fleetctl/internal/registry"
	"github.com/nholik/fleetctl/internal/state"
	"github.com/nholik/fleetctl/internal/transition"
)

// Ticker is the minimal interface needed for driving the watch loop.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	ticker *time.Ticker
}

func (t timeTicker) C() <-chan time.Time {
	return t.ticker.C
}

func (t timeTicker) Stop() {
	t.ticker.Stop()
}

type fleetChecker interface {
	CheckFleet(ctx context.Context, services []*registry.ServiceDescriptor) health.FleetStatus
}

// Watcher polls the fleet on an interval and alerts on status transitions.
type Watcher struct {
	logger        zerolog.Logger
	pollInterval  time.Duration
	tickerFactory func(time.Duration) Ticker
	checker       fleetChecker
	store         state.Store
	notifier      notify.Notifier
	metrics       *metrics.Metrics
	tracker       *healthcheck.Tracker
}

// Option customizes watcher behavior.
type Option func(*Watcher)

// WithTickerFactory overrides how tickers are created.
func WithTickerFactory(factory func(time.Duration) Ticker) Option {
	return func(w *Watcher) {
		w.tickerFactory = factory
	}
}

// WithNotifier sets the transition notifier.
func WithNotifier(notifier notify.Notifier) Option {
	return func(w *Watcher) {
		w.notifier = notifier
	}
}

// WithMetrics enables Prometheus collection for watch cycles.
func WithMetrics(collector *metrics.Metrics) Option {
	return func(w *Watcher) {
		w.metrics = collector
	}
}

// WithTracker enables cycle recording for the health endpoints.
func WithTracker(tracker *healthcheck.Tracker) Option {
	return func(w *Watcher) {
		w.tracker = tracker
	}
}

// New constructs a Watcher with the given checker and state store.
func New(logger zerolog.Logger, pollInterval time.Duration, checker fleetChecker, store state.Store, opts ...Option) *Watcher {
	w := &Watcher{
		logger:       logger,
		pollInterval: pollInterval,
		tickerFactory: func(d time.Duration) Ticker {
			return timeTicker{ticker: time.NewTicker(d)}
		},
		checker: checker,
		store:   store,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.notifier == nil {
		w.notifier = notify.NewNoop(logger, "")
	}
	return w
}

// Run starts the watch loop and blocks until the context is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	if w.pollInterval <= 0 {
		return errors.New("poll interval must be greater than zero")
	}

	// Run immediately on startup
	if err := w.RunOnce(ctx); err != nil {
		w.logger.Error().Err(err).Msg("initial watch cycle failed")
	}

	ticker := w.tickerFactory(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("watcher stopped")
			return nil
		case <-ticker.C():
			if err := w.RunOnce(ctx); err != nil {
				w.logger.Error().Err(err).Msg("watch cycle failed")
			}
		}
	}
}

// RunOnce executes a single watch cycle.
func (w *Watcher) RunOnce(ctx context.Context) error {
	start := time.Now()

	status := w.checker.CheckFleet(ctx, nil)
	if err := ctx.Err(); err != nil {
		return err
	}

	loaded, err := w.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load watch state: %w", err)
	}

	transitions := transition.Detect(loaded.LastStatus, status)
	w.logTransitions(transitions)

	if len(transitions) > 0 {
		if err := w.notifier.Notify(ctx, transitions); err != nil {
			// State is still saved below so a flaky webhook does not
			// replay the same transitions forever.
			w.logger.Error().Err(err).Int("transitions", len(transitions)).Msg("notification failed")
		}
	}

	snapshot := status
	if err := w.store.Save(ctx, state.State{LastStatus: &snapshot}); err != nil {
		return fmt.Errorf("save watch state: %w", err)
	}

	duration := time.Since(start)
	counts := status.Counts()
	w.metrics.ObserveCheckDuration(duration)
	for _, s := range []health.Status{health.StatusHealthy, health.StatusDegraded, health.StatusUnreachable, health.StatusTimedOut} {
		w.metrics.SetServices(string(s), counts[s])
	}
	w.metrics.AddAlerts(len(transitions))
	w.metrics.SetLastCheckTimestamp(time.Now().UTC())
	w.tracker.RecordCycle(duration, len(status.Reports))

	w.logger.Debug().
		Bool("overall_healthy", status.OverallHealthy).
		Int("services", len(status.Reports)).
		Int("transitions", len(transitions)).
		Dur("duration", duration).
		Msg("watch cycle complete")

	return nil
}

func (w *Watcher) logTransitions(transitions []transition.ServiceTransition) {
	for _, change := range transitions {
		event := w.logger.Info()
		switch change.Current {
		case health.StatusUnreachable, health.StatusTimedOut:
			event = w.logger.Error()
		case health.StatusDegraded:
			event = w.logger.Warn()
		}
		event = event.
			Str("service", change.Name).
			Str("previous_status", string(change.Previous)).
			Str("current_status", string(change.Current))
		if change.LastError != "" {
			event = event.Str("last_error", change.LastError)
		}
		event.Msg("service transition detected")
	}
}

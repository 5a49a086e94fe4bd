package health

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/nholik/fleetctl/internal/registry"
)

// ErrFleetUnhealthy is returned when the fleet did not reach a fully healthy
// state within the grace period. The last FleetStatus is still returned so
// the caller can report per-service outcomes.
var ErrFleetUnhealthy = errors.New("fleet not healthy within grace period")

// WaitHealthy polls the fleet until every service reports healthy or the
// grace period elapses. It never loops forever: the last observed status is
// returned either way.
func (c *Checker) WaitHealthy(ctx context.Context, services []*registry.ServiceDescriptor, grace time.Duration) (FleetStatus, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 2 * time.Second
	policy.MaxInterval = 10 * time.Second
	policy.MaxElapsedTime = grace
	policy.Reset()

	var last FleetStatus
	for {
		last = c.CheckFleet(ctx, services)
		if last.OverallHealthy {
			return last, nil
		}

		wait := policy.NextBackOff()
		if wait == backoff.Stop {
			return last, ErrFleetUnhealthy
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return last, ctx.Err()
		case <-timer.C:
		}
	}
}

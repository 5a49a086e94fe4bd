package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/nholik/fleetctl/internal/composefile"
)

// ErrNotReplicable rejects scaling requests against services whose
// descriptor does not mark them horizontally scalable.
var ErrNotReplicable = errors.New("service is not replicable")

// unitLoader reads a unit's compose definition; overridable in tests.
type unitLoader func(ctx context.Context, path string) (composefile.Unit, error)

// Scaler adjusts replica counts for replicable services.
type Scaler struct {
	driver *Driver
	load   unitLoader
}

// NewScaler constructs a Scaler over the driver's registry and unit runner.
func NewScaler(driver *Driver) *Scaler {
	return &Scaler{driver: driver, load: composefile.LoadUnit}
}

// WithUnitLoader overrides compose file loading (for tests).
func (s *Scaler) WithUnitLoader(load unitLoader) *Scaler {
	s.load = load
	return s
}

// Scale sets the desired replica count and returns the accepted count. The
// caller is expected to chain a fleet check; new replicas reaching readiness
// is not verified here.
func (s *Scaler) Scale(ctx context.Context, name string, count int) (int, error) {
	desc, err := s.driver.reg.Lookup(name)
	if err != nil {
		return 0, err
	}
	if !desc.Replicable {
		return 0, fmt.Errorf("%w: %q", ErrNotReplicable, name)
	}
	if count < 1 {
		return 0, fmt.Errorf("replica count must be at least 1, got %d", count)
	}

	unit, err := s.load(ctx, desc.Handle.ComposeFile)
	if err != nil {
		return 0, fmt.Errorf("inspect unit for %q: %w", name, err)
	}
	if _, ok := unit.Services[desc.Handle.Service]; !ok {
		return 0, fmt.Errorf("service %q not defined in %s", desc.Handle.Service, desc.Handle.ComposeFile)
	}

	if err := s.driver.units.Scale(ctx, desc.Handle, count); err != nil {
		return 0, err
	}

	s.driver.logger.Info().
		Str("service", name).
		Int("replicas", count).
		Msg("scale accepted")
	return count, nil
}

// CurrentReplicas returns the replica count declared in the unit's compose
// definition, used by relative scale-up/scale-down commands as the baseline.
func (s *Scaler) CurrentReplicas(ctx context.Context, name string) (int, error) {
	desc, err := s.driver.reg.Lookup(name)
	if err != nil {
		return 0, err
	}
	unit, err := s.load(ctx, desc.Handle.ComposeFile)
	if err != nil {
		return 0, err
	}
	service, ok := unit.Services[desc.Handle.Service]
	if !ok {
		return 0, fmt.Errorf("service %q not defined in %s", desc.Handle.Service, desc.Handle.ComposeFile)
	}
	return service.Replicas, nil
}

package state

import (
	"context"

	"github.com/nholik/fleetctl/internal/health"
)

// State is the persisted watch-mode snapshot: the last observed fleet
// status, used to detect transitions across cycles and restarts.
type State struct {
	LastStatus *health.FleetStatus `json:"last_status,omitempty"`
}

// Store defines the interface for persisting watch state.
type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, state State) error
}

package notify

import (
	"context"

	"github.com/nholik/fleetctl/internal/transition"
)

// Notifier delivers transition alerts to external systems.
type Notifier interface {
	Notify(ctx context.Context, transitions []transition.ServiceTransition) error
}

// Package runtime is the container-runtime backend: network provisioning and
// container inspection through the Docker SDK, and compose unit lifecycle
// commands through the docker compose CLI.
package runtime

import (
	"context"
	"fmt"

	"github.com/nholik/fleetctl/internal/registry"
)

// Networker provisions the shared network all managed services attach to.
type Networker interface {
	// EnsureNetwork creates the named network if it does not exist.
	// Creating an already-existing network is success, not failure.
	EnsureNetwork(ctx context.Context, name string) error

	// RemoveNetwork removes the named network. Absence is success.
	RemoveNetwork(ctx context.Context, name string) error

	// Ping validates connectivity to the container runtime.
	Ping(ctx context.Context) error
}

// ContainerInfo summarizes one running or stopped container.
type ContainerInfo struct {
	Name    string
	Service string
	State   string
	Status  string
}

// ContainerLister reports containers belonging to a compose project.
type ContainerLister interface {
	ListProjectContainers(ctx context.Context, project string) ([]ContainerInfo, error)
}

// UnitRunner issues lifecycle commands against compose units.
type UnitRunner interface {
	// Up launches the unit's service detached. Returning nil means the
	// launch command succeeded, not that the service is ready.
	Up(ctx context.Context, handle registry.Handle) error

	// Stop stops the unit's service, leaving its containers in place.
	Stop(ctx context.Context, handle registry.Handle) error

	// Scale adjusts the service's replica count.
	Scale(ctx context.Context, handle registry.Handle, replicas int) error

	// Pull fetches the service's current image.
	Pull(ctx context.Context, handle registry.Handle) error
}

// NetworkError reports a network provisioning failure. It is fatal to the
// operation that required the network and retryable by the operator.
type NetworkError struct {
	Op      string
	Network string
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s network %q: %v", e.Op, e.Network, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// LaunchError reports a failed lifecycle command for one service unit. It is
// contained to the service's batch; dependents are skipped, siblings proceed.
type LaunchError struct {
	Service string
	Op      string
	Output  string
	Err     error
}

func (e *LaunchError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s %s: %v: %s", e.Op, e.Service, e.Err, e.Output)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Service, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

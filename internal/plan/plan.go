// Package plan derives deployment order from service dependencies.
//
// A Plan is an ordered sequence of batches: batches execute sequentially,
// services within a batch carry no dependency edges between each other and
// may be launched concurrently. Plans are built per invocation and discarded
// after execution.
package plan

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nholik/fleetctl/internal/registry"
)

// ErrDependencyCycle is returned when the selected services form a dependency
// cycle. A cyclic configuration aborts the operation before any side effect.
var ErrDependencyCycle = errors.New("dependency cycle")

// Plan is an ordered sequence of concurrently-launchable batches.
type Plan struct {
	Batches [][]*registry.ServiceDescriptor
}

// Build topologically sorts the given services into batches. Dependencies on
// services outside the selected set are ignored: a single-service or
// single-group operation assumes its external dependencies are already
// running.
func Build(services []*registry.ServiceDescriptor) (Plan, error) {
	selected := make(map[string]*registry.ServiceDescriptor, len(services))
	for _, svc := range services {
		selected[svc.Name] = svc
	}

	// In-set dependency edges and indegrees.
	remaining := make(map[string]int, len(selected))
	dependents := make(map[string][]string, len(selected))
	for name, svc := range selected {
		count := 0
		for _, dep := range svc.DependsOn {
			if _, ok := selected[dep]; ok {
				count++
				dependents[dep] = append(dependents[dep], name)
			}
		}
		remaining[name] = count
	}

	plan := Plan{}
	placed := 0
	for placed < len(selected) {
		ready := make([]string, 0)
		for name, count := range remaining {
			if count == 0 {
				ready = append(ready, name)
			}
		}
		if len(ready) == 0 {
			return Plan{}, cycleError(remaining)
		}
		sort.Strings(ready)

		batch := make([]*registry.ServiceDescriptor, 0, len(ready))
		for _, name := range ready {
			batch = append(batch, selected[name])
			delete(remaining, name)
			for _, dependent := range dependents[name] {
				remaining[dependent]--
			}
		}
		plan.Batches = append(plan.Batches, batch)
		placed += len(batch)
	}

	return plan, nil
}

// Reverse returns the plan with batch order inverted, for teardown:
// dependents stop before their dependencies.
func (p Plan) Reverse() Plan {
	reversed := Plan{Batches: make([][]*registry.ServiceDescriptor, 0, len(p.Batches))}
	for i := len(p.Batches) - 1; i >= 0; i-- {
		reversed.Batches = append(reversed.Batches, p.Batches[i])
	}
	return reversed
}

// Services returns every service in the plan in batch order.
func (p Plan) Services() []*registry.ServiceDescriptor {
	result := make([]*registry.ServiceDescriptor, 0)
	for _, batch := range p.Batches {
		result = append(result, batch...)
	}
	return result
}

func cycleError(remaining map[string]int) error {
	members := make([]string, 0, len(remaining))
	for name := range remaining {
		members = append(members, name)
	}
	sort.Strings(members)
	return fmt.Errorf("%w among services: %s", ErrDependencyCycle, strings.Join(members, ", "))
}

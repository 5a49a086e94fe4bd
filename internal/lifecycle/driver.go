// Package lifecycle executes deploy, stop, restart and scale operations
// against the registered fleet, honoring dependency order.
package lifecycle

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/nholik/fleetctl/internal/plan"
	"github.com/nholik/fleetctl/internal/registry"
	"github.com/nholik/fleetctl/internal/runtime"
)

// Driver resolves operation scopes against the registry and walks deployment
// plans batch by batch. Batches execute with a strict barrier: batch b+1
// never starts before every member of batch b has returned.
type Driver struct {
	logger   zerolog.Logger
	reg      *registry.Registry
	units    runtime.UnitRunner
	networks runtime.Networker
	network  string
}

// NewDriver constructs a Driver bound to the shared network name.
func NewDriver(logger zerolog.Logger, reg *registry.Registry, units runtime.UnitRunner, networks runtime.Networker, network string) *Driver {
	return &Driver{
		logger:   logger,
		reg:      reg,
		units:    units,
		networks: networks,
		network:  network,
	}
}

// Deploy launches the scoped services in dependency order. Pre-flight
// failures (unknown scope, dependency cycle, network provisioning) return an
// error before any service command is issued; per-service launch failures
// are carried in the report.
func (d *Driver) Deploy(ctx context.Context, scope string) (Report, error) {
	services, err := d.reg.Resolve(scope)
	if err != nil {
		return Report{}, err
	}
	deployment, err := plan.Build(services)
	if err != nil {
		return Report{}, err
	}

	if err := d.networks.EnsureNetwork(ctx, d.network); err != nil {
		return Report{}, err
	}

	report := d.execute(ctx, "deploy", scope, deployment, d.units.Up, true)
	d.logReport(report)
	return report, nil
}

// Stop tears the scoped services down in reverse dependency order, so
// dependents stop before their dependencies. A failed stop is reported but
// never blocks the rest of the teardown.
func (d *Driver) Stop(ctx context.Context, scope string) (Report, error) {
	services, err := d.reg.Resolve(scope)
	if err != nil {
		return Report{}, err
	}
	deployment, err := plan.Build(services)
	if err != nil {
		return Report{}, err
	}

	report := d.execute(ctx, "stop", scope, deployment.Reverse(), d.units.Stop, false)
	d.logReport(report)
	return report, nil
}

// Restart stops then redeploys the scope. Both reports are returned; the
// deploy phase runs even when individual stops failed, since a restart of a
// partially-stopped group is still the operator's intent.
func (d *Driver) Restart(ctx context.Context, scope string) (Report, Report, error) {
	stopReport, err := d.Stop(ctx, scope)
	if err != nil {
		return Report{}, Report{}, err
	}
	deployReport, err := d.Deploy(ctx, scope)
	if err != nil {
		return stopReport, Report{}, err
	}
	return stopReport, deployReport, nil
}

type unitOp func(ctx context.Context, handle registry.Handle) error

// execute walks the plan's batches. Within a batch every service runs
// concurrently with one result slot per service; slots are merged after the
// barrier, so no shared mapping is written concurrently. When
// skipDependents is set, a failed or timed-out service marks all its
// transitive dependents as skipped before their batch is reached.
func (d *Driver) execute(ctx context.Context, op, scope string, p plan.Plan, run unitOp, skipDependents bool) Report {
	report := Report{Op: op, Scope: scope}
	blocked := make(map[string]bool)

	for _, batch := range p.Batches {
		runnable := make([]*registry.ServiceDescriptor, 0, len(batch))
		for _, svc := range batch {
			if skipDependents && d.dependencyBlocked(svc, blocked) {
				blocked[svc.Name] = true
				report.Results = append(report.Results, Result{
					Name:    svc.Name,
					Outcome: OutcomeSkipped,
				})
				d.logger.Warn().
					Str("op", op).
					Str("service", svc.Name).
					Msg("skipped: dependency failed")
				continue
			}
			runnable = append(runnable, svc)
		}

		results := make([]Result, len(runnable))
		var wg sync.WaitGroup
		for i, svc := range runnable {
			wg.Add(1)
			go func(slot int, desc *registry.ServiceDescriptor) {
				defer wg.Done()
				results[slot] = d.runOne(ctx, op, desc, run)
			}(i, svc)
		}
		wg.Wait()

		for _, result := range results {
			if result.Outcome != OutcomeSucceeded {
				blocked[result.Name] = true
			}
			report.Results = append(report.Results, result)
		}
	}

	return report
}

func (d *Driver) runOne(ctx context.Context, op string, desc *registry.ServiceDescriptor, run unitOp) Result {
	opCtx, cancel := context.WithTimeout(ctx, desc.StartTimeout)
	defer cancel()

	err := run(opCtx, desc.Handle)
	if err == nil {
		d.logger.Info().Str("op", op).Str("service", desc.Name).Msg("command succeeded")
		return Result{Name: desc.Name, Outcome: OutcomeSucceeded}
	}

	outcome := OutcomeFailed
	if runtime.IsTimeout(err) {
		outcome = OutcomeTimedOut
	}
	d.logger.Error().Err(err).Str("op", op).Str("service", desc.Name).Msg("command failed")
	return Result{Name: desc.Name, Outcome: outcome, Err: err}
}

// dependencyBlocked reports whether any dependency of svc failed, timed out
// or was itself skipped. Only dependencies within the operation's scope can
// block; external ones were never part of this plan.
func (d *Driver) dependencyBlocked(svc *registry.ServiceDescriptor, blocked map[string]bool) bool {
	for _, dep := range svc.DependsOn {
		if blocked[dep] {
			return true
		}
	}
	return false
}

func (d *Driver) logReport(report Report) {
	d.logger.Info().
		Str("op", report.Op).
		Str("scope", report.Scope).
		Strs("succeeded", report.Succeeded()).
		Strs("skipped", report.Skipped()).
		Int("failed", len(report.Failed())).
		Msg("operation finished")
}

// RemoveNetwork removes the shared network after a full-fleet teardown.
func (d *Driver) RemoveNetwork(ctx context.Context) error {
	return d.networks.RemoveNetwork(ctx, d.network)
}

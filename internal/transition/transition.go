// Package transition detects per-service status changes between fleet
// health snapshots, so watch mode alerts on edges rather than levels.
package transition

import (
	"sort"

	"github.com/nholik/fleetctl/internal/health"
)

// ServiceTransition captures one service crossing a status boundary.
type ServiceTransition struct {
	Name      string
	Previous  health.Status
	Current   health.Status
	LastError string
}

// Detect compares a previous fleet snapshot with the current one and emits a
// transition per service whose status changed. On the first cycle (no
// previous snapshot) only non-healthy services are reported, so a quiet
// fleet does not alert on startup. Services that disappear from the fleet
// are not reported; the registry is static within a watch session.
func Detect(previous *health.FleetStatus, current health.FleetStatus) []ServiceTransition {
	previousByName := map[string]health.Report{}
	if previous != nil {
		for _, report := range previous.Reports {
			previousByName[report.Service] = report
		}
	}
	firstRun := previous == nil || len(previousByName) == 0

	transitions := make([]ServiceTransition, 0)
	for _, report := range current.Reports {
		prev, hadPrev := previousByName[report.Service]

		if firstRun || !hadPrev {
			if report.Status == health.StatusHealthy {
				continue
			}
		} else if prev.Status == report.Status {
			continue
		}

		transitions = append(transitions, ServiceTransition{
			Name:      report.Service,
			Previous:  prev.Status,
			Current:   report.Status,
			LastError: report.LastError,
		})
	}

	sort.Slice(transitions, func(i, j int) bool {
		return transitions[i].Name < transitions[j].Name
	})
	return transitions
}

package health

import (
	"sort"
	"time"
)

// Status classifies one service's probe result.
type Status string

const (
	// StatusHealthy: the probe succeeded and the body passed any
	// service-specific schema check.
	StatusHealthy Status = "healthy"
	// StatusDegraded: the endpoint answered 2xx but the body failed the
	// service-specific schema check.
	StatusDegraded Status = "degraded"
	// StatusUnreachable: connection failure or a non-2xx response.
	StatusUnreachable Status = "unreachable"
	// StatusTimedOut: the probe did not return within its per-call timeout.
	StatusTimedOut Status = "timed_out"
)

// Report is one service's result for one poll cycle.
type Report struct {
	Service   string        `json:"service"`
	Status    Status        `json:"status"`
	Latency   time.Duration `json:"latency"`
	LastError string        `json:"last_error,omitempty"`
}

// FleetStatus is a derived, ephemeral snapshot of the whole fleet. It is
// never persisted by the orchestrator itself (watch mode keeps its own
// snapshots for transition detection).
type FleetStatus struct {
	OverallHealthy bool      `json:"overall_healthy"`
	CheckedAt      time.Time `json:"checked_at"`
	Reports        []Report  `json:"reports"`
}

// Counts returns the number of reports per status.
func (f FleetStatus) Counts() map[Status]int {
	counts := make(map[Status]int, 4)
	for _, report := range f.Reports {
		counts[report.Status]++
	}
	return counts
}

// DegradedOnly reports whether every non-healthy service is merely degraded.
func (f FleetStatus) DegradedOnly() bool {
	if f.OverallHealthy {
		return false
	}
	for _, report := range f.Reports {
		switch report.Status {
		case StatusHealthy, StatusDegraded:
		default:
			return false
		}
	}
	return true
}

func newFleetStatus(reports []Report, checkedAt time.Time) FleetStatus {
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Service < reports[j].Service
	})

	healthy := true
	for _, report := range reports {
		if report.Status != StatusHealthy {
			healthy = false
			break
		}
	}

	return FleetStatus{
		OverallHealthy: healthy,
		CheckedAt:      checkedAt,
		Reports:        reports,
	}
}

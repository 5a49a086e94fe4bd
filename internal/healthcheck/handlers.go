package healthcheck

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthHandler serves /healthz: 200 while watch cycles keep completing
// within twice the poll interval, 503 once they stall.
func HealthHandler(tracker *Tracker, pollInterval time.Duration) http.HandlerFunc {
	return statusHandler(tracker, func(t *Tracker) bool {
		return t.Healthy(time.Now().UTC(), pollInterval)
	})
}

// ReadyHandler serves /readyz: 200 after the first completed cycle.
func ReadyHandler(tracker *Tracker) http.HandlerFunc {
	return statusHandler(tracker, (*Tracker).Ready)
}

// statusHandler reports the tracker snapshot with a status derived from the
// given predicate. Tracker methods tolerate a nil receiver, so a missing
// tracker degrades to a permanent 503 with an empty snapshot.
func statusHandler(tracker *Tracker, ok func(*Tracker) bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusServiceUnavailable
		if ok(tracker) {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(tracker.Snapshot())
	}
}

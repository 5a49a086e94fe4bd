package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/nholik/fleetctl/internal/registry"
)

const bodyReadLimit = 64 << 10

// Checker polls every registered health endpoint concurrently and classifies
// each service. A slow or dead endpoint never stalls the rest of the fleet
// report beyond its own per-call timeout.
type Checker struct {
	logger  zerolog.Logger
	reg     *registry.Registry
	client  *retryablehttp.Client
	timeout time.Duration
	dial    func(ctx context.Context, network, address string) (net.Conn, error)
}

// CheckerOption customizes Checker behavior.
type CheckerOption func(*Checker)

// WithDialer overrides TCP probing (for tests).
func WithDialer(dial func(ctx context.Context, network, address string) (net.Conn, error)) CheckerOption {
	return func(c *Checker) {
		c.dial = dial
	}
}

// NewChecker constructs a Checker with the given per-call timeout.
func NewChecker(logger zerolog.Logger, reg *registry.Registry, timeout time.Duration, opts ...CheckerOption) *Checker {
	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.CheckRetry = func(_ context.Context, _ *http.Response, _ error) (bool, error) {
		// Classification wants the raw response; the caller decides what a
		// non-2xx means, not the transport.
		return false, nil
	}
	client.Logger = nil
	client.HTTPClient = &http.Client{Timeout: timeout}

	checker := &Checker{
		logger:  logger,
		reg:     reg,
		client:  client,
		timeout: timeout,
		dial:    (&net.Dialer{}).DialContext,
	}
	for _, opt := range opts {
		opt(checker)
	}
	return checker
}

// CheckFleet probes every service in the given set concurrently. A nil or
// empty set means the whole registry. Each probe writes into its own result
// slot; the slots are merged after all probes have returned.
func (c *Checker) CheckFleet(ctx context.Context, services []*registry.ServiceDescriptor) FleetStatus {
	if len(services) == 0 {
		services = c.reg.All()
	}

	reports := make([]Report, len(services))
	var wg sync.WaitGroup
	for i, svc := range services {
		wg.Add(1)
		go func(slot int, desc *registry.ServiceDescriptor) {
			defer wg.Done()
			reports[slot] = c.checkOne(ctx, desc)
		}(i, svc)
	}
	wg.Wait()

	status := newFleetStatus(reports, time.Now().UTC())

	counts := status.Counts()
	c.logger.Debug().
		Bool("overall_healthy", status.OverallHealthy).
		Int("healthy", counts[StatusHealthy]).
		Int("degraded", counts[StatusDegraded]).
		Int("unreachable", counts[StatusUnreachable]).
		Int("timed_out", counts[StatusTimedOut]).
		Msg("fleet checked")

	return status
}

func (c *Checker) checkOne(ctx context.Context, desc *registry.ServiceDescriptor) Report {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	var report Report
	switch desc.Check.Kind {
	case registry.CheckTCP:
		report = c.checkTCP(ctx, desc)
	default:
		report = c.checkHTTP(ctx, desc)
	}
	report.Service = desc.Name
	report.Latency = time.Since(started)
	return report
}

func (c *Checker) checkTCP(ctx context.Context, desc *registry.ServiceDescriptor) Report {
	conn, err := c.dial(ctx, "tcp", desc.Check.Address)
	if err != nil {
		return classifyError(ctx, err)
	}
	_ = conn.Close()
	return Report{Status: StatusHealthy}
}

func (c *Checker) checkHTTP(ctx context.Context, desc *registry.ServiceDescriptor) Report {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, desc.Check.URL, http.NoBody)
	if err != nil {
		return Report{Status: StatusUnreachable, LastError: err.Error()}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return classifyError(ctx, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, bodyReadLimit))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Report{
			Status:    StatusUnreachable,
			LastError: fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}

	if err := validateBody(desc.Check.Schema, body); err != nil {
		return Report{Status: StatusDegraded, LastError: err.Error()}
	}
	return Report{Status: StatusHealthy}
}

func classifyError(ctx context.Context, err error) Report {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Report{Status: StatusTimedOut, LastError: "timed out"}
	}
	return Report{Status: StatusUnreachable, LastError: err.Error()}
}

// validateBody applies the service-specific schema check to a 2xx body.
func validateBody(schema registry.Schema, body []byte) error {
	switch schema {
	case registry.SchemaLiteLLM:
		// The proxy reports {"status": "..."} on its liveness endpoint;
		// anything other than a healthy/ok status is degraded.
		var payload struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil // non-JSON liveness bodies are accepted as-is
		}
		switch strings.ToLower(payload.Status) {
		case "", "healthy", "ok", "alive":
			return nil
		default:
			return fmt.Errorf("proxy reports status %q", payload.Status)
		}
	case registry.SchemaModel:
		text := strings.ToLower(string(body))
		if len(strings.TrimSpace(text)) == 0 {
			// Model servers answer an empty 200 on /health before the
			// body-producing variants; treat that as healthy.
			return nil
		}
		if strings.Contains(text, "healthy") || strings.Contains(text, "ok") {
			return nil
		}
		return errors.New("model endpoint body lacks readiness marker")
	default:
		return nil
	}
}

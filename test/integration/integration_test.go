//go:build integration

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/nholik/fleetctl/internal/composefile"
	"github.com/nholik/fleetctl/internal/runtime"
)

// TestIntegrationDockerRuntime verifies network provisioning and compose
// parsing against a real Docker daemon.
//
// Prerequisites:
//   - Docker daemon running and reachable via FLEET_DOCKER_HOST or the
//     default socket
//
// Run with: go test -tags=integration -v ./test/integration/...
func TestIntegrationDockerRuntime(t *testing.T) {
	host := os.Getenv("FLEET_DOCKER_HOST")

	client, err := runtime.NewDockerClient(host, 10*time.Second)
	if err != nil {
		t.Fatalf("create docker client: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		t.Skipf("docker daemon not reachable: %v", err)
	}

	t.Run("NetworkLifecycle", func(t *testing.T) {
		const name = "fleetctl-integration-net"

		if err := client.EnsureNetwork(ctx, name); err != nil {
			t.Fatalf("ensure network: %v", err)
		}
		// Second ensure must be a no-op against the existing network.
		if err := client.EnsureNetwork(ctx, name); err != nil {
			t.Fatalf("ensure network (existing): %v", err)
		}
		if err := client.RemoveNetwork(ctx, name); err != nil {
			t.Fatalf("remove network: %v", err)
		}
		if err := client.RemoveNetwork(ctx, name); err != nil {
			t.Fatalf("remove network (absent): %v", err)
		}
	})

	t.Run("ListProjectContainers", func(t *testing.T) {
		containers, err := client.ListProjectContainers(ctx, "fleetctl-integration-absent")
		if err != nil {
			t.Fatalf("list containers: %v", err)
		}
		if len(containers) != 0 {
			t.Fatalf("expected no containers for absent project, got %d", len(containers))
		}
	})
}

func TestIntegrationComposeParse(t *testing.T) {
	body := []byte(`
services:
  vllm-qwen25:
    image: vllm/vllm-openai:latest
    deploy:
      replicas: 2
  litellm:
    image: ghcr.io/berriai/litellm:main-latest
`)

	unit, err := composefile.ParseUnit(context.Background(), body)
	if err != nil {
		t.Fatalf("parse unit: %v", err)
	}
	if len(unit.Services) != 2 {
		t.Fatalf("expected 2 services, got %d", len(unit.Services))
	}
	if unit.Services["vllm-qwen25"].Replicas != 2 {
		t.Fatalf("expected 2 replicas, got %d", unit.Services["vllm-qwen25"].Replicas)
	}
}

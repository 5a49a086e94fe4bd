package runtime

import (
	"context"
	"errors"
	"testing"
	"time"

	dockertypes "github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/errdefs"
)

type fakeDockerAPI struct {
	networks map[string]bool

	inspectErr error
	createErr  error
	removeErr  error

	createCalls  int
	removeCalls  int
	inspectCalls int

	containers   []dockertypes.Container
	containerErr error
}

func (f *fakeDockerAPI) Ping(ctx context.Context) (dockertypes.Ping, error) {
	return dockertypes.Ping{}, nil
}

func (f *fakeDockerAPI) NetworkInspect(ctx context.Context, networkID string, options dockertypes.NetworkInspectOptions) (dockertypes.NetworkResource, error) {
	f.inspectCalls++
	if f.inspectErr != nil {
		return dockertypes.NetworkResource{}, f.inspectErr
	}
	if f.networks[networkID] {
		return dockertypes.NetworkResource{Name: networkID}, nil
	}
	return dockertypes.NetworkResource{}, errdefs.NotFound(errors.New("no such network"))
}

func (f *fakeDockerAPI) NetworkCreate(ctx context.Context, name string, options dockertypes.NetworkCreate) (dockertypes.NetworkCreateResponse, error) {
	f.createCalls++
	if f.createErr != nil {
		return dockertypes.NetworkCreateResponse{}, f.createErr
	}
	if f.networks == nil {
		f.networks = map[string]bool{}
	}
	f.networks[name] = true
	return dockertypes.NetworkCreateResponse{ID: "net-" + name}, nil
}

func (f *fakeDockerAPI) NetworkRemove(ctx context.Context, networkID string) error {
	f.removeCalls++
	if f.removeErr != nil {
		return f.removeErr
	}
	if !f.networks[networkID] {
		return errdefs.NotFound(errors.New("no such network"))
	}
	delete(f.networks, networkID)
	return nil
}

func (f *fakeDockerAPI) ContainerList(ctx context.Context, options container.ListOptions) ([]dockertypes.Container, error) {
	if f.containerErr != nil {
		return nil, f.containerErr
	}
	return f.containers, nil
}

func (f *fakeDockerAPI) Close() error { return nil }

func newTestClient(api dockerAPI) *DockerClient {
	return &DockerClient{api: api, timeout: time.Second}
}

func TestEnsureNetwork_CreatesWhenMissing(t *testing.T) {
	api := &fakeDockerAPI{}
	client := newTestClient(api)

	if err := client.EnsureNetwork(context.Background(), "llm-net"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.createCalls != 1 {
		t.Fatalf("expected one create call, got %d", api.createCalls)
	}
}

func TestEnsureNetwork_Idempotent(t *testing.T) {
	api := &fakeDockerAPI{networks: map[string]bool{"llm-net": true}}
	client := newTestClient(api)

	for i := 0; i < 2; i++ {
		if err := client.EnsureNetwork(context.Background(), "llm-net"); err != nil {
			t.Fatalf("call %d: unexpected error: %v", i+1, err)
		}
	}
	if api.createCalls != 0 {
		t.Fatalf("expected no create calls, got %d", api.createCalls)
	}
}

func TestEnsureNetwork_ConcurrentCreateConflictIsSuccess(t *testing.T) {
	api := &fakeDockerAPI{
		createErr: errdefs.Conflict(errors.New("network already exists")),
	}
	client := newTestClient(api)

	if err := client.EnsureNetwork(context.Background(), "llm-net"); err != nil {
		t.Fatalf("expected conflict to be success, got %v", err)
	}
}

func TestEnsureNetwork_CreateFailure(t *testing.T) {
	api := &fakeDockerAPI{createErr: errors.New("daemon on fire")}
	client := newTestClient(api)

	err := client.EnsureNetwork(context.Background(), "llm-net")
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if netErr.Op != "create" || netErr.Network != "llm-net" {
		t.Fatalf("unexpected error detail: %+v", netErr)
	}
}

func TestRemoveNetwork_AbsenceIsSuccess(t *testing.T) {
	api := &fakeDockerAPI{}
	client := newTestClient(api)

	if err := client.RemoveNetwork(context.Background(), "llm-net"); err != nil {
		t.Fatalf("expected missing network removal to succeed, got %v", err)
	}
}

func TestRemoveNetwork_Failure(t *testing.T) {
	api := &fakeDockerAPI{removeErr: errors.New("network in use")}
	client := newTestClient(api)

	err := client.RemoveNetwork(context.Background(), "llm-net")
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestListProjectContainers(t *testing.T) {
	api := &fakeDockerAPI{
		containers: []dockertypes.Container{
			{
				Names:  []string{"/vllm-qwen25-2"},
				State:  "running",
				Status: "Up 3 hours",
				Labels: map[string]string{composeServiceLabel: "qwen25"},
			},
			{
				Names:  []string{"/vllm-qwen25-1"},
				State:  "exited",
				Status: "Exited (1) 2 minutes ago",
				Labels: map[string]string{composeServiceLabel: "qwen25"},
			},
		},
	}
	client := newTestClient(api)

	infos, err := client.ListProjectContainers(context.Background(), "vllm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 containers, got %d", len(infos))
	}
	if infos[0].Name != "vllm-qwen25-1" || infos[1].Name != "vllm-qwen25-2" {
		t.Fatalf("expected sorted names, got %v", infos)
	}
	if infos[0].Service != "qwen25" || infos[0].State != "exited" {
		t.Fatalf("unexpected container info: %+v", infos[0])
	}
}

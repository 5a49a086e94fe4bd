package runtime

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	dockertypes "github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
)

const defaultAPITimeout = 10 * time.Second

// composeProjectLabel is the label docker compose stamps on every container
// it manages.
const (
	composeProjectLabel = "com.docker.compose.project"
	composeServiceLabel = "com.docker.compose.service"
)

// dockerAPI is the subset of Docker client operations used by DockerClient.
// An interface so tests can run without a Docker daemon.
type dockerAPI interface {
	Ping(ctx context.Context) (dockertypes.Ping, error)
	NetworkInspect(ctx context.Context, networkID string, options dockertypes.NetworkInspectOptions) (dockertypes.NetworkResource, error)
	NetworkCreate(ctx context.Context, name string, options dockertypes.NetworkCreate) (dockertypes.NetworkCreateResponse, error)
	NetworkRemove(ctx context.Context, networkID string) error
	ContainerList(ctx context.Context, options container.ListOptions) ([]dockertypes.Container, error)
	Close() error
}

// DockerClient implements Networker and ContainerLister using the official
// Docker Go SDK.
type DockerClient struct {
	api     dockerAPI
	timeout time.Duration
}

// NewDockerClient initializes a Docker client for the given API host. An
// empty host uses the SDK's environment defaults.
func NewDockerClient(host string, timeout time.Duration) (*DockerClient, error) {
	if timeout <= 0 {
		timeout = defaultAPITimeout
	}

	httpClient := &http.Client{Timeout: timeout}

	opts := []client.Opt{
		client.WithAPIVersionNegotiation(),
		client.WithHTTPClient(httpClient),
	}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}

	api, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, err
	}

	return &DockerClient{api: api, timeout: timeout}, nil
}

// Ping validates connectivity to the Docker daemon.
func (c *DockerClient) Ping(ctx context.Context) error {
	if c == nil || c.api == nil {
		return errors.New("docker client is not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.api.Ping(ctx)
	return err
}

// EnsureNetwork creates the named bridge network if it does not already
// exist. A concurrent create racing this call is treated as success.
func (c *DockerClient) EnsureNetwork(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.api.NetworkInspect(ctx, name, dockertypes.NetworkInspectOptions{})
	if err == nil {
		return nil
	}
	if !errdefs.IsNotFound(err) {
		return &NetworkError{Op: "inspect", Network: name, Err: err}
	}

	_, err = c.api.NetworkCreate(ctx, name, dockertypes.NetworkCreate{
		Driver:     "bridge",
		Attachable: true,
	})
	if err != nil && !errdefs.IsConflict(err) {
		return &NetworkError{Op: "create", Network: name, Err: err}
	}
	return nil
}

// RemoveNetwork removes the named network. A missing network is success.
func (c *DockerClient) RemoveNetwork(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.api.NetworkRemove(ctx, name); err != nil && !errdefs.IsNotFound(err) {
		return &NetworkError{Op: "remove", Network: name, Err: err}
	}
	return nil
}

// ListProjectContainers returns containers labeled with the given compose
// project, including stopped ones, sorted by name.
func (c *DockerClient) ListProjectContainers(ctx context.Context, project string) ([]ContainerInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	containers, err := c.api.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("label", composeProjectLabel+"="+project)),
	})
	if err != nil {
		return nil, err
	}

	result := make([]ContainerInfo, 0, len(containers))
	for _, item := range containers {
		name := ""
		if len(item.Names) > 0 {
			name = strings.TrimPrefix(item.Names[0], "/")
		}
		result = append(result, ContainerInfo{
			Name:    name,
			Service: item.Labels[composeServiceLabel],
			State:   item.State,
			Status:  item.Status,
		})
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Close releases resources associated with the client.
func (c *DockerClient) Close() error {
	if c == nil || c.api == nil {
		return nil
	}
	return c.api.Close()
}

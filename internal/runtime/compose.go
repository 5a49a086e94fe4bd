package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nholik/fleetctl/internal/registry"
)

const outputTailLimit = 512

// commandRunner executes an external command and returns its combined output.
// An interface so tests can observe issued commands without a docker binary.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ComposeRunner drives compose units through the docker compose CLI.
type ComposeRunner struct {
	logger zerolog.Logger
	run    commandRunner
}

// ComposeOption customizes ComposeRunner behavior.
type ComposeOption func(*ComposeRunner)

// WithCommandRunner overrides subprocess execution (for tests).
func WithCommandRunner(run commandRunner) ComposeOption {
	return func(c *ComposeRunner) {
		c.run = run
	}
}

// NewComposeRunner constructs a ComposeRunner.
func NewComposeRunner(logger zerolog.Logger, opts ...ComposeOption) *ComposeRunner {
	runner := &ComposeRunner{
		logger: logger,
		run:    execRunner{},
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// Up launches the unit's service detached.
func (c *ComposeRunner) Up(ctx context.Context, handle registry.Handle) error {
	return c.compose(ctx, "up", handle, "up", "--detach", handle.Service)
}

// Stop stops the unit's service.
func (c *ComposeRunner) Stop(ctx context.Context, handle registry.Handle) error {
	return c.compose(ctx, "stop", handle, "stop", handle.Service)
}

// Scale adjusts the service's replica count without touching its
// dependencies or recreating unchanged replicas.
func (c *ComposeRunner) Scale(ctx context.Context, handle registry.Handle, replicas int) error {
	return c.compose(ctx, "scale", handle,
		"up", "--detach", "--no-deps", "--no-recreate",
		"--scale", fmt.Sprintf("%s=%d", handle.Service, replicas),
		handle.Service,
	)
}

// Pull fetches the service's current image.
func (c *ComposeRunner) Pull(ctx context.Context, handle registry.Handle) error {
	return c.compose(ctx, "pull", handle, "pull", handle.Service)
}

func (c *ComposeRunner) compose(ctx context.Context, op string, handle registry.Handle, args ...string) error {
	full := append([]string{
		"compose",
		"--file", handle.ComposeFile,
		"--project-name", handle.Project,
	}, args...)

	c.logger.Debug().
		Str("op", op).
		Str("service", handle.Service).
		Str("project", handle.Project).
		Msg("issuing compose command")

	output, err := c.run.Run(ctx, "docker", full...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return &LaunchError{
			Service: handle.Service,
			Op:      op,
			Output:  tail(output),
			Err:     err,
		}
	}
	return nil
}

// tail keeps the last chunk of command output, where compose puts the error.
func tail(output []byte) string {
	text := strings.TrimSpace(string(output))
	if len(text) > outputTailLimit {
		text = "..." + text[len(text)-outputTailLimit:]
	}
	return text
}

// IsTimeout reports whether a lifecycle error was caused by the per-service
// launch deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

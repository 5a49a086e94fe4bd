package runtime

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nholik/fleetctl/internal/registry"
)

type fakeCommandRunner struct {
	calls  [][]string
	output []byte
	err    error
}

func (f *fakeCommandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.err != nil {
		return f.output, f.err
	}
	return f.output, ctx.Err()
}

var testHandle = registry.Handle{
	ComposeFile: "deploy/vllm/compose.yml",
	Project:     "vllm",
	Service:     "qwen25",
}

func TestComposeRunner_Up(t *testing.T) {
	run := &fakeCommandRunner{}
	runner := NewComposeRunner(zerolog.Nop(), WithCommandRunner(run))

	if err := runner.Up(context.Background(), testHandle); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(run.calls) != 1 {
		t.Fatalf("expected one command, got %d", len(run.calls))
	}

	got := strings.Join(run.calls[0], " ")
	want := "docker compose --file deploy/vllm/compose.yml --project-name vllm up --detach qwen25"
	if got != want {
		t.Fatalf("unexpected command:\n got %s\nwant %s", got, want)
	}
}

func TestComposeRunner_Scale(t *testing.T) {
	run := &fakeCommandRunner{}
	runner := NewComposeRunner(zerolog.Nop(), WithCommandRunner(run))

	if err := runner.Scale(context.Background(), testHandle, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := strings.Join(run.calls[0], " ")
	if !strings.Contains(got, "--scale qwen25=3") {
		t.Fatalf("expected scale flag in command, got %s", got)
	}
	if !strings.Contains(got, "--no-deps") {
		t.Fatalf("expected --no-deps in command, got %s", got)
	}
}

func TestComposeRunner_StopAndPull(t *testing.T) {
	run := &fakeCommandRunner{}
	runner := NewComposeRunner(zerolog.Nop(), WithCommandRunner(run))

	if err := runner.Stop(context.Background(), testHandle); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := runner.Pull(context.Background(), testHandle); err != nil {
		t.Fatalf("pull: %v", err)
	}

	if !strings.Contains(strings.Join(run.calls[0], " "), "stop qwen25") {
		t.Fatalf("unexpected stop command: %v", run.calls[0])
	}
	if !strings.Contains(strings.Join(run.calls[1], " "), "pull qwen25") {
		t.Fatalf("unexpected pull command: %v", run.calls[1])
	}
}

func TestComposeRunner_FailureWrapsLaunchError(t *testing.T) {
	run := &fakeCommandRunner{
		output: []byte("no configuration file provided"),
		err:    errors.New("exit status 14"),
	}
	runner := NewComposeRunner(zerolog.Nop(), WithCommandRunner(run))

	err := runner.Up(context.Background(), testHandle)
	var launchErr *LaunchError
	if !errors.As(err, &launchErr) {
		t.Fatalf("expected LaunchError, got %v", err)
	}
	if launchErr.Service != "qwen25" || launchErr.Op != "up" {
		t.Fatalf("unexpected error detail: %+v", launchErr)
	}
	if !strings.Contains(launchErr.Output, "no configuration file") {
		t.Fatalf("expected command output in error, got %q", launchErr.Output)
	}
}

func TestComposeRunner_DeadlineSurfacesAsTimeout(t *testing.T) {
	run := &fakeCommandRunner{err: errors.New("signal: killed")}
	runner := NewComposeRunner(zerolog.Nop(), WithCommandRunner(run))

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	err := runner.Up(ctx, testHandle)
	if !IsTimeout(err) {
		t.Fatalf("expected timeout classification, got %v", err)
	}
}

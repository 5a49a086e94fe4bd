package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

const stderrTailLimit = 512

// execRunner runs commands through os/exec with redirected streams.
type execRunner struct{}

func (execRunner) Output(ctx context.Context, stdout io.Writer, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return wrapExecError(err, &stderr)
	}
	return nil
}

func (execRunner) Input(ctx context.Context, stdin io.Reader, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return wrapExecError(err, &stderr)
	}
	return nil
}

func wrapExecError(err error, stderr *bytes.Buffer) error {
	text := strings.TrimSpace(stderr.String())
	if len(text) > stderrTailLimit {
		text = "..." + text[len(text)-stderrTailLimit:]
	}
	if text == "" {
		return err
	}
	return fmt.Errorf("%w: %s", err, text)
}

package encoding

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// commandRunner executes binary with args, streaming stdout to the writer.
type commandRunner func(ctx context.Context, binary string, args []string, stdout io.Writer) error

var runCommand commandRunner = execCommand

// SetCommandRunnerForTests overrides the ffmpeg runner during tests.
func SetCommandRunnerForTests(fn func(ctx context.Context, binary string, args []string, stdout io.Writer) error) func() {
	previous := runCommand
	runCommand = fn
	return func() {
		runCommand = previous
	}
}

func execCommand(ctx context.Context, binary string, args []string, stdout io.Writer) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stdout = stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%s: %w: %s", binary, err, tail(stderr.String(), 2048))
	}
	return nil
}

func tail(value string, limit int) string {
	value = strings.TrimSpace(value)
	if len(value) <= limit {
		return value
	}
	return "..." + value[len(value)-limit:]
}

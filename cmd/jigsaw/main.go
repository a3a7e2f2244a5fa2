package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"jigsawreveal/internal/services"
)

func main() {
	// A missing .env is normal.
	_ = godotenv.Load()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command tree and maps failures to an exit status.
func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(stderr, formatError(err))
		}
		return 1
	}
	return 0
}

func formatError(err error) string {
	return fmt.Sprintf("error: %s: %v", services.Kind(err), err)
}

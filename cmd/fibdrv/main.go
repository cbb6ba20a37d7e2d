// Command fibdrv computes exact Fibonacci numbers, serves them over HTTP,
// and benchmarks the Fibonacci device.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/agbru/fibdrv/internal/app"
	apperrors "github.com/agbru/fibdrv/internal/errors"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	if app.HasVersionFlag(args[1:]) {
		app.PrintVersion(os.Stdout)
		return apperrors.ExitSuccess
	}

	application, err := app.New(args, os.Stderr)
	if err != nil {
		if app.IsHelpError(err) {
			return apperrors.ExitSuccess
		}
		var cfgErr apperrors.ConfigError
		if errors.As(err, &cfgErr) {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		}
		return apperrors.ExitErrorConfig
	}
	return application.Run(context.Background(), os.Stdout)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/doeshing/socprobe/internal/infrastructure/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(cli.Options{Verbose: isVerbose()})
	err := root.ExecuteContext(ctx)
	stop()

	var exitErr *cli.ExitError
	switch {
	case err == nil:
		return
	case errors.As(err, &exitErr):
		if exitErr.Err != nil {
			fmt.Fprintln(os.Stderr, "error:", exitErr.Err)
		}
		os.Exit(exitErr.Code)
	default:
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func isVerbose() bool {
	return strings.EqualFold(os.Getenv("SOCPROBE_DEBUG"), "1") || strings.EqualFold(os.Getenv("SOCPROBE_DEBUG"), "true")
}

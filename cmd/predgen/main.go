// Command predgen generates instance methods from predicate factories.
//
// Usage:
//
//	predgen expand Item.swift                # print the expanded source
//	predgen expand catalog.go                # write catalog_predicates.go
//	predgen check Sources/*.swift            # diagnostics only
//	predgen replay --db predgen.db           # verify recorded runs
//	predgen test ./cases                     # run conformance cases
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/predgen/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.NewRootCommand().ExecuteContext(ctx)
	if err == nil {
		return
	}

	// Commands report their own failures; anything else is a usage error.
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		stop()
		os.Exit(exitErr.Code)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	stop()
	os.Exit(cli.ExitCommandError)
}

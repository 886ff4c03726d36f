package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/arthur-debert/revlink/cmd/revlink"
	"github.com/arthur-debert/revlink/pkg/errors"
	"github.com/arthur-debert/revlink/pkg/ui/styles"
)

func main() {
	// Interrupts cancel the running cycle between records.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := revlink.NewRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, styles.Render("Error", fmt.Sprintf("Error: %v", err)))
		os.Exit(errors.ExitCode(err))
	}
}

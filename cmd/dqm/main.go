package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/grovetools/dqm/cli"
	"github.com/grovetools/dqm/cmd"
	"github.com/grovetools/dqm/tui"
)

func main() {
	tui.InitializeTUI()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	rootCmd := cmd.NewRootCmd()

	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
		cli.NewErrorHandler(os.Stderr, verbose).Handle(err)
		os.Exit(1)
	}
}

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/soulchat/soulchat/internal/server"
)

// ServeCmd creates the serve command
func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the SoulChat server",
		Run: func(cmd *cobra.Command, args []string) {
			RunServe()
		},
	}
}

// RunServe runs the server until interrupted
func RunServe() {
	c := loadConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived signal: %v - shutting down...\n", sig)
		cancel()
	}()

	if err := server.Run(ctx, *c, server.ServerOptions{Quiet: quiet}); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

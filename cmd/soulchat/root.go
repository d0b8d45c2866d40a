package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/soulchat/soulchat/internal/config"
)

// Shared CLI flags
var (
	cfgFile string
	quiet   bool
)

// ServerConfig holds the loaded server configuration (set by main)
var ServerConfig *config.Config

// SetupRootCmd configures the root command with all subcommands and flags
func SetupRootCmd(c *config.Config) *cobra.Command {
	ServerConfig = c

	rootCmd := &cobra.Command{
		Use:   "soulchat",
		Short: "SoulChat - conversational roleplay server",
		Long: `SoulChat runs the conversational roleplay backend: multi-provider
AI inference with circuit breakers and fallback, per-session characters,
and proactive re-engagement over WebSocket.

Just type 'soulchat' to start the server.`,
		Run: func(cmd *cobra.Command, args []string) {
			RunServe()
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (overrides the embedded defaults)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress request logging")

	rootCmd.AddCommand(ServeCmd())
	rootCmd.AddCommand(ProvidersCmd())

	return rootCmd
}

// loadConfig returns the effective configuration, preferring --config over
// the embedded defaults.
func loadConfig() *config.Config {
	if cfgFile == "" {
		return ServerConfig
	}
	c, err := config.LoadFromFile(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config %s: %v\n", cfgFile, err)
		os.Exit(1)
	}
	return &c
}

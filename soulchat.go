package main

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	cli "github.com/soulchat/soulchat/cmd/soulchat"
	"github.com/soulchat/soulchat/internal/config"
)

//go:embed etc/soulchat.yaml
var embeddedConfig []byte

func main() {
	// Optional .env for provider API keys, expanded into the config below
	_ = godotenv.Load()

	c, err := config.LoadFromBytes(embeddedConfig)
	if err != nil {
		fmt.Printf("Failed to load embedded config: %v\n", err)
		os.Exit(1)
	}

	if err := cli.SetupRootCmd(&c).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

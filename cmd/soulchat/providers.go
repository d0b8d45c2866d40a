package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soulchat/soulchat/internal/ai"
	"github.com/soulchat/soulchat/internal/logging"
	"github.com/soulchat/soulchat/internal/provider"
)

// ProvidersCmd creates the providers command
func ProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "Show configured AI providers and their fallback order",
		Run: func(cmd *cobra.Command, args []string) {
			logging.Disable()
			showProviders()
		},
	}
}

func showProviders() {
	c := loadConfig()

	models := provider.NewStore(c.Providers.ModelsPath)
	registry := ai.BuildRegistry(*c, models)

	fmt.Println("SoulChat Providers")
	fmt.Println("==================")
	for _, s := range registry.Status() {
		mark := "\033[31m✗\033[0m"
		if s.Configured {
			mark = "\033[32m✓\033[0m"
		}
		fmt.Printf("  %s %s (breaker: %s)\n", mark, s.ID, s.Breaker)
		if m := models.DefaultModel(s.ID); m != "" {
			fmt.Printf("      Model: %s\n", m)
		}
	}
	fmt.Println()
	fmt.Printf("Fallback order: %v\n", registry.Order())
}

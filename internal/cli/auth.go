package cli

import (
	"fmt"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"castpilot/internal/config"
)

// NewAuthCmd creates the auth command.
func NewAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication commands",
		Long:  `Manage the API keys castpilot uses for the Farcaster hub and the LLM provider.`,
	}

	cmd.AddCommand(newAuthHubCmd())
	cmd.AddCommand(newAuthProviderCmd())
	cmd.AddCommand(newAuthStatusCmd())

	return cmd
}

func newAuthHubCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hub",
		Short: "Store the Farcaster hub API key",
		Example: `  # Interactive (recommended, key is not echoed)
  castpilot auth hub

  # Provide the key directly
  castpilot auth hub --key NEYNAR_API_KEY`,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, _ := cmd.Flags().GetString("key")
			return storeKey("farcaster.api_key", "Farcaster hub API key", key)
		},
	}

	cmd.Flags().StringP("key", "k", "", "API key (if not provided, will prompt)")

	return cmd
}

func newAuthProviderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provider",
		Short: "Store the LLM provider API key",
		Example: `  # Interactive (recommended, key is not echoed)
  castpilot auth provider

  # Provide the key directly
  castpilot auth provider --key sk-xxxxx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, _ := cmd.Flags().GetString("key")
			return storeKey("provider.api_key", "LLM provider API key", key)
		},
	}

	cmd.Flags().StringP("key", "k", "", "API key (if not provided, will prompt)")

	return cmd
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which API keys are configured",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			if cfg == nil {
				return fmt.Errorf("configuration not loaded")
			}

			fmt.Println("Authentication Status")
			fmt.Println("---------------------")
			printKeyStatus("Farcaster hub", cfg.Farcaster.APIKey)
			printKeyStatus("LLM provider", cfg.Provider.APIKey)
			return nil
		},
	}
}

// storeKey prompts for the key if needed and persists it.
func storeKey(configKey, label, key string) error {
	if key == "" {
		fmt.Printf("Enter %s: ", label)
		keyBytes, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return fmt.Errorf("read key: %w", err)
		}
		key = strings.TrimSpace(string(keyBytes))
		fmt.Println()
	}

	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}

	if err := config.Set(configKey, key); err != nil {
		return fmt.Errorf("save configuration: %w", err)
	}

	fmt.Printf("✓ %s saved to %s\n", label, config.Path())
	return nil
}

func printKeyStatus(label, key string) {
	if key == "" {
		fmt.Printf("%-14s not configured\n", label+":")
		return
	}
	fmt.Printf("%-14s %s\n", label+":", maskKey(key))
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"castpilot/internal/config"
	"castpilot/internal/storage"
)

// InitOptions holds the init command options.
type InitOptions struct {
	Force bool
}

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	opts := &InitOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize castpilot configuration",
		Long:  "Initialize the castpilot configuration directory, default config file, and database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunInit(opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "overwrite existing configuration")

	return cmd
}

// RunInit creates the configuration directory tree and writes the
// default configuration.
func RunInit(opts *InitOptions) error {
	configDir, err := config.DefaultConfigDir()
	if err != nil {
		return fmt.Errorf("get config dir: %w", err)
	}

	configPath := filepath.Join(configDir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil && !opts.Force {
		return fmt.Errorf("configuration already exists at %s (use --force to overwrite)", configPath)
	}

	dirs := []string{
		configDir,
		filepath.Join(configDir, "logs"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	defaultConfig := map[string]any{
		"log": map[string]any{
			"level":  "info",
			"format": "console",
		},
		"gateway": map[string]any{
			"enabled": true,
			"host":    "127.0.0.1",
			"port":    18990,
		},
		"farcaster": map[string]any{
			"endpoint": "https://api.neynar.com/v2",
			"api_key":  "",
		},
		"provider": map[string]any{
			"endpoint":         "https://api.openai.com/v1",
			"api_key":          "",
			"decision_model":   "gpt-4o-mini",
			"generation_model": "gpt-4o",
		},
		"agents": map[string]any{
			"main": map[string]any{
				"enabled":       false,
				"fid":           0,
				"signer_uuid":   "",
				"poll_interval": 120,
				"dry_run":       true,
			},
		},
	}

	data, err := yaml.Marshal(defaultConfig)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	// Create the database so the first run starts from a ready schema.
	dataPath, err := config.DefaultDataPath()
	if err != nil {
		return fmt.Errorf("get data path: %w", err)
	}

	db, err := storage.Open(dataPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	db.Close()

	fmt.Printf("Initialized castpilot at %s\n", configDir)
	fmt.Printf("  Config:   %s\n", configPath)
	fmt.Printf("  Database: %s\n", dataPath)
	fmt.Println("")
	fmt.Println("Next steps:")
	fmt.Println("  1. castpilot auth hub       # store the Farcaster API key")
	fmt.Println("  2. castpilot auth provider  # store the LLM API key")
	fmt.Println("  3. Edit the agents section of config.yaml")
	fmt.Println("  4. castpilot run")

	return nil
}

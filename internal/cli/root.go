// Package cli implements the castpilot command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"castpilot/internal/config"
	"castpilot/pkg/logger"
)

// GlobalFlags holds the persistent flags shared by all commands.
type GlobalFlags struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool
}

var globalFlags GlobalFlags

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "castpilot",
		Short: "Castpilot - Farcaster auto-reply agent",
		Long: `Castpilot is a long-running agent daemon for Farcaster.
It polls for mentions, decides whether to respond, generates replies
with a language model, and keeps an append-only record of everything
it has handled so no cast is ever answered twice.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// version, help and init run without a loaded configuration.
			switch cmd.Name() {
			case "version", "help", "init":
				return nil
			}

			configPath := globalFlags.ConfigPath
			if configPath == "" {
				var err error
				configPath, err = config.DefaultConfigPath()
				if err != nil {
					return err
				}
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			logLevel := cfg.Log.Level
			if globalFlags.Verbose {
				logLevel = "debug"
			}
			if globalFlags.Quiet {
				logLevel = "error"
			}

			return logger.Init(logger.LogConfig{
				Level:  logLevel,
				Format: cfg.Log.Format,
				File:   cfg.Log.File,
			})
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Close()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&globalFlags.ConfigPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Quiet, "quiet", "q", false, "quiet mode")

	rootCmd.AddCommand(NewVersionCmd())
	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewAuthCmd())
	rootCmd.AddCommand(NewRunCmd())

	return rootCmd
}

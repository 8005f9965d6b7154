package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"castpilot/internal/agent"
	"castpilot/internal/config"
	"castpilot/internal/farcaster"
	"castpilot/internal/gateway"
	"castpilot/internal/provider/openai"
	"castpilot/internal/storage"
	"castpilot/pkg/logger"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the agent daemon",
		Long: `Run the castpilot daemon.

Every enabled agent gets its own poll loop: it fetches recent mentions,
skips anything already answered, and replies to the rest. The daemon
also serves a read-only status API and reloads agents when the config
file changes.`,
		Example: `  # Run with the default configuration
  castpilot run

  # Run with a specific config file
  castpilot run --config ./castpilot.yaml`,
		RunE: runDaemon,
	}

	return cmd
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()
	if cfg == nil {
		return fmt.Errorf("configuration not loaded")
	}

	storagePath := cfg.Storage.Path
	if storagePath == "" {
		var err error
		storagePath, err = config.DefaultDataPath()
		if err != nil {
			return err
		}
	}

	db, err := storage.Open(storagePath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	registry := agent.NewRegistry()
	agents, err := buildAgents(cfg, db)
	if err != nil {
		return err
	}
	if len(agents) == 0 {
		return fmt.Errorf("no enabled agents configured")
	}
	registry.ReplaceAll(agents)
	registry.StartAll()
	defer registry.StopAll()

	logger.Info().Int("agents", registry.Count()).Msg("agent daemon started")

	// Status API.
	var srv *gateway.Server
	serverErr := make(chan error, 1)
	if cfg.Gateway.Enabled {
		srv = gateway.NewServer(&cfg.Gateway, registry, db, Version)
		go func() {
			serverErr <- srv.Start()
		}()
	}

	// Config hot reload: stop the agents, reload, rebuild, restart. The
	// gateway keeps serving through the swap.
	watcher, err := config.NewWatcher(config.Path(), func() {
		logger.Info().Msg("configuration changed, reloading agents")
		if err := reloadAgents(registry, db); err != nil {
			logger.Error().Err(err).Msg("config reload failed, agents stopped")
		}
	})
	if err != nil {
		logger.Warn().Err(err).Msg("config watcher unavailable, hot reload disabled")
	} else {
		if err := watcher.Start(); err != nil {
			logger.Warn().Err(err).Msg("config watcher failed to start")
		}
		defer watcher.Stop()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serverErr:
		if err != nil {
			logger.Error().Err(err).Msg("status server error")
			return err
		}
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("status server shutdown failed")
		}
	}

	return nil
}

// buildAgents constructs a scheduler for every enabled agent.
func buildAgents(cfg *config.Config, db *storage.DB) ([]*agent.Agent, error) {
	client := farcaster.NewClient(farcaster.Config{
		Endpoint: cfg.Farcaster.Endpoint,
		APIKey:   cfg.Farcaster.APIKey,
		Timeout:  cfg.Farcaster.GetTimeout(),
	})

	p := openai.New(openai.Config{
		APIKey:    cfg.Provider.APIKey,
		Endpoint:  cfg.Provider.Endpoint,
		MaxTokens: cfg.Provider.MaxTokens,
		Timeout:   cfg.Provider.GetTimeout(),
	})

	var agents []*agent.Agent
	for name, agentCfg := range cfg.Agents {
		if !agentCfg.IsEnabled() {
			logger.Info().Str("agent", name).Msg("agent disabled, skipping")
			continue
		}
		if err := agentCfg.Validate(); err != nil {
			return nil, fmt.Errorf("agent %s: %w", name, err)
		}

		manager := agent.NewInteractionManager(name, agentCfg, cfg.Provider, client, db, p)
		agents = append(agents, &agent.Agent{
			Name:      name,
			Config:    agentCfg,
			Scheduler: agent.NewScheduler(name, agentCfg.GetPollInterval(), manager),
		})
	}

	return agents, nil
}

// reloadAgents swaps the running agent set for the one described by the
// configuration file on disk.
func reloadAgents(registry *agent.Registry, db *storage.DB) error {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("reload config: %w", err)
	}

	agents, err := buildAgents(cfg, db)
	if err != nil {
		return err
	}

	registry.StopAll()
	registry.ReplaceAll(agents)
	registry.StartAll()

	logger.Info().Int("agents", registry.Count()).Msg("agents reloaded")
	return nil
}

package config

import "github.com/spf13/viper"

// SetDefaults registers default values for all configuration keys.
func SetDefaults() {
	// Log
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("log.file", "")

	// Storage
	viper.SetDefault("storage.path", "~/.castpilot/data.db")

	// Gateway (read-only status API)
	viper.SetDefault("gateway.enabled", true)
	viper.SetDefault("gateway.host", "127.0.0.1")
	viper.SetDefault("gateway.port", 18990)

	// Farcaster hub API
	viper.SetDefault("farcaster.endpoint", "https://api.neynar.com/v2")
	viper.SetDefault("farcaster.timeout", "30s")

	// LLM provider
	viper.SetDefault("provider.endpoint", "https://api.openai.com/v1")
	viper.SetDefault("provider.decision_model", "gpt-4o-mini")
	viper.SetDefault("provider.generation_model", "gpt-4o")
	viper.SetDefault("provider.max_tokens", 1024)
	viper.SetDefault("provider.timeout", "2m")
}

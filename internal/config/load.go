package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load initializes the configuration from file and environment variables.
func Load(cfgFile string) {
	// explicit .env loading; missing file is fine
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("PROJECTMAKER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// LLM gateway defaults
	viper.SetDefault("ollama.url", "http://localhost:11434")
	viper.SetDefault("ollama.model", "llama3")
	viper.SetDefault("ollama.temperature", 0.7)
	viper.SetDefault("ollama.top_p", 0.9)
	viper.SetDefault("ollama.num_predict", 4096)

	// Storage defaults
	viper.SetDefault("db.type", "sqlite")
	viper.SetDefault("db.connection", ".projectmaker.db")

	// Shell execution defaults
	viper.SetDefault("shell.mode", "local")
	viper.SetDefault("shell.step_timeout", 600)
	viper.SetDefault("shell.mock_failure_rate", 0.05)

	// Web board defaults
	viper.SetDefault("web.port", 8321)

	viper.SetDefault("verbose", false)

	// Notification defaults
	slackEnabled := os.Getenv("SLACK_BOT_USER_TOKEN") != "" || os.Getenv("SLACK_WEBHOOK_URL") != ""
	viper.SetDefault("notifications.slack.enabled", slackEnabled)
	viper.SetDefault("notifications.slack.channel", "#general")
	viper.SetDefault("notifications.slack.events.on_start", true)
	viper.SetDefault("notifications.slack.events.on_success", true)
	viper.SetDefault("notifications.slack.events.on_failure", true)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ValidateConfig validates configuration values and returns an error if any are invalid.
// This function should be called after viper has loaded the configuration.
func ValidateConfig() error {
	var errors []string

	switch dbType := strings.ToLower(viper.GetString("db.type")); dbType {
	case "sqlite", "sqlite3", "postgres", "postgresql", "":
	default:
		errors = append(errors, fmt.Sprintf("db.type must be sqlite or postgres, got: %s", dbType))
	}

	switch mode := strings.ToLower(viper.GetString("shell.mode")); mode {
	case "local", "mock", "":
	default:
		errors = append(errors, fmt.Sprintf("shell.mode must be local or mock, got: %s", mode))
	}

	if t := viper.GetInt("shell.step_timeout"); t <= 0 {
		errors = append(errors, fmt.Sprintf("shell.step_timeout must be positive, got: %d", t))
	}

	if rate := viper.GetFloat64("shell.mock_failure_rate"); rate < 0 || rate > 1 {
		errors = append(errors, fmt.Sprintf("shell.mock_failure_rate must be between 0 and 1, got: %v", rate))
	}

	if port := viper.GetInt("web.port"); port < 0 || port > 65535 {
		errors = append(errors, fmt.Sprintf("web.port must be a valid port, got: %d", port))
	}

	if viper.GetString("ollama.url") == "" {
		errors = append(errors, "ollama.url must not be empty")
	}

	if len(errors) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}

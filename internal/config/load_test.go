package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	Load("")

	cases := map[string]any{
		"ollama.url":         "http://localhost:11434",
		"ollama.model":       "llama3",
		"db.type":            "sqlite",
		"db.connection":      ".projectmaker.db",
		"shell.mode":         "local",
		"shell.step_timeout": 600,
		"web.port":           8321,
	}
	for key, want := range cases {
		if got := viper.Get(key); got != want {
			t.Errorf("default %s = %v, want %v", key, got, want)
		}
	}

	if err := ValidateConfig(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	t.Setenv("PROJECTMAKER_OLLAMA_MODEL", "mistral")
	Load("")

	if got := viper.GetString("ollama.model"); got != "mistral" {
		t.Errorf("env override ignored, got %q", got)
	}
}

func TestValidateConfigRejectsBadValues(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	Load("")

	viper.Set("db.type", "mongodb")
	viper.Set("shell.mode", "remote")
	viper.Set("shell.step_timeout", -1)
	viper.Set("shell.mock_failure_rate", 1.5)
	viper.Set("web.port", 99999)
	viper.Set("ollama.url", "")

	err := ValidateConfig()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	for _, fragment := range []string{"db.type", "shell.mode", "step_timeout", "mock_failure_rate", "web.port", "ollama.url"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("error should mention %s: %v", fragment, err)
		}
	}
}

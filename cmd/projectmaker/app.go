package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/ASHUVINAYAK1/project-maker/internal/db"
	"github.com/ASHUVINAYAK1/project-maker/internal/gateway"
	"github.com/ASHUVINAYAK1/project-maker/internal/notify"
	"github.com/ASHUVINAYAK1/project-maker/internal/orchestrator"
	"github.com/ASHUVINAYAK1/project-maker/internal/shell"
	"github.com/ASHUVINAYAK1/project-maker/internal/store"
)

// app bundles the wired components a subcommand needs. Close releases the
// underlying database.
type app struct {
	backend    db.Store
	store      *store.FeatureStore
	gateway    *gateway.Client
	orch       *orchestrator.Orchestrator
	controller *orchestrator.Controller
}

func (a *app) Close() error {
	return a.backend.Close()
}

// newApp wires storage, gateway, executor, and orchestrator from config.
func newApp() (*app, error) {
	backend, err := db.NewStore(db.StoreConfig{
		Type:             viper.GetString("db.type"),
		ConnectionString: viper.GetString("db.connection"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	fs := store.NewFeatureStore(backend)
	gw := gateway.NewClient(viper.GetString("ollama.url"))

	var executor shell.Executor
	switch viper.GetString("shell.mode") {
	case "mock":
		mock := shell.NewMockExecutor()
		mock.FailureRate = viper.GetFloat64("shell.mock_failure_rate")
		executor = mock
	default:
		executor = shell.NewLocalExecutor()
	}

	orch := orchestrator.New(fs, gw, executor, notify.NewManager(), orchestrator.Config{
		Model:       viper.GetString("ollama.model"),
		StepTimeout: time.Duration(viper.GetInt("shell.step_timeout")) * time.Second,
		Options: &gateway.GenerateOptions{
			Temperature: viper.GetFloat64("ollama.temperature"),
			TopP:        viper.GetFloat64("ollama.top_p"),
			NumPredict:  viper.GetInt("ollama.num_predict"),
		},
	})

	return &app{
		backend:    backend,
		store:      fs,
		gateway:    gw,
		orch:       orch,
		controller: orchestrator.NewController(fs, orch),
	}, nil
}

// Package orchestrator drives automation runs: it asks the LLM gateway for an
// ordered plan of shell commands, executes them one by one, and streams
// progress into the feature's automation log and status.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ASHUVINAYAK1/project-maker/internal/db"
	"github.com/ASHUVINAYAK1/project-maker/internal/gateway"
	"github.com/ASHUVINAYAK1/project-maker/internal/notify"
	"github.com/ASHUVINAYAK1/project-maker/internal/prompt"
	"github.com/ASHUVINAYAK1/project-maker/internal/shell"
	"github.com/ASHUVINAYAK1/project-maker/internal/store"
	"github.com/ASHUVINAYAK1/project-maker/internal/telemetry"
)

// ErrRunInProgress is returned when a run is triggered for a feature whose
// previous run has not finished.
var ErrRunInProgress = errors.New("automation run already in progress for this feature")

// StepError reports a plan step whose command exited non-zero. The run aborts
// at the failing step; already-executed steps are not rolled back.
type StepError struct {
	Step       string
	ExitCode   int
	StderrTail string
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q failed with exit code %d: %s", e.Step, e.ExitCode, e.StderrTail)
}

// Config tunes an Orchestrator.
type Config struct {
	Model string
	// StepTimeout bounds each shell command (default 10 minutes).
	StepTimeout time.Duration
	Options     *gateway.GenerateOptions
}

// Orchestrator owns the automation-run state machine. One run per feature may
// be active at a time; concurrent triggers fail with ErrRunInProgress.
type Orchestrator struct {
	store    *store.FeatureStore
	gateway  *gateway.Client
	executor shell.Executor
	notifier *notify.Manager
	cfg      Config

	mu      sync.Mutex
	running map[string]bool
	current map[string]string
}

// New creates an orchestrator.
func New(fs *store.FeatureStore, gw *gateway.Client, executor shell.Executor, notifier *notify.Manager, cfg Config) *Orchestrator {
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = 10 * time.Minute
	}
	if notifier == nil {
		notifier = (&notify.Manager{}).WithNotifier(notify.Noop{})
	}
	return &Orchestrator{
		store:    fs,
		gateway:  gw,
		executor: executor,
		notifier: notifier,
		cfg:      cfg,
		running:  make(map[string]bool),
		current:  make(map[string]string),
	}
}

// CurrentStep returns the step name a running feature is on, for UI feedback.
func (o *Orchestrator) CurrentStep(featureID string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current[featureID]
}

// IsRunning reports whether a run is active for the feature.
func (o *Orchestrator) IsRunning(featureID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running[featureID]
}

func (o *Orchestrator) setCurrentStep(featureID, step string) {
	o.mu.Lock()
	o.current[featureID] = step
	o.mu.Unlock()
}

// splitCommand splits a plan command into program and arguments on
// whitespace. The planner contract is one shell command per step.
func splitCommand(command string) (string, []string) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}

// stderrTail keeps the last part of captured stderr for error messages.
func stderrTail(stderr string) string {
	const maxTail = 500
	trimmed := strings.TrimSpace(stderr)
	if len(trimmed) > maxTail {
		return "..." + trimmed[len(trimmed)-maxTail:]
	}
	return trimmed
}

// RunFeature executes one automation run for the feature. It resolves the
// feature and project before mutating any state, then converts every failure
// inside the run into automationStatus=failed plus an error log entry. The
// returned error carries the same message for the caller to display.
func (o *Orchestrator) RunFeature(ctx context.Context, featureID string) error {
	// Guards: nothing is mutated unless both resolve.
	feature, err := o.store.Get(featureID)
	if err != nil {
		return fmt.Errorf("feature not found: %w", err)
	}
	project, err := o.store.GetProject(feature.ProjectID)
	if err != nil {
		return fmt.Errorf("project not found: %w", err)
	}

	o.mu.Lock()
	if o.running[featureID] {
		o.mu.Unlock()
		return ErrRunInProgress
	}
	o.running[featureID] = true
	o.mu.Unlock()

	// Finally-style guarantee: the running flag always clears, whatever the
	// outcome.
	defer func() {
		o.mu.Lock()
		delete(o.running, featureID)
		o.mu.Unlock()
	}()

	runErr := o.run(ctx, feature, project)
	if runErr != nil {
		if err := o.store.UpdateAutomationStatus(featureID, db.AutomationFailed); err != nil {
			telemetry.LogError("Failed to persist failed automation status", err, "feature", featureID)
		}
		if err := o.store.AppendAutomationLog(featureID, "Automation", runErr.Error(), db.LogError); err != nil {
			telemetry.LogError("Failed to append failure log", err, "feature", featureID)
		}
		telemetry.TrackRun("failed")
		o.notifier.Notify(ctx, notify.EventFailure,
			fmt.Sprintf("Automation failed for %q: %s", feature.Title, runErr.Error()))
		return runErr
	}

	telemetry.TrackRun("success")
	o.notifier.Notify(ctx, notify.EventSuccess,
		fmt.Sprintf("Automation succeeded for %q", feature.Title))
	return nil
}

// GenerateFeatures asks the model for a feature breakdown of the project and
// imports the result as one atomic backlog batch.
func (o *Orchestrator) GenerateFeatures(ctx context.Context, projectID string) ([]*db.Feature, error) {
	project, err := o.store.GetProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("project not found: %w", err)
	}

	genPrompt, err := prompt.BuildFeatureGenerationPrompt(project.Name, project.Description)
	if err != nil {
		return nil, fmt.Errorf("failed to build generation prompt: %w", err)
	}

	response, err := o.gateway.Generate(ctx, gateway.GenerateRequest{
		Model:   o.cfg.Model,
		Prompt:  genPrompt,
		Options: o.cfg.Options,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate features: %w", err)
	}

	generated, err := prompt.ParseFeatureGenerationResponse(response)
	if err != nil {
		return nil, err
	}

	return o.store.CreateBatch(projectID, generated)
}

func (o *Orchestrator) run(ctx context.Context, feature *db.Feature, project *db.Project) error {
	id := feature.ID

	// Fresh run: prior logs are cleared exactly once, here.
	if err := o.store.ClearAutomationLogs(id); err != nil {
		return fmt.Errorf("failed to reset automation logs: %w", err)
	}
	if err := o.store.UpdateAutomationStatus(id, db.AutomationRunning); err != nil {
		return fmt.Errorf("failed to mark automation running: %w", err)
	}

	o.setCurrentStep(id, "Analyzing")
	o.appendLog(id, "Analysis", "Analyzing feature and generating implementation plan", db.LogInfo)
	o.notifier.Notify(ctx, notify.EventStart,
		fmt.Sprintf("Automation started for %q", feature.Title))

	planPrompt, err := prompt.BuildAutomationPlanPrompt(project.Path, feature.Title, feature.Description, feature.KeyPoints)
	if err != nil {
		return fmt.Errorf("failed to build plan prompt: %w", err)
	}

	response, err := o.gateway.Generate(ctx, gateway.GenerateRequest{
		Model:   o.cfg.Model,
		Prompt:  planPrompt,
		Options: o.cfg.Options,
	})
	if err != nil {
		return fmt.Errorf("failed to generate implementation plan: %w", err)
	}

	steps := prompt.ParseAutomationPlanResponse(response)
	if len(steps) == 0 {
		return errors.New("AI failed to generate implementation steps")
	}

	o.appendLog(id, "Plan", fmt.Sprintf("Generated %d implementation steps", len(steps)), db.LogSuccess)

	for _, step := range steps {
		if err := o.runStep(ctx, id, project.Path, step); err != nil {
			return err
		}
	}

	if err := o.store.UpdateAutomationStatus(id, db.AutomationSuccess); err != nil {
		return fmt.Errorf("failed to mark automation successful: %w", err)
	}
	o.appendLog(id, "Finished", "All steps completed successfully", db.LogSuccess)
	o.setCurrentStep(id, "Finished")
	return nil
}

func (o *Orchestrator) runStep(ctx context.Context, featureID, projectPath string, step prompt.PlanStep) error {
	o.setCurrentStep(featureID, step.Step)
	o.appendLog(featureID, step.Step, fmt.Sprintf("Starting step: %s", step.Step), db.LogInfo)
	o.appendLog(featureID, step.Step, fmt.Sprintf("Running: %s", step.Command), db.LogInfo)

	program, args := splitCommand(step.Command)
	if program == "" {
		return &StepError{Step: step.Step, ExitCode: -1, StderrTail: "empty command"}
	}

	stepCtx, cancel := context.WithTimeout(ctx, o.cfg.StepTimeout)
	defer cancel()

	start := time.Now()
	result, err := o.executor.Execute(stepCtx, program, shell.ExecOptions{
		Args: args,
		Dir:  projectPath,
		OnStdout: func(line string) {
			o.appendLog(featureID, step.Step, line, db.LogInfo)
		},
		OnStderr: func(line string) {
			o.appendLog(featureID, step.Step, line, db.LogWarning)
		},
	})
	if err != nil {
		telemetry.TrackStep("error", time.Since(start))
		return fmt.Errorf("failed to execute step %q: %w", step.Step, err)
	}

	if result.ExitCode != 0 {
		telemetry.TrackStep("failed", time.Since(start))
		return &StepError{
			Step:       step.Step,
			ExitCode:   result.ExitCode,
			StderrTail: stderrTail(result.Stderr),
		}
	}

	telemetry.TrackStep("success", time.Since(start))
	o.appendLog(featureID, step.Step, fmt.Sprintf("Completed step: %s", step.Step), db.LogSuccess)
	return nil
}

// appendLog records a log line; persistence failures are logged and do not
// abort the run, since the shell command already happened.
func (o *Orchestrator) appendLog(featureID, step, message string, logType db.LogType) {
	if err := o.store.AppendAutomationLog(featureID, step, message, logType); err != nil {
		telemetry.LogError("Failed to append automation log", err, "feature", featureID, "step", step)
	}
}

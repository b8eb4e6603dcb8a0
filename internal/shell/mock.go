package shell

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// MockExecutor simulates command execution when no native execution host is
// present. It sleeps 1-3s and succeeds with a synthetic message most of the
// time; FailureRate controls the injected failure fraction.
type MockExecutor struct {
	// FailureRate is the fraction of runs that fail (default 0.05).
	FailureRate float64
	// Latency bounds for the simulated run. Set both to zero to disable.
	MinLatency time.Duration
	MaxLatency time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewMockExecutor creates a mock executor with the default 5% failure rate
// and 1-3s simulated latency.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{
		FailureRate: 0.05,
		MinLatency:  1 * time.Second,
		MaxLatency:  3 * time.Second,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (e *MockExecutor) roll() (latency time.Duration, fail bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if span := e.MaxLatency - e.MinLatency; span > 0 {
		latency = e.MinLatency + time.Duration(e.rng.Int63n(int64(span)))
	} else {
		latency = e.MinLatency
	}
	fail = e.rng.Float64() < e.FailureRate
	return
}

// Execute pretends to run the command.
func (e *MockExecutor) Execute(ctx context.Context, program string, opts ExecOptions) (ExecResult, error) {
	latency, fail := e.roll()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			msg := fmt.Sprintf("command aborted: %v", ctx.Err())
			if opts.OnStderr != nil {
				opts.OnStderr(msg)
			}
			return ExecResult{ExitCode: -1, Stderr: msg + "\n"}, nil
		}
	}

	command := program
	if len(opts.Args) > 0 {
		command += " " + strings.Join(opts.Args, " ")
	}

	if fail {
		msg := fmt.Sprintf("simulated failure: %s", command)
		if opts.OnStderr != nil {
			opts.OnStderr(msg)
		}
		return ExecResult{ExitCode: 1, Stderr: msg + "\n"}, nil
	}

	msg := fmt.Sprintf("simulated success: %s", command)
	if opts.OnStdout != nil {
		opts.OnStdout(msg)
	}
	return ExecResult{ExitCode: 0, Stdout: msg + "\n"}, nil
}

// ScriptedCall records one invocation of a ScriptedExecutor.
type ScriptedCall struct {
	Program string
	Args    []string
	Dir     string
}

// ScriptedExecutor is a deterministic test double: it replays queued results
// in FIFO order and records every call. An exhausted queue yields success.
type ScriptedExecutor struct {
	mu      sync.Mutex
	results []ExecResult
	Calls   []ScriptedCall
}

// Enqueue appends a canned result.
func (e *ScriptedExecutor) Enqueue(r ExecResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.results = append(e.results, r)
}

// Execute replays the next canned result, firing the per-line callbacks for
// each line of its stdout and stderr.
func (e *ScriptedExecutor) Execute(ctx context.Context, program string, opts ExecOptions) (ExecResult, error) {
	e.mu.Lock()
	e.Calls = append(e.Calls, ScriptedCall{Program: program, Args: opts.Args, Dir: opts.Dir})
	result := ExecResult{ExitCode: 0}
	if len(e.results) > 0 {
		result = e.results[0]
		e.results = e.results[1:]
	}
	e.mu.Unlock()

	emit := func(text string, onLine func(string)) {
		if onLine == nil || text == "" {
			return
		}
		for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
			onLine(line)
		}
	}
	emit(result.Stdout, opts.OnStdout)
	emit(result.Stderr, opts.OnStderr)

	return result, nil
}

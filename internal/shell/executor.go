// Package shell runs single external commands to completion, reporting output
// line by line as it is produced.
package shell

import "context"

// ExecOptions configures one command invocation.
type ExecOptions struct {
	Args []string
	Dir  string
	// Env entries (KEY=VALUE) are appended to the inherited environment.
	Env []string
	// OnStdout and OnStderr are invoked per output line as lines arrive,
	// before the aggregated result is returned. Either may be nil.
	OnStdout func(line string)
	OnStderr func(line string)
}

// ExecResult is the aggregated outcome of one command.
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Executor runs one command to completion. Ordinary command failure, including
// a program that cannot be launched, is reported through ExitCode so callers
// branch uniformly on it; the error return is reserved for environment-level
// faults such as pipe setup.
type Executor interface {
	Execute(ctx context.Context, program string, opts ExecOptions) (ExecResult, error)
}

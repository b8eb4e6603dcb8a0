package shell

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// LocalExecutor runs commands on the host via os/exec.
type LocalExecutor struct{}

// NewLocalExecutor creates a host-backed executor.
func NewLocalExecutor() *LocalExecutor {
	return &LocalExecutor{}
}

// Execute runs program to completion, pumping stdout and stderr line by line
// into the callbacks while accumulating them for the result.
func (e *LocalExecutor) Execute(ctx context.Context, program string, opts ExecOptions) (ExecResult, error) {
	cmd := exec.CommandContext(ctx, program, opts.Args...)
	cmd.Dir = opts.Dir
	cmd.Env = append(os.Environ(), opts.Env...)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return ExecResult{ExitCode: -1}, fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return ExecResult{ExitCode: -1}, fmt.Errorf("failed to open stderr pipe: %w", err)
	}

	var stdout, stderr strings.Builder
	var wg sync.WaitGroup

	pump := func(r *bufio.Scanner, buf *strings.Builder, onLine func(string)) {
		defer wg.Done()
		for r.Scan() {
			line := r.Text()
			buf.WriteString(line)
			buf.WriteString("\n")
			if onLine != nil {
				onLine(line)
			}
		}
	}

	wg.Add(2)
	outScanner := bufio.NewScanner(stdoutPipe)
	outScanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	errScanner := bufio.NewScanner(stderrPipe)
	errScanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	go pump(outScanner, &stdout, opts.OnStdout)
	go pump(errScanner, &stderr, opts.OnStderr)

	if err := cmd.Start(); err != nil {
		// Launch failure (program missing, permission denied) is an ordinary
		// failed result, not an error: callers branch on exit code.
		wg.Wait()
		msg := err.Error()
		if opts.OnStderr != nil {
			opts.OnStderr(msg)
		}
		return ExecResult{ExitCode: 127, Stderr: msg + "\n"}, nil
	}

	wg.Wait()
	waitErr := cmd.Wait()

	result := ExecResult{
		ExitCode: 0,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	if waitErr != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
			result.Stderr += waitErr.Error() + "\n"
		}
		if ctx.Err() != nil {
			result.Stderr += fmt.Sprintf("command aborted: %v\n", ctx.Err())
		}
	}

	return result, nil
}

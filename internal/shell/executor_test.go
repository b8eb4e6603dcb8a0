package shell

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestLocalExecutor_Success(t *testing.T) {
	exec := NewLocalExecutor()

	var stdoutLines []string
	result, err := exec.Execute(context.Background(), "sh", ExecOptions{
		Args:     []string{"-c", "echo one; echo two"},
		OnStdout: func(line string) { stdoutLines = append(stdoutLines, line) },
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.ExitCode != 0 {
		t.Errorf("Expected exit 0, got %d (stderr: %s)", result.ExitCode, result.Stderr)
	}
	if result.Stdout != "one\ntwo\n" {
		t.Errorf("Unexpected stdout: %q", result.Stdout)
	}
	if len(stdoutLines) != 2 || stdoutLines[0] != "one" {
		t.Errorf("Per-line callbacks mismatch: %v", stdoutLines)
	}
}

func TestLocalExecutor_FailureExitCode(t *testing.T) {
	exec := NewLocalExecutor()

	var stderrLines []string
	result, err := exec.Execute(context.Background(), "sh", ExecOptions{
		Args:     []string{"-c", "echo oops >&2; exit 3"},
		OnStderr: func(line string) { stderrLines = append(stderrLines, line) },
	})
	if err != nil {
		t.Fatalf("Ordinary failure must not return an error: %v", err)
	}
	if result.ExitCode != 3 {
		t.Errorf("Expected exit 3, got %d", result.ExitCode)
	}
	if !strings.Contains(result.Stderr, "oops") {
		t.Errorf("Expected captured stderr, got %q", result.Stderr)
	}
	if len(stderrLines) != 1 {
		t.Errorf("Expected 1 stderr line, got %v", stderrLines)
	}
}

func TestLocalExecutor_ProgramNotFound(t *testing.T) {
	exec := NewLocalExecutor()

	result, err := exec.Execute(context.Background(), "definitely-not-a-real-binary-xyz", ExecOptions{})
	if err != nil {
		t.Fatalf("Launch failure must not return an error: %v", err)
	}
	if result.ExitCode == 0 {
		t.Error("Expected non-zero exit code for missing program")
	}
	if result.Stderr == "" {
		t.Error("Expected launch failure message in stderr")
	}
}

func TestLocalExecutor_WorkingDirAndEnv(t *testing.T) {
	exec := NewLocalExecutor()
	dir := t.TempDir()

	result, err := exec.Execute(context.Background(), "sh", ExecOptions{
		Args: []string{"-c", "pwd; echo $MARKER"},
		Dir:  dir,
		Env:  []string{"MARKER=hello"},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(result.Stdout, dir) {
		t.Errorf("Expected cwd %s in output, got %q", dir, result.Stdout)
	}
	if !strings.Contains(result.Stdout, "hello") {
		t.Errorf("Expected env override in output, got %q", result.Stdout)
	}
}

func TestLocalExecutor_ContextTimeout(t *testing.T) {
	exec := NewLocalExecutor()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	result, err := exec.Execute(ctx, "sleep", ExecOptions{Args: []string{"10"}})
	if err != nil {
		t.Fatalf("Timed-out command must not return an error: %v", err)
	}
	if result.ExitCode == 0 {
		t.Error("Expected non-zero exit code after timeout")
	}
}

func TestMockExecutor_AlwaysSucceeds(t *testing.T) {
	mock := &MockExecutor{FailureRate: 0}

	var lines []string
	result, err := mock.Execute(context.Background(), "npm", ExecOptions{
		Args:     []string{"install"},
		OnStdout: func(line string) { lines = append(lines, line) },
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.ExitCode != 0 {
		t.Errorf("Expected exit 0, got %d", result.ExitCode)
	}
	if len(lines) != 1 || !strings.Contains(lines[0], "npm install") {
		t.Errorf("Expected synthetic success line, got %v", lines)
	}
}

func TestMockExecutor_AlwaysFails(t *testing.T) {
	mock := &MockExecutor{FailureRate: 1}

	var lines []string
	result, err := mock.Execute(context.Background(), "npm", ExecOptions{
		Args:     []string{"install"},
		OnStderr: func(line string) { lines = append(lines, line) },
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.ExitCode == 0 {
		t.Error("Expected failure exit code")
	}
	if len(lines) != 1 || !strings.Contains(lines[0], "simulated failure") {
		t.Errorf("Expected synthetic failure line, got %v", lines)
	}
}

func TestScriptedExecutor(t *testing.T) {
	scripted := &ScriptedExecutor{}
	scripted.Enqueue(ExecResult{ExitCode: 0, Stdout: "line1\nline2\n"})
	scripted.Enqueue(ExecResult{ExitCode: 2, Stderr: "broken\n"})

	var out []string
	r1, _ := scripted.Execute(context.Background(), "npm", ExecOptions{
		Args:     []string{"install"},
		Dir:      "/tmp/app",
		OnStdout: func(line string) { out = append(out, line) },
	})
	if r1.ExitCode != 0 || len(out) != 2 {
		t.Errorf("First scripted result mismatch: %+v, lines %v", r1, out)
	}

	r2, _ := scripted.Execute(context.Background(), "npm", ExecOptions{Args: []string{"test"}})
	if r2.ExitCode != 2 {
		t.Errorf("Second scripted result mismatch: %+v", r2)
	}

	// Exhausted queue yields success
	r3, _ := scripted.Execute(context.Background(), "ls", ExecOptions{})
	if r3.ExitCode != 0 {
		t.Errorf("Exhausted queue should succeed: %+v", r3)
	}

	if len(scripted.Calls) != 3 || scripted.Calls[0].Dir != "/tmp/app" {
		t.Errorf("Call recording mismatch: %+v", scripted.Calls)
	}
}

package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitLoggerFileTee(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	InitLogger(true, path)

	LogInfo("board started", "port", 8321)
	LogDebug("verbose detail")
	LogError("run failed", os.ErrNotExist, "feature", "f1")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	out := string(data)

	for _, want := range []string{
		`"msg":"board started"`,
		`"port":8321`,
		`"msg":"verbose detail"`,
		`"msg":"run failed"`,
		`"feature":"f1"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log file missing %s in:\n%s", want, out)
		}
	}
}

func TestInitLoggerDebugGate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	InitLogger(false, path)

	LogDebug("should be suppressed")
	LogInfo("should appear")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "should be suppressed") {
		t.Error("debug record written at info level")
	}
	if !strings.Contains(out, "should appear") {
		t.Error("info record missing")
	}
}

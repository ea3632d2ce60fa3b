package events

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestEmitWritesOneJSONLineToStdout(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := New(&stdout, &stderr)

	logger.Emit(SnapshotEvent{
		Time:          time.Unix(0, 0).UTC(),
		Repo:          "/repo/a",
		Outcome:       OutcomeCaptured,
		Branch:        "dura/aaaa",
		CommitHash:    "bbbb",
		BaseHash:      "aaaa",
		ElapsedMicros: 1500,
	})

	line := strings.TrimSuffix(stdout.String(), "\n")
	if strings.Contains(line, "\n") {
		t.Fatalf("expected exactly one line, got: %q", stdout.String())
	}

	var ev SnapshotEvent
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		t.Fatalf("emitted line is not valid JSON: %v", err)
	}
	if ev.Repo != "/repo/a" || ev.Outcome != OutcomeCaptured || ev.ElapsedMicros != 1500 {
		t.Errorf("unexpected decoded event: %+v", ev)
	}
	if stderr.Len() != 0 {
		t.Errorf("expected Emit not to write to stderr, got: %q", stderr.String())
	}
}

func TestEmitMultipleEventsProduceMultipleLines(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := New(&stdout, &stderr)

	logger.Emit(SnapshotEvent{Repo: "/a", Outcome: OutcomeNothing})
	logger.Emit(SnapshotEvent{Repo: "/b", Outcome: OutcomeError, ErrorKind: "not_a_repository"})

	lines := strings.Split(strings.TrimSuffix(stdout.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), stdout.String())
	}
}

func TestInfoWarnErrorWriteToStderrNotStdout(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := New(&stdout, &stderr)

	logger.Info("tick completed in %dms", 12)
	logger.Warn("repo %s is slow", "/repo/a")
	logger.Error("failed to load config: %v", "boom")

	if stdout.Len() != 0 {
		t.Errorf("expected human-readable log lines not to touch stdout, got: %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "tick completed") {
		t.Error("expected Info message in stderr output")
	}
	if !strings.Contains(stderr.String(), "repo /repo/a is slow") {
		t.Error("expected Warn message in stderr output")
	}
}

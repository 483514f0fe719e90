package pipeline

import (
	"errors"
	"strings"
	"testing"
)

// mockStage is a test helper that records calls and returns configured responses.
type mockStage struct {
	name   string
	suffix string
	err    error
	calls  []string
}

func (s *mockStage) Name() string { return s.name }

func (s *mockStage) Process(text string) (string, error) {
	s.calls = append(s.calls, text)
	if s.err != nil {
		return "", s.err
	}
	return text + s.suffix, nil
}

func TestExecutor_Run_Empty(t *testing.T) {
	e := NewExecutor(ExecutorConfig{})

	got, err := e.Run("text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "text" {
		t.Errorf("Run() = %q, want %q", got, "text")
	}
}

func TestExecutor_Run_Order(t *testing.T) {
	first := &mockStage{name: "first", suffix: "-1"}
	second := &mockStage{name: "second", suffix: "-2"}

	e := NewExecutor(ExecutorConfig{Stages: []StageConfig{
		{Order: 20, Stage: second},
		{Order: 10, Stage: first},
	}})

	got, err := e.Run("x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "x-1-2" {
		t.Errorf("Run() = %q, want %q", got, "x-1-2")
	}
	if names := strings.Join(e.Stages(), ","); names != "first,second" {
		t.Errorf("Stages() = %s, want first,second", names)
	}
}

func TestExecutor_Run_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	failing := &mockStage{name: "failing", err: boom}
	after := &mockStage{name: "after"}

	e := NewExecutor(ExecutorConfig{Stages: []StageConfig{
		{Order: 1, Stage: failing},
		{Order: 2, Stage: after},
	}})

	if _, err := e.Run("x"); !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want %v", err, boom)
	}
	if len(after.calls) != 0 {
		t.Errorf("expected later stage to be skipped, got %d calls", len(after.calls))
	}
}

func TestExecutor_RunUntilStable(t *testing.T) {
	trim := newStage("trim_one", func(s string) string {
		return strings.TrimSuffix(s, "!")
	})
	e := NewExecutor(ExecutorConfig{Stages: []StageConfig{{Order: 1, Stage: trim}}})

	got, err := e.RunUntilStable("стоп!!!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "стоп" {
		t.Errorf("RunUntilStable() = %q, want %q", got, "стоп")
	}
}

func TestDeniedError(t *testing.T) {
	err := error(&DeniedError{StageName: "reject_banned", Reason: "matched"})
	if !IsDenied(err) {
		t.Error("IsDenied() = false, want true")
	}
	if IsDenied(ErrEmpty) {
		t.Error("IsDenied(ErrEmpty) = true, want false")
	}
}

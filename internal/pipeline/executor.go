package pipeline

import (
	"errors"
	"fmt"
	"sort"
)

// Stage is one pure step of the pipeline. A stage either returns the
// (possibly rewritten) text or an error that stops the run.
type Stage interface {
	// Name returns the unique identifier for this stage.
	Name() string
	// Process applies the stage to text.
	Process(text string) (string, error)
}

// Executor runs stages in ascending order.
type Executor struct {
	stages []Stage
}

// ExecutorConfig configures an executor from stage configurations.
type ExecutorConfig struct {
	Stages []StageConfig
}

// StageConfig is the configuration for a single stage.
type StageConfig struct {
	Order int
	Stage Stage
}

// NewExecutor creates an executor from configuration.
func NewExecutor(cfg ExecutorConfig) *Executor {
	stages := append([]StageConfig(nil), cfg.Stages...)
	sort.SliceStable(stages, func(i, j int) bool {
		return stages[i].Order < stages[j].Order
	})

	e := &Executor{stages: make([]Stage, len(stages))}
	for i, s := range stages {
		e.stages[i] = s.Stage
	}
	return e
}

// Run executes every stage once.
func (e *Executor) Run(text string) (string, error) {
	current := text
	for _, stage := range e.stages {
		out, err := stage.Process(current)
		if err != nil {
			return "", err
		}
		current = out
	}
	return current, nil
}

// RunUntilStable repeats Run until the output equals its input. Stages used
// here must only normalize or remove runes, so the loop terminates.
func (e *Executor) RunUntilStable(text string) (string, error) {
	current := text
	for limit := len(text) + 2; limit > 0; limit-- {
		out, err := e.Run(current)
		if err != nil {
			return "", err
		}
		if out == current {
			return out, nil
		}
		current = out
	}
	return current, nil
}

// Stages returns the stage names in execution order.
func (e *Executor) Stages() []string {
	names := make([]string, len(e.stages))
	for i, s := range e.stages {
		names[i] = s.Name()
	}
	return names
}

// ErrEmpty is returned when nothing is left of the text after cleaning.
var ErrEmpty = errors.New("text is empty after sanitization")

// DeniedError is returned when a policy stage rejects the content.
type DeniedError struct {
	StageName string
	Reason    string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("pipeline denied by %s: %s", e.StageName, e.Reason)
}

// IsDenied returns true if the error is a content policy denial.
func IsDenied(err error) bool {
	var denied *DeniedError
	return errors.As(err, &denied)
}

package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/nao1215/sitecrawler/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, run *model.CrawlRun) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, run *model.CrawlRun) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, run)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

// discardLogger returns a logger that drops all records.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()

		if p == nil {
			t.Fatal("expected non-nil pipeline")
		}
		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
	})

	t.Run("applies WithContinueOnError option", func(t *testing.T) {
		t.Parallel()

		p := New(WithContinueOnError(true))

		if !p.continueOnError {
			t.Error("expected continueOnError to be true")
		}
	})
}

// TestPipelineAddStep tests adding steps to the pipeline.
func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	t.Run("adds single step", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddStep(&mockStep{name: "test-step"})

		if p.StepCount() != 1 {
			t.Errorf("expected 1 step, got %d", p.StepCount())
		}
	})

	t.Run("adds multiple steps with AddSteps", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddSteps(
			&mockStep{name: "step-1"},
			&mockStep{name: "step-2"},
			&mockStep{name: "step-3"},
		)

		if p.StepCount() != 3 {
			t.Errorf("expected 3 steps, got %d", p.StepCount())
		}

		names := p.StepNames()
		want := []string{"step-1", "step-2", "step-3"}
		for i, name := range want {
			if names[i] != name {
				t.Errorf("step %d: expected %q, got %q", i, name, names[i])
			}
		}
	})
}

// TestPipelineExecute tests sequential step execution.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes steps in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		p := New(WithLogger(discardLogger()))
		for _, name := range []string{"first", "second", "third"} {
			name := name
			p.AddStep(&mockStep{
				name: name,
				doFunc: func(_ context.Context, _ *model.CrawlRun) error {
					order = append(order, name)
					return nil
				},
			})
		}

		run := model.NewCrawlRun("nytimes", "https://www.nytimes.com/")
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(order) != 3 || order[0] != "first" || order[2] != "third" {
			t.Errorf("unexpected execution order: %v", order)
		}
		if len(run.PerformedSteps) != 3 {
			t.Errorf("expected 3 performed steps, got %v", run.PerformedSteps)
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		stepErr := errors.New("step failed")
		failing := &mockStep{
			name: "failing",
			doFunc: func(_ context.Context, _ *model.CrawlRun) error {
				return stepErr
			},
		}
		skipped := &mockStep{name: "skipped"}

		p := New(WithLogger(discardLogger()))
		p.AddSteps(failing, skipped)

		run := model.NewCrawlRun("nytimes", "https://www.nytimes.com/")
		err := p.Execute(context.Background(), run)

		if !errors.Is(err, stepErr) {
			t.Fatalf("expected step error, got %v", err)
		}
		if skipped.callCount != 0 {
			t.Error("expected later steps to be skipped")
		}
		if run.ErrorMessage != "step failed" {
			t.Errorf("expected error recorded on run, got %q", run.ErrorMessage)
		}
	})

	t.Run("continues after error when configured", func(t *testing.T) {
		t.Parallel()

		failing := &mockStep{
			name: "failing",
			doFunc: func(_ context.Context, _ *model.CrawlRun) error {
				return errors.New("step failed")
			},
		}
		next := &mockStep{name: "next"}

		p := New(WithLogger(discardLogger()), WithContinueOnError(true))
		p.AddSteps(failing, next)

		run := model.NewCrawlRun("nytimes", "https://www.nytimes.com/")
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if next.callCount != 1 {
			t.Error("expected later steps to run")
		}
		if run.Error == nil {
			t.Error("expected error recorded on run")
		}
	})

	t.Run("keeps the first recorded error", func(t *testing.T) {
		t.Parallel()

		first := errors.New("first failure")
		second := errors.New("second failure")

		p := New(WithLogger(discardLogger()), WithContinueOnError(true))
		p.AddSteps(
			&mockStep{name: "a", doFunc: func(_ context.Context, _ *model.CrawlRun) error { return first }},
			&mockStep{name: "b", doFunc: func(_ context.Context, _ *model.CrawlRun) error { return second }},
		)

		run := model.NewCrawlRun("nytimes", "https://www.nytimes.com/")
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !errors.Is(run.Error, first) {
			t.Errorf("expected first error to be kept, got %v", run.Error)
		}
	})

	t.Run("respects cancellation between steps", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())

		cancelling := &mockStep{
			name: "cancelling",
			doFunc: func(_ context.Context, _ *model.CrawlRun) error {
				cancel()
				return nil
			},
		}
		skipped := &mockStep{name: "skipped"}

		p := New(WithLogger(discardLogger()))
		p.AddSteps(cancelling, skipped)

		run := model.NewCrawlRun("nytimes", "https://www.nytimes.com/")
		err := p.Execute(ctx, run)

		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if skipped.callCount != 0 {
			t.Error("expected step after cancellation to be skipped")
		}
		if !run.TimedOut {
			t.Error("expected the run to be marked timed out")
		}
	})
}

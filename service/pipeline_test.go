package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ludo-technologies/sanity/domain"
)

type recordingUnit struct {
	name string
	err  error
	log  *[]string
}

func (u *recordingUnit) Name() string { return u.name }

func (u *recordingUnit) Run(_ context.Context) error {
	*u.log = append(*u.log, u.name)
	return u.err
}

type countingProgress struct {
	NoOpProgressManager
	started []string
	task    *countingTask
}

type countingTask struct {
	increments   int
	descriptions []string
	completed    bool
}

func (t *countingTask) Increment(n int)      { t.increments += n }
func (t *countingTask) Describe(desc string) { t.descriptions = append(t.descriptions, desc) }
func (t *countingTask) Complete()            { t.completed = true }

func (p *countingProgress) StartTask(description string, _ int) domain.TaskProgress {
	p.started = append(p.started, description)
	p.task = &countingTask{}
	return p.task
}

func TestPipeline_RunsInOrder(t *testing.T) {
	var ran []string
	pm := &countingProgress{}
	p := NewPipeline(pm, nil).Add(
		&recordingUnit{name: "first", log: &ran},
		&recordingUnit{name: "second", log: &ran},
		&recordingUnit{name: "third", log: &ran},
	)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ran) != 3 || ran[0] != "first" || ran[1] != "second" || ran[2] != "third" {
		t.Errorf("units ran out of order: %v", ran)
	}
	if pm.task.increments != 3 {
		t.Errorf("expected 3 increments, got %d", pm.task.increments)
	}
	if !pm.task.completed {
		t.Error("progress task should be completed")
	}
	if len(pm.task.descriptions) != 3 || pm.task.descriptions[1] != "second" {
		t.Errorf("progress should describe each unit, got %v", pm.task.descriptions)
	}
}

func TestPipeline_FirstFailureAborts(t *testing.T) {
	var ran []string
	boom := errors.New("boom")
	p := NewPipeline(nil, nil).Add(
		&recordingUnit{name: "ok", log: &ran},
		&recordingUnit{name: "broken", err: boom, log: &ran},
		&recordingUnit{name: "never", log: &ran},
	)

	err := p.Run(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}

	var unitErr *domain.WorkUnitError
	if !errors.As(err, &unitErr) {
		t.Fatalf("expected *domain.WorkUnitError, got %T", err)
	}
	if unitErr.Unit != "broken" {
		t.Errorf("expected failing unit 'broken', got %q", unitErr.Unit)
	}
	if !errors.Is(err, boom) {
		t.Error("WorkUnitError should unwrap to the cause")
	}
	if err.Error() != "broken: boom" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if len(ran) != 2 {
		t.Errorf("units after the failure must not run, ran %v", ran)
	}
}

func TestPipeline_CancelledContext(t *testing.T) {
	var ran []string
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewPipeline(nil, nil).Add(&recordingUnit{name: "unit", log: &ran}).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(ran) != 0 {
		t.Errorf("no unit should run on a cancelled context, ran %v", ran)
	}
}

func TestPipeline_Empty(t *testing.T) {
	p := NewPipeline(nil, nil)
	if err := p.Run(context.Background()); err != nil {
		t.Errorf("empty pipeline should succeed, got %v", err)
	}
	if len(p.Units()) != 0 {
		t.Errorf("expected no units, got %d", len(p.Units()))
	}
}

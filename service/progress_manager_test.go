package service

import (
	"bytes"
	"testing"

	"github.com/ludo-technologies/sanity/domain"
)

func TestNewProgressManager_NonInteractive(t *testing.T) {
	// When disabled, should return NoOpProgressManager
	pm := NewProgressManager(false)
	if pm.IsInteractive() {
		t.Error("expected non-interactive progress manager when disabled")
	}

	var _ domain.ProgressManager = pm
}

func TestIsInteractiveEnvironment_CI(t *testing.T) {
	t.Setenv("CI", "true")
	if IsInteractiveEnvironment() {
		t.Error("CI runs must not be interactive")
	}
	if NewProgressManager(true).IsInteractive() {
		t.Error("expected no-op progress manager on CI")
	}
}

func TestNoOpProgressManager(t *testing.T) {
	pm := &NoOpProgressManager{}

	if pm.IsInteractive() {
		t.Error("expected NoOpProgressManager.IsInteractive() to return false")
	}

	task := pm.StartTask("test", 100)
	if task == nil {
		t.Fatal("expected non-nil task from StartTask")
	}

	// All operations should be no-ops (not panic)
	task.Increment(10)
	task.Describe("testing")
	task.Complete()

	pm.Close()
}

func TestProgressManagerImpl_DrawsToWriter(t *testing.T) {
	var buf bytes.Buffer
	pm := NewProgressManagerWithWriter(&buf)
	if !pm.IsInteractive() {
		t.Error("expected interactive progress manager")
	}

	task := pm.StartTask("Running tools", 3)
	task.Describe("pmd")
	task.Increment(3)
	task.Complete()
	pm.Close()

	if buf.Len() == 0 {
		t.Error("expected progress output")
	}
}

func TestTaskProgressImpl_Description(t *testing.T) {
	pm := NewProgressManagerWithWriter(&bytes.Buffer{})
	defer pm.Close()

	task := pm.StartTask("Analyzing", 3).(*TaskProgressImpl)
	if got := task.Description(); got != "Analyzing" {
		t.Errorf("Description() before any step = %q", got)
	}

	task.Describe("load rules")
	if got := task.Description(); got != "Analyzing (1/3 load rules)" {
		t.Errorf("Description() = %q", got)
	}
	task.Increment(1)
	task.Describe("pmd")
	if got := task.Description(); got != "Analyzing (2/3 pmd)" {
		t.Errorf("Description() = %q", got)
	}

	spinner := pm.StartTask("Counting", 0).(*TaskProgressImpl)
	spinner.Describe("Foo.java")
	if got := spinner.Description(); got != "Counting (Foo.java)" {
		t.Errorf("spinner Description() = %q", got)
	}

	task.Complete()
	task.Complete()
}

func TestProgressManagerImpl_Interface(t *testing.T) {
	var _ domain.ProgressManager = &ProgressManagerImpl{}
	var _ domain.TaskProgress = &TaskProgressImpl{}
	var _ domain.TaskProgress = &NoOpTaskProgress{}
}

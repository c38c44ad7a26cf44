package service

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/ludo-technologies/sanity/domain"
)

// ProgressManagerImpl draws one bar per pipeline task on stderr.
type ProgressManagerImpl struct {
	writer io.Writer
	tasks  []*TaskProgressImpl
}

// NewProgressManager returns a bar-drawing manager when enabled and attached
// to a terminal, and a no-op one otherwise.
func NewProgressManager(enabled bool) domain.ProgressManager {
	if enabled && IsInteractiveEnvironment() {
		return NewProgressManagerWithWriter(os.Stderr)
	}
	return &NoOpProgressManager{}
}

// NewProgressManagerWithWriter draws bars on w regardless of the terminal.
func NewProgressManagerWithWriter(w io.Writer) *ProgressManagerImpl {
	return &ProgressManagerImpl{writer: w}
}

// StartTask starts a bar labelled with the task name. A total of zero or
// less draws a spinner.
func (pm *ProgressManagerImpl) StartTask(description string, total int) domain.TaskProgress {
	if total <= 0 {
		total = -1
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(pm.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(18),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	task := &TaskProgressImpl{bar: bar, label: description, total: total}
	pm.tasks = append(pm.tasks, task)
	return task
}

func (pm *ProgressManagerImpl) IsInteractive() bool {
	return true
}

// Close finishes every task that is still drawing.
func (pm *ProgressManagerImpl) Close() {
	for _, task := range pm.tasks {
		task.Complete()
	}
	pm.tasks = nil
}

// TaskProgressImpl is one bar. Step names passed to Describe are shown
// after the task label together with the step number.
type TaskProgressImpl struct {
	bar   *progressbar.ProgressBar
	label string
	total int
	done  int
	step  string
	ended bool
}

func (tp *TaskProgressImpl) Increment(n int) {
	tp.done += n
	_ = tp.bar.Add(n)
}

// Describe names the step being worked on, such as a tool or unit name.
func (tp *TaskProgressImpl) Describe(step string) {
	tp.step = step
	tp.bar.Describe(tp.Description())
}

// Description is the text currently shown next to the bar.
func (tp *TaskProgressImpl) Description() string {
	if tp.step == "" {
		return tp.label
	}
	if tp.total > 0 {
		return fmt.Sprintf("%s (%d/%d %s)", tp.label, tp.done+1, tp.total, tp.step)
	}
	return fmt.Sprintf("%s (%s)", tp.label, tp.step)
}

func (tp *TaskProgressImpl) Complete() {
	if tp.ended {
		return
	}
	tp.ended = true
	_ = tp.bar.Finish()
}

// NoOpProgressManager is used for CI, non-text output and --no-progress.
type NoOpProgressManager struct{}

func (pm *NoOpProgressManager) StartTask(_ string, _ int) domain.TaskProgress {
	return &NoOpTaskProgress{}
}

func (pm *NoOpProgressManager) IsInteractive() bool {
	return false
}

func (pm *NoOpProgressManager) Close() {}

type NoOpTaskProgress struct{}

func (tp *NoOpTaskProgress) Increment(_ int)   {}
func (tp *NoOpTaskProgress) Describe(_ string) {}
func (tp *NoOpTaskProgress) Complete()         {}

package domain

// ProgressManager creates progress tasks for long running operations
type ProgressManager interface {
	StartTask(description string, total int) TaskProgress
	IsInteractive() bool
	Close()
}

// TaskProgress tracks one task started by a ProgressManager
type TaskProgress interface {
	Increment(n int)
	Describe(description string)
	Complete()
}

package service

import (
	"os"

	"golang.org/x/term"
)

// ciEnvVars mark non-interactive CI runners even when a pseudo terminal is
// attached.
var ciEnvVars = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "BUILDKITE", "TF_BUILD"}

// IsInteractiveEnvironment reports whether progress bars should be drawn:
// stderr is a terminal and no CI runner is detected.
func IsInteractiveEnvironment() bool {
	for _, name := range ciEnvVars {
		if os.Getenv(name) != "" {
			return false
		}
	}
	if os.Getenv("SANITY_NO_PROGRESS") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	return isTerminal(os.Stderr)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Package process handles the headless browser's OS process and detects the
// environment it runs in.
package process

import (
	"errors"
	"os"
)

// ErrInvalidPID is returned for PIDs that would target the caller's own
// process group.
var ErrInvalidPID = errors.New("invalid process id")

// ciVariables are set by common CI providers.
var ciVariables = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "BUILDKITE"}

// InCI reports whether a CI provider's environment variable is set.
func InCI() bool {
	for _, v := range ciVariables {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

// InContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
// It is a variable so tests can stub it.
var InContainer = func() bool {
	info, err := os.Stat("/.dockerenv")
	return err == nil && !info.IsDir()
}

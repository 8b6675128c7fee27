package process

// Notes:
// - KillProcessGroup: only invalid PIDs are exercised. Real kill behavior is
//   covered by the browser integration tests since unit tests cannot safely
//   terminate real processes.
// - InContainer depends on the host filesystem and is not asserted.

import (
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// TestKillProcessGroup - PID guard
// ---------------------------------------------------------------------------

func TestKillProcessGroup_RejectsOwnGroup(t *testing.T) {
	t.Parallel()

	for _, pid := range []int{0, -1} {
		if err := KillProcessGroup(pid); !errors.Is(err, ErrInvalidPID) {
			t.Errorf("KillProcessGroup(%d) = %v, want ErrInvalidPID", pid, err)
		}
	}
}

func TestKillProcessGroup_MissingProcess(t *testing.T) {
	t.Parallel()

	if err := KillProcessGroup(999999999); err == nil {
		t.Error("KillProcessGroup() on a missing process returned nil")
	}
}

// ---------------------------------------------------------------------------
// TestInCI - CI detection
// ---------------------------------------------------------------------------

func TestInCI(t *testing.T) {
	for _, v := range ciVariables {
		t.Setenv(v, "")
	}
	if InCI() {
		t.Error("InCI() = true with no CI variables set")
	}

	t.Setenv("GITLAB_CI", "true")
	if !InCI() {
		t.Error("InCI() = false with GITLAB_CI set")
	}
}

package structs

import (
	"strings"
)

// State is the execution state of a Job. Results (see result.go) are
// orthogonal; a job's state says where it is, its result says how it went.
type State string

const (
	// SCHEDULED jobs are waiting to be picked up by a worker.
	SCHEDULED State = "scheduled"

	// SETUP jobs have been assigned a worker that is preparing to run them.
	SETUP State = "setup"

	// RUNNING jobs are actively executing test modules.
	RUNNING State = "running"

	// WAITING jobs are blocked on interactive input.
	WAITING State = "waiting"

	// UPLOADING jobs have finished executing and are pushing results.
	UPLOADING State = "uploading"

	// end states
	DONE      State = "done"
	CANCELLED State = "cancelled"
)

// IsFinalState returns true if a job in this state will never transition again.
func IsFinalState(s State) bool {
	switch s {
	case DONE, CANCELLED:
		return true
	default:
		return false
	}
}

// IsExecutionState returns true if a worker currently holds the job.
func IsExecutionState(s State) bool {
	switch s {
	case SETUP, RUNNING, WAITING, UPLOADING:
		return true
	default:
		return false
	}
}

func ToState(s string) State {
	switch strings.ToLower(s) {
	case "scheduled":
		return SCHEDULED
	case "setup":
		return SETUP
	case "running":
		return RUNNING
	case "waiting":
		return WAITING
	case "uploading":
		return UPLOADING
	case "done":
		return DONE
	case "cancelled":
		return CANCELLED
	default:
		return ""
	}
}

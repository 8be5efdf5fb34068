package structs

import (
	"strings"
)

// Result records how a job (or one of its modules) went. Complete results
// are computed from module outcomes; incomplete results are imposed from
// outside (cancellation, obsoletion, a parallel sibling dying etc).
type Result string

const (
	// NONE means the result hasn't been finalized yet.
	NONE Result = "none"

	// complete results, computed from module outcomes
	PASSED     Result = "passed"
	SOFTFAILED Result = "softfailed"
	FAILED     Result = "failed"

	// incomplete results, imposed externally
	INCOMPLETE         Result = "incomplete"
	SKIPPED            Result = "skipped"
	OBSOLETED          Result = "obsoleted"
	PARALLEL_FAILED    Result = "parallel_failed"
	PARALLEL_RESTARTED Result = "parallel_restarted"
	USER_CANCELLED     Result = "user_cancelled"
	USER_RESTARTED     Result = "user_restarted"

	// module-only result: the module is mid-run. Jobs never carry this;
	// modules left in it when a job goes terminal are reset to NONE.
	RUNNING_RESULT Result = "running"
)

// IsOKResult returns true for results that shouldn't trigger any cascade.
func IsOKResult(r Result) bool {
	return r == PASSED || r == SOFTFAILED
}

// IsCompleteResult returns true for results computed from module outcomes.
func IsCompleteResult(r Result) bool {
	return r == PASSED || r == SOFTFAILED || r == FAILED
}

func ToResult(s string) Result {
	switch strings.ToLower(s) {
	case "none":
		return NONE
	case "passed":
		return PASSED
	case "softfailed":
		return SOFTFAILED
	case "failed":
		return FAILED
	case "incomplete":
		return INCOMPLETE
	case "skipped":
		return SKIPPED
	case "obsoleted":
		return OBSOLETED
	case "parallel_failed":
		return PARALLEL_FAILED
	case "parallel_restarted":
		return PARALLEL_RESTARTED
	case "user_cancelled":
		return USER_CANCELLED
	case "user_restarted":
		return USER_RESTARTED
	case "running":
		return RUNNING_RESULT
	default:
		return ""
	}
}

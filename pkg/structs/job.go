package structs

import (
	"fmt"
	"strings"
)

const (
	// DefaultPriority is used when a job is scheduled without one.
	DefaultPriority int64 = 50

	// settings keys the core itself reads / writes
	KeyWorkerClass = "WORKER_CLASS"
	KeyJobToken    = "JOBTOKEN"
	KeyName        = "NAME"
)

// Scenario is the tuple identifying "the same logical test" across builds.
// Machine is optional; two jobs on different machines are different scenarios.
type Scenario struct {
	Distri  string `json:"distri"`
	Version string `json:"version"`
	Flavor  string `json:"flavor"`
	Arch    string `json:"arch"`
	Test    string `json:"test"`
	Machine string `json:"machine,omitempty"`
}

// JobSpec are fields that can be set when a job is scheduled.
type JobSpec struct {
	Scenario `json:",inline"`

	// Priority orders competing scheduled jobs, lower runs first.
	Priority int64 `json:"priority"`

	// GroupID is an optional job group this job belongs to.
	GroupID int64 `json:"group_id,omitempty"`

	// Retries is the number of automatic restarts remaining.
	Retries int64 `json:"retries"`

	// Settings is the job's flat configuration mapping.
	Settings map[string]string `json:"settings,omitempty"`
}

// Job is a single unit of scheduled work.
type Job struct {
	JobSpec `json:",inline"`

	ID     int64  `json:"id"`
	State  State  `json:"state"`
	Result Result `json:"result"`

	// CloneID points at the job that replaced this one. Set at most once;
	// a job with a clone is never duplicated again.
	CloneID int64 `json:"clone_id,omitempty"`

	// WorkerID is the worker currently assigned, 0 if none.
	WorkerID int64 `json:"worker_id,omitempty"`

	StartedAt  int64 `json:"started_at,omitempty"`
	FinishedAt int64 `json:"finished_at,omitempty"`
	CreatedAt  int64 `json:"created_at"`
	UpdatedAt  int64 `json:"updated_at"`

	// per-result module counters, maintained by status updates
	PassedCount     int64 `json:"passed_count"`
	SoftfailedCount int64 `json:"softfailed_count"`
	FailedCount     int64 `json:"failed_count"`

	// memoized display name; recomputed only for a fresh handle
	name string
}

// Name returns the job's display name: scenario fields joined with '-',
// machine suffixed with '@', sanitized to a safe character set.
func (j *Job) Name() string {
	if j.name != "" {
		return j.name
	}
	name := strings.Join([]string{j.Distri, j.Version, j.Flavor, j.Arch, j.Test}, "-")
	if j.Machine != "" {
		name = name + "@" + j.Machine
	}
	j.name = sanitizeName(name)
	return j.name
}

// RenderedSettings returns the job's settings with the scenario fields
// mirrored in under their canonical keys, plus a synthesized NAME key.
func (j *Job) RenderedSettings() map[string]string {
	out := map[string]string{}
	for k, v := range j.Settings {
		out[k] = v
	}
	out["DISTRI"] = j.Distri
	out["VERSION"] = j.Version
	out["FLAVOR"] = j.Flavor
	out["ARCH"] = j.Arch
	out["TEST"] = j.Test
	if j.Machine != "" {
		out["MACHINE"] = j.Machine
	}
	out[KeyName] = fmt.Sprintf("%08d-%s", j.ID, j.Name())
	return out
}

// MergeSettings copies src into dst. WORKER_CLASS is special cased: repeated
// assignments concatenate with ',' rather than overwrite.
func MergeSettings(dst, src map[string]string) map[string]string {
	if dst == nil {
		dst = map[string]string{}
	}
	for k, v := range src {
		if k == KeyWorkerClass && dst[k] != "" {
			dst[k] = dst[k] + "," + v
			continue
		}
		dst[k] = v
	}
	return dst
}

func sanitizeName(in string) string {
	safe := func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '_', r == '+', r == ':', r == '@', r == '-':
			return r
		default:
			return '_'
		}
	}
	return strings.Map(safe, in)
}

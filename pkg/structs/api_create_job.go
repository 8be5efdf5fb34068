package structs

// DependencyRef names an existing job a new job should depend on.
type DependencyRef struct {
	ParentID int64   `json:"parent_id"`
	Kind     DepKind `json:"kind"`
}

// CreateJobRequest schedules a new job.
type CreateJobRequest struct {
	JobSpec `json:",inline"`

	// Parents are dependency edges to create alongside the job.
	Parents []*DependencyRef `json:"parents,omitempty"`
}

// DoneRequest finalizes a job.
type DoneRequest struct {
	// ForceNewBuild obsoletes the job regardless of module outcomes.
	ForceNewBuild bool `json:"force_new_build"`

	// Result overrides the computed result if set.
	Result Result `json:"result,omitempty"`
}

package structs

// Worker represents one slot of fleet capacity. A worker owns at most one
// active job at a time and receives commands over its command channel.
type Worker struct {
	ID       int64  `json:"id"`
	Host     string `json:"host"`
	Instance int64  `json:"instance"`

	// JobID is the job this worker is currently running, 0 if idle.
	JobID int64 `json:"job_id,omitempty"`
}

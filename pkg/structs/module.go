package structs

// ModuleDef are fields a worker reports when declaring a test module.
type ModuleDef struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Script   string `json:"script"`

	// Important modules count toward the job's overall result; a failure
	// of an unimportant module is invisible to the aggregate.
	Important bool `json:"important"`

	// Fatal modules abort the job on failure.
	Fatal bool `json:"fatal"`
}

// JobModule is an ordered, named step belonging to one job.
type JobModule struct {
	ModuleDef `json:",inline"`

	JobID   int64  `json:"job_id"`
	Ordinal int64  `json:"ordinal"`
	Result  Result `json:"result"`
}

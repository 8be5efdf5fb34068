package structs

// ModuleStatus is a per-module update within a StatusReport.
type ModuleStatus struct {
	Name   string `json:"name"`
	Result Result `json:"result"`

	// Details is an opaque blob of module detail data, persisted best-effort.
	Details []byte `json:"details,omitempty"`
}

// StatusReport is a batch of progress data pushed by a worker.
type StatusReport struct {
	// Log is a fragment to append to the job's log.
	Log string `json:"log,omitempty"`

	// Screenshot (if any) is stored and symlinked as the latest.
	ScreenshotName string `json:"screenshot_name,omitempty"`
	Screenshot     []byte `json:"screenshot,omitempty"`

	// Backend is opaque backend metadata recorded against the job.
	Backend map[string]string `json:"backend,omitempty"`

	// Waiting toggles the job between running and waiting; reports never
	// force any other transition.
	Waiting bool `json:"waiting"`

	// NewModules declares modules; re-declaring an existing name is a no-op
	// for identity and an update for mutable fields.
	NewModules []*ModuleDef `json:"new_modules,omitempty"`

	// Modules carries per-module result updates.
	Modules []*ModuleStatus `json:"modules,omitempty"`
}

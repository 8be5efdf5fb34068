package structs

// SummaryOpts control which nested collections a Summary includes.
type SummaryOpts struct {
	IncludeAssets bool `json:"include_assets"`
	IncludeDeps   bool `json:"include_deps"`
}

// Summary is a flat read projection of a job for API consumers.
type Summary struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Priority int64  `json:"priority"`
	State    State  `json:"state"`
	Result   Result `json:"result"`

	StartedAt  int64 `json:"started_at,omitempty"`
	FinishedAt int64 `json:"finished_at,omitempty"`

	Settings map[string]string `json:"settings,omitempty"`

	// Assets grouped by type name, present if IncludeAssets
	Assets map[string][]string `json:"assets,omitempty"`

	// Parents / Children grouped by dependency kind, present if IncludeDeps
	Parents  map[string][]int64 `json:"parents,omitempty"`
	Children map[string][]int64 `json:"children,omitempty"`
}

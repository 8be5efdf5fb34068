package structs

const (
	queryLimitDefault = 1000
	queryLimitMax     = 10000
)

type Query struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// Filters
	JobIDs  []int64  `json:"job_ids,omitempty"`
	States  []State  `json:"states,omitempty"`
	Results []Result `json:"results,omitempty"`

	// Scenario restricts to jobs of one logical test (all fields matched).
	Scenario *Scenario `json:"scenario,omitempty"`

	// BeforeID restricts to jobs with a strictly smaller id.
	BeforeID int64 `json:"before_id,omitempty"`
}

func (q *Query) Sanitize() {
	if q.Limit <= 0 {
		q.Limit = queryLimitDefault
	}
	if q.Limit > queryLimitMax {
		q.Limit = queryLimitMax
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if len(q.JobIDs) == 0 {
		q.JobIDs = nil
	}
	if len(q.States) == 0 {
		q.States = nil
	}
	if len(q.Results) == 0 {
		q.Results = nil
	}
	if q.BeforeID < 0 {
		q.BeforeID = 0
	}
}

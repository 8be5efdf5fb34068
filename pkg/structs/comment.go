package structs

// Comment is a note attached to a job. Bug-reference carry-over copies
// these forward between jobs of the same scenario.
type Comment struct {
	ID    int64  `json:"id"`
	JobID int64  `json:"job_id"`
	User  string `json:"user"`
	Text  string `json:"text"`

	CreatedAt int64 `json:"created_at"`
}

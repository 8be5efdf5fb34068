package structs

// NetworkAllocation maps a (job, logical network name) pair to a VLAN tag.
// Tags are globally unique; parallel-connected jobs intentionally share one.
type NetworkAllocation struct {
	JobID int64  `json:"job_id"`
	Name  string `json:"name"`
	Vlan  int64  `json:"vlan"`
}

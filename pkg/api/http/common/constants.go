package common

const (
	// API_JOBS is used to get or create jobs
	API_JOBS = "/api/v1/jobs"

	// API_JOB is used to get one job's summary
	API_JOB = "/api/v1/jobs/{id}"

	// API_STATUS is used by workers to push progress reports
	API_STATUS = "/api/v1/jobs/{id}/status"

	// API_DONE is used to finalize a job
	API_DONE = "/api/v1/jobs/{id}/done"

	// API_CANCEL is used to cancel a job
	API_CANCEL = "/api/v1/jobs/{id}/cancel"

	// API_RESTART is used to duplicate ("restart") a job
	API_RESTART = "/api/v1/jobs/{id}/restart"

	// API_NETWORK is used to allocate a VLAN for a job's logical network
	API_NETWORK = "/api/v1/jobs/{id}/network"
)

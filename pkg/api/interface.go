package api

import (
	"github.com/B-Rich/openQA/pkg/structs"
)

// API represents the functions openQA servers should expose.
type API interface {
	// Implemented in openQA/internal/core.Service

	CreateJob(cjr *structs.CreateJobRequest) (*structs.Job, error)
	Jobs(q *structs.Query) ([]*structs.Job, error)
	Summary(jobID int64, opts *structs.SummaryOpts) (*structs.Summary, error)

	UpdateStatus(jobID int64, r *structs.StatusReport) (structs.Result, error)
	Done(jobID int64, req *structs.DoneRequest) (structs.Result, error)
	Cancel(jobID int64, obsoleted bool) (int64, error)

	Duplicate(jobID int64) (*structs.Job, error)
	AutoDuplicate(jobID int64, automatic bool) (*structs.Job, error)

	AllocateNetwork(jobID int64, name string) (int64, error)

	Close() error
}

type Server interface {
	ServeForever(api API) error
	Close() error
}

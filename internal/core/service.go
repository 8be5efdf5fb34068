package core

import (
	"fmt"
	"log"

	"github.com/B-Rich/openQA/pkg/command"
	"github.com/B-Rich/openQA/pkg/database"
	"github.com/B-Rich/openQA/pkg/errors"
	"github.com/B-Rich/openQA/pkg/structs"
)

const (
	// defaults
	defCarryoverLookback   = 10
	defCarryoverSignatures = 3

	// maxCloneChain bounds walks along clone references. The graph isn't
	// structurally guaranteed acyclic, so a corrupted chain must not spin.
	maxCloneChain = 25
)

// Service is the scheduler core: the job state machine, the duplication
// engine, the cascade propagator and the resource resolvers.
type Service struct {
	db   database.Database
	cmd  command.Commander
	opts *structs.Options
}

func NewService(db database.Database, cmd command.Commander, opts *structs.Options) (*Service, error) {
	if opts == nil {
		opts = &structs.Options{}
	}
	if opts.CarryoverLookback <= 0 {
		opts.CarryoverLookback = defCarryoverLookback
	}
	if opts.CarryoverSignatures <= 0 {
		opts.CarryoverSignatures = defCarryoverSignatures
	}
	return &Service{db: db, cmd: cmd, opts: opts}, nil
}

func (c *Service) Close() error {
	c.cmd.Close()
	c.db.Close()
	return nil
}

// Jobs returns jobs matching the given query.
func (c *Service) Jobs(q *structs.Query) ([]*structs.Job, error) {
	q.Sanitize()
	return c.db.Jobs(q)
}

// CreateJob schedules a new job & its dependency edges, then resolves its
// assets. This is the entry point the external scheduler calls.
func (c *Service) CreateJob(cjr *structs.CreateJobRequest) (*structs.Job, error) {
	err := validateCreateJobRequest(cjr)
	if err != nil {
		return nil, err
	}

	job := &structs.Job{
		JobSpec: cjr.JobSpec,
		State:   structs.SCHEDULED,
		Result:  structs.NONE,
	}
	// the job owns its settings; the caller's map stays theirs
	job.Settings = structs.MergeSettings(nil, cjr.Settings)
	if job.Priority <= 0 {
		job.Priority = structs.DefaultPriority
	}

	err = c.db.InsertJob(job)
	if err != nil {
		return nil, err
	}

	for _, p := range cjr.Parents {
		_, err = c.db.Job(p.ParentID)
		if err != nil {
			return nil, err
		}
		err = c.db.InsertDependency(&structs.JobDependency{ParentID: p.ParentID, ChildID: job.ID, Kind: p.Kind})
		if err != nil {
			return nil, err
		}
	}

	err = c.registerAssets(job)
	if err != nil {
		return nil, err
	}
	return job, nil
}

// sendCommand notifies the job's worker, if it has one. Fire-and-forget:
// a missing worker is nothing to notify, a send failure is only logged.
func (c *Service) sendCommand(job *structs.Job, cmd command.Command) {
	if job.WorkerID == 0 {
		return
	}
	err := c.cmd.Send(job.WorkerID, cmd, job.ID)
	if err != nil {
		log.Println("[core] failed to send", cmd, "to worker", job.WorkerID, "for job", job.ID, err)
	}
}

func validateCreateJobRequest(cjr *structs.CreateJobRequest) error {
	if cjr == nil {
		return fmt.Errorf("%w nil request", errors.ErrInvalidArg)
	}
	for field, val := range map[string]string{
		"distri": cjr.Distri, "version": cjr.Version, "flavor": cjr.Flavor,
		"arch": cjr.Arch, "test": cjr.Test,
	} {
		if val == "" {
			return fmt.Errorf("%w %s not set", errors.ErrInvalidArg, field)
		}
	}
	for _, p := range cjr.Parents {
		if structs.ToDepKind(string(p.Kind)) == "" {
			return fmt.Errorf("%w dependency kind %q", errors.ErrInvalidArg, p.Kind)
		}
	}
	return nil
}

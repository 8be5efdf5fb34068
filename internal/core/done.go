package core

import (
	"fmt"

	"github.com/B-Rich/openQA/pkg/errors"
	"github.com/B-Rich/openQA/pkg/structs"
)

// Done finalizes a non-terminal job.
//
// The result is forced to obsoleted when a new build superseded the job,
// otherwise taken from the request or computed from the modules. A result
// already recorded (eg. by a concurrent cancel) is never overwritten. A
// non-OK final result cascades to the job's children.
func (c *Service) Done(jobID int64, req *structs.DoneRequest) (structs.Result, error) {
	if req == nil {
		req = &structs.DoneRequest{}
	}
	job, err := c.db.Job(jobID)
	if err != nil {
		return structs.NONE, err
	}
	if structs.IsFinalState(job.State) {
		return structs.NONE, fmt.Errorf("%w job %d is %s", errors.ErrInvalidState, jobID, job.State)
	}

	modules, err := c.db.Modules(job.ID)
	if err != nil {
		return structs.NONE, err
	}

	result := req.Result
	if req.ForceNewBuild {
		result = structs.OBSOLETED
	} else if result == "" {
		result = CalculateResult(modules)
	}

	// release everything the job holds, in order: transient token, networks,
	// locks held, locks owned, then the worker itself
	if _, ok := job.Settings[structs.KeyJobToken]; ok {
		delete(job.Settings, structs.KeyJobToken)
		err = c.db.UpdateJob(job)
		if err != nil {
			return structs.NONE, err
		}
	}
	_, err = c.db.ReleaseJobNetworks(job.ID)
	if err != nil {
		return structs.NONE, err
	}
	_, err = c.db.ReleaseJobLocks(job.ID)
	if err != nil {
		return structs.NONE, err
	}
	_, err = c.db.DisownJobLocks(job.ID)
	if err != nil {
		return structs.NONE, err
	}
	if job.WorkerID != 0 {
		_, err = c.db.ClearWorkerJob(job.WorkerID, job.ID)
		if err != nil {
			return structs.NONE, err
		}
	}

	// modules left running by the worker are stale, reset them
	_, err = c.db.ResetRunningModules(job.ID)
	if err != nil {
		return structs.NONE, err
	}

	err = c.db.FinishJob(job.ID, structs.DONE)
	if err != nil {
		return structs.NONE, err
	}

	// cancellation may have recorded a result first; it wins
	rows, err := c.db.SetJobResultIfNone(job.ID, result)
	if err != nil {
		return structs.NONE, err
	}
	if rows == 0 {
		final, err := c.db.Job(job.ID)
		if err != nil {
			return structs.NONE, err
		}
		result = final.Result
	}

	if !structs.IsOKResult(result) {
		_, err = c.skipChildren(job.ID, map[int64]bool{job.ID: true})
		if err != nil {
			return result, err
		}
		_, err = c.stopChildren(job.ID, map[int64]bool{job.ID: true})
		if err != nil {
			return result, err
		}
	}

	// best-effort, never blocks the transition
	c.carryOverBugrefs(job, modules)

	return result, nil
}

package core

import (
	"fmt"

	"github.com/B-Rich/openQA/pkg/errors"
	"github.com/B-Rich/openQA/pkg/structs"
)

// UpdateStatus applies a worker's progress report to a job. It fails with
// ErrNoWorkerAssigned if no worker owns the job (the caller should treat the
// job as orphaned). It returns the freshly computed overall result without
// recording it; only Done finalizes results.
func (c *Service) UpdateStatus(jobID int64, r *structs.StatusReport) (structs.Result, error) {
	job, err := c.db.Job(jobID)
	if err != nil {
		return structs.NONE, err
	}
	if job.WorkerID == 0 {
		return structs.NONE, fmt.Errorf("%w job %d", errors.ErrNoWorkerAssigned, jobID)
	}

	// best-effort result artifacts, these never block the update
	if r.Log != "" {
		c.appendLog(job.ID, r.Log)
	}
	if len(r.Screenshot) > 0 {
		c.saveScreenshot(job.ID, r.ScreenshotName, r.Screenshot)
	}
	if len(r.Backend) > 0 {
		c.saveBackendInfo(job.ID, r.Backend)
	}

	if len(r.NewModules) > 0 {
		existing, err := c.db.Modules(job.ID)
		if err != nil {
			return structs.NONE, err
		}
		known := map[string]bool{}
		for _, m := range existing {
			known[m.Name] = true
		}
		ord := int64(len(existing))
		for _, def := range r.NewModules {
			mod := &structs.JobModule{ModuleDef: *def, JobID: job.ID, Result: structs.NONE, Ordinal: ord}
			if !known[def.Name] {
				ord++
			}
			// upsert: re-declaring an existing module keeps its identity
			err = c.db.UpsertModule(mod)
			if err != nil {
				return structs.NONE, err
			}
		}
	}

	for _, ms := range r.Modules {
		_, err = c.db.SetModuleResult(job.ID, ms.Name, ms.Result)
		if err != nil {
			return structs.NONE, err
		}
		if len(ms.Details) > 0 {
			c.saveModuleDetails(job.ID, ms.Name, ms.Details)
		}
	}

	// reports only ever toggle between running and waiting
	if r.Waiting && job.State == structs.RUNNING {
		err = c.db.SetJobState(job.ID, structs.WAITING)
	} else if !r.Waiting && job.State == structs.WAITING {
		err = c.db.SetJobState(job.ID, structs.RUNNING)
	}
	if err != nil {
		return structs.NONE, err
	}

	modules, err := c.db.Modules(job.ID)
	if err != nil {
		return structs.NONE, err
	}

	// refresh the per-result counters
	job.PassedCount, job.SoftfailedCount, job.FailedCount = 0, 0, 0
	for _, m := range modules {
		switch m.Result {
		case structs.PASSED:
			job.PassedCount++
		case structs.SOFTFAILED:
			job.SoftfailedCount++
		case structs.FAILED:
			job.FailedCount++
		}
	}
	err = c.db.UpdateJob(job)
	if err != nil {
		return structs.NONE, err
	}

	return CalculateResult(modules), nil
}

// CalculateResult computes a job's overall result from its modules.
//
// A module contributes a pass if it passed or is unimportant. A softfailed
// module downgrades an otherwise-passing aggregate but never overrides a
// failure. Anything else fails the job. Zero modules never silently pass.
func CalculateResult(modules []*structs.JobModule) structs.Result {
	if len(modules) == 0 {
		return structs.FAILED
	}
	overall := structs.PASSED
	for _, m := range modules {
		switch {
		case m.Result == structs.PASSED || !m.Important:
			continue
		case m.Result == structs.SOFTFAILED:
			if overall != structs.FAILED {
				overall = structs.SOFTFAILED
			}
		default:
			overall = structs.FAILED
		}
	}
	return overall
}

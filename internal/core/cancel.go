package core

import (
	"github.com/B-Rich/openQA/pkg/command"
	"github.com/B-Rich/openQA/pkg/structs"
)

// Cancel stops a job before (or while) it runs, returning how many jobs were
// affected including cascades. Cancellation is first-writer-wins: a job with
// any recorded result is left untouched and 0 is returned.
func (c *Service) Cancel(jobID int64, obsoleted bool) (int64, error) {
	job, err := c.db.Job(jobID)
	if err != nil {
		return 0, err
	}

	result := structs.USER_CANCELLED
	if obsoleted {
		result = structs.OBSOLETED
	}

	rows, err := c.db.CancelJobIfNoResult(job.ID, result)
	if err != nil {
		return 0, err
	}
	if rows == 0 {
		return 0, nil
	}

	if !structs.IsExecutionState(job.State) {
		return 1, nil
	}

	c.sendCommand(job, command.CANCEL)

	skipped, err := c.skipChildren(job.ID, map[int64]bool{job.ID: true})
	if err != nil {
		return 1 + skipped, err
	}
	stopped, err := c.stopChildren(job.ID, map[int64]bool{job.ID: true})
	return 1 + skipped + stopped, err
}

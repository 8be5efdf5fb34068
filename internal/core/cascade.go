package core

import (
	"github.com/B-Rich/openQA/pkg/command"
	"github.com/B-Rich/openQA/pkg/structs"
)

// skipChildren cancels not-yet-started children, recursively, regardless of
// edge kind: work that was waiting on this job can never start now. Returns
// the number of jobs skipped.
func (c *Service) skipChildren(jobID int64, visited map[int64]bool) (int64, error) {
	children, err := c.db.ChildrenOf(jobID)
	if err != nil {
		return 0, err
	}

	var count int64
	for _, edge := range children {
		if visited[edge.ChildID] {
			continue
		}
		visited[edge.ChildID] = true

		rows, err := c.db.SkipJobIfScheduled(edge.ChildID, structs.SKIPPED)
		if err != nil {
			return count, err
		}
		if rows == 0 {
			// already started or raced with another skip, nothing below changes
			continue
		}
		count += rows

		sub, err := c.skipChildren(edge.ChildID, visited)
		count += sub
		if err != nil {
			return count, err
		}
	}
	return count, nil
}

// stopChildren halts running parallel children, recursively. Only parallel
// edges propagate: chained children are independent executions. Returns the
// number of jobs notified.
func (c *Service) stopChildren(jobID int64, visited map[int64]bool) (int64, error) {
	children, err := c.db.ChildrenOf(jobID)
	if err != nil {
		return 0, err
	}

	var count int64
	for _, edge := range children {
		if edge.Kind != structs.PARALLEL || visited[edge.ChildID] {
			continue
		}
		visited[edge.ChildID] = true

		child, err := c.db.Job(edge.ChildID)
		if err != nil {
			return count, err
		}
		if !structs.IsExecutionState(child.State) {
			continue
		}

		_, err = c.db.SetJobResultIfNone(child.ID, structs.PARALLEL_FAILED)
		if err != nil {
			return count, err
		}
		c.sendCommand(child, command.CANCEL)
		count++

		sub, err := c.stopChildren(child.ID, visited)
		count += sub
		if err != nil {
			return count, err
		}
	}
	return count, nil
}

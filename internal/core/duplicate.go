package core

import (
	"fmt"

	"github.com/B-Rich/openQA/pkg/command"
	"github.com/B-Rich/openQA/pkg/errors"
	"github.com/B-Rich/openQA/pkg/structs"
)

// dupOptions tune a single duplication pass.
type dupOptions struct {
	priority   int64 // 0 inherits the original's priority
	retries    int64
	setRetries bool // otherwise retries are inherited
}

// canDuplicate reports whether a job is eligible for cloning: it must have
// left the scheduler's hands and must not have been replaced already.
func canDuplicate(j *structs.Job) bool {
	if j.CloneID != 0 {
		return false
	}
	switch j.State {
	case structs.RUNNING, structs.WAITING, structs.UPLOADING, structs.DONE, structs.CANCELLED:
		return true
	default:
		return false
	}
}

// Duplicate clones a job and the minimal reachable subgraph needed to keep
// the dependency graph consistent. It returns ErrAlreadyCloned if the job
// was replaced before (or while) we got to it.
func (c *Service) Duplicate(jobID int64) (*structs.Job, error) {
	job, err := c.db.Job(jobID)
	if err != nil {
		return nil, err
	}
	visited := map[int64]*structs.Job{}
	err = c.duplicate(job, &dupOptions{}, visited)
	if err != nil {
		return nil, err
	}
	clone := visited[job.ID]
	if clone == nil {
		return nil, fmt.Errorf("%w job %d", errors.ErrAlreadyCloned, jobID)
	}
	return clone, nil
}

// AutoDuplicate restarts a job: it duplicates the job's cluster and halts
// every other still-executing member of the duplicated set so the
// replacements can take over. Automatic restarts consume a retry; manual
// restarts top the counter back up.
func (c *Service) AutoDuplicate(jobID int64, automatic bool) (*structs.Job, error) {
	job, err := c.db.Job(jobID)
	if err != nil {
		return nil, err
	}

	opts := &dupOptions{setRetries: true}
	if automatic {
		if job.Retries <= 0 {
			return nil, fmt.Errorf("%w job %d", errors.ErrRetriesExhausted, jobID)
		}
		opts.retries = job.Retries - 1
	} else {
		opts.retries = job.Retries
		if opts.retries == 0 {
			opts.retries = 1
		}
	}

	visited := map[int64]*structs.Job{}
	err = c.duplicate(job, opts, visited)
	if err != nil {
		return nil, err
	}
	clone := visited[job.ID]
	if clone == nil {
		return nil, fmt.Errorf("%w job %d", errors.ErrAlreadyCloned, jobID)
	}

	// every other duplicated job still executing is now obsolete: flag it
	// & tell its worker to drop it. The root is left to finish on its own.
	for origID, dup := range visited {
		if dup == nil || origID == job.ID {
			continue
		}
		orig, err := c.db.Job(origID)
		if err != nil {
			return clone, err
		}
		if !structs.IsExecutionState(orig.State) {
			continue
		}
		_, err = c.db.SetJobResultIfNone(orig.ID, structs.PARALLEL_RESTARTED)
		if err != nil {
			return clone, err
		}
		c.sendCommand(orig, command.ABORT)
	}

	return clone, nil
}

// duplicate clones one job, recursing across dependency edges.
//
// visited threads through every recursive call: a key that is present but
// nil is "in progress" (a frame above us is cloning it; edges to it are
// that frame's business), non-nil is the finished clone. This bounds work
// on graphs that aren't actually acyclic and stops the same node being
// cloned from two directions.
func (c *Service) duplicate(job *structs.Job, opts *dupOptions, visited map[int64]*structs.Job) error {
	if _, ok := visited[job.ID]; ok {
		return nil
	}
	if job.CloneID != 0 {
		return fmt.Errorf("%w job %d", errors.ErrAlreadyCloned, job.ID)
	}
	if !canDuplicate(job) {
		return fmt.Errorf("%w job %d is %s", errors.ErrInvalidState, job.ID, job.State)
	}
	visited[job.ID] = nil

	// parents: parallel ancestry is duplicated with us, chained ancestry is
	// shared so we don't grow duplicate chains
	parents, err := c.db.ParentsOf(job.ID)
	if err != nil {
		return err
	}
	parentLinks := []*structs.JobDependency{}
	for _, edge := range parents {
		if edge.Kind == structs.CHAINED {
			parentLinks = append(parentLinks, &structs.JobDependency{ParentID: edge.ParentID, Kind: structs.CHAINED})
			continue
		}
		parent, err := c.db.Job(edge.ParentID)
		if err != nil {
			return err
		}
		node, err := c.resolveForLink(parent, opts, visited)
		if err != nil {
			return err
		}
		if node == nil {
			// in progress above us; that frame wires the edge
			continue
		}
		parentLinks = append(parentLinks, &structs.JobDependency{ParentID: node.ID, Kind: structs.PARALLEL})
	}

	children, err := c.db.ChildrenOf(job.ID)
	if err != nil {
		return err
	}
	childLinks := []*structs.JobDependency{}
	staleEdges := []*structs.JobDependency{}
	for _, edge := range children {
		if _, ok := visited[edge.ChildID]; ok {
			continue // already part of the duplicated set
		}
		child, err := c.db.Job(edge.ChildID)
		if err != nil {
			return err
		}
		if edge.Kind == structs.PARALLEL && child.State == structs.DONE {
			continue // a finished parallel sibling doesn't need to restart
		}
		if child.State == structs.SCHEDULED {
			// never started: adopt it in place of cloning. The edge to us
			// is replaced below, but only once the clone reference is won
			staleEdges = append(staleEdges, edge)
			childLinks = append(childLinks, &structs.JobDependency{ChildID: child.ID, Kind: edge.Kind})
			continue
		}
		node, err := c.resolveForLink(child, opts, visited)
		if err != nil {
			return err
		}
		if node == nil {
			continue
		}
		childLinks = append(childLinks, &structs.JobDependency{ChildID: node.ID, Kind: edge.Kind})
	}

	// the conditional clone-reference update inside CreateClone is the
	// optimistic concurrency guard; losing it means a concurrent duplicate
	// won & the caller's intent is already satisfied
	clone := buildClone(job, opts)
	created, err := c.db.CreateClone(job.ID, clone)
	if err != nil {
		return err
	}
	if !created {
		delete(visited, job.ID)
		return nil
	}

	for _, edge := range staleEdges {
		err = c.db.DeleteDependency(edge)
		if err != nil {
			return err
		}
	}
	for _, link := range parentLinks {
		err = c.db.InsertDependency(&structs.JobDependency{ParentID: link.ParentID, ChildID: clone.ID, Kind: link.Kind})
		if err != nil {
			return err
		}
	}
	for _, link := range childLinks {
		err = c.db.InsertDependency(&structs.JobDependency{ParentID: clone.ID, ChildID: link.ChildID, Kind: link.Kind})
		if err != nil {
			return err
		}
	}

	// the clone inherits the same resolved assets
	err = c.registerAssets(clone)
	if err != nil {
		return err
	}

	visited[job.ID] = clone
	return nil
}

// resolveForLink finds the job a freshly created clone should link against:
// the given job's clone from this pass, a clone made by someone else (found
// by walking the clone chain), the job itself if it never started, or nil
// if a frame above us is already handling it. The walk is capped; the chain
// is a plain linked list via foreign keys and nothing stops it being
// corrupted into a loop.
func (c *Service) resolveForLink(job *structs.Job, opts *dupOptions, visited map[int64]*structs.Job) (*structs.Job, error) {
	cur := job
	for hop := 0; hop < maxCloneChain; hop++ {
		if node, ok := visited[cur.ID]; ok {
			return node, nil
		}
		if canDuplicate(cur) {
			err := c.duplicate(cur, opts, visited)
			if err != nil {
				return nil, err
			}
			if node := visited[cur.ID]; node != nil {
				return node, nil
			}
			// we lost the clone race; reload & follow the winner's chain
			fresh, err := c.db.Job(cur.ID)
			if err != nil {
				return nil, err
			}
			cur = fresh
			continue
		}
		if cur.State == structs.SCHEDULED {
			return cur, nil // not started yet, link it as-is
		}
		if cur.CloneID != 0 {
			next, err := c.db.Job(cur.CloneID)
			if err != nil {
				return nil, err
			}
			cur = next
			continue
		}
		// not duplicable, not scheduled, no clone (eg. stuck in setup):
		// the existing job is the best link target we have
		return cur, nil
	}
	return nil, fmt.Errorf("%w starting at job %d", errors.ErrCloneChain, job.ID)
}

// buildClone copies everything that defines the job while dropping the
// per-instance settings.
func buildClone(job *structs.Job, opts *dupOptions) *structs.Job {
	settings := map[string]string{}
	for k, v := range job.Settings {
		if k == structs.KeyName || k == structs.KeyJobToken {
			continue
		}
		settings[k] = v
	}
	clone := &structs.Job{
		JobSpec: structs.JobSpec{
			Scenario: job.Scenario,
			Priority: job.Priority,
			GroupID:  job.GroupID,
			Retries:  job.Retries,
			Settings: settings,
		},
		State:  structs.SCHEDULED,
		Result: structs.NONE,
	}
	if opts.priority > 0 {
		clone.Priority = opts.priority
	}
	if opts.setRetries {
		clone.Retries = opts.retries
	}
	return clone
}

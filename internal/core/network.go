package core

import (
	stderrors "errors"
	"fmt"

	"github.com/B-Rich/openQA/pkg/errors"
	"github.com/B-Rich/openQA/pkg/structs"
)

// AllocateNetwork returns the VLAN tag backing a logical network name for
// the given job. Jobs connected by parallel edges share one tag per name;
// unrelated jobs never collide.
func (c *Service) AllocateNetwork(jobID int64, name string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: network name required", errors.ErrInvalidArg)
	}
	_, err := c.db.Job(jobID)
	if err != nil {
		return 0, err
	}

	cluster, err := c.parallelCluster(jobID)
	if err != nil {
		return 0, err
	}
	existing, err := c.db.JobNetworks(cluster, name)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return existing[0].Vlan, nil
	}

	// claim the lowest free tag; the unique index turns a race into
	// ErrVlanTaken and we move on to the next candidate
	usedList, err := c.db.UsedVlans()
	if err != nil {
		return 0, err
	}
	used := map[int64]bool{}
	for _, v := range usedList {
		used[v] = true
	}
	for candidate := int64(1); ; candidate++ {
		if used[candidate] {
			continue
		}
		err = c.db.InsertNetwork(&structs.NetworkAllocation{JobID: jobID, Name: name, Vlan: candidate})
		if err == nil {
			return candidate, nil
		}
		if !stderrors.Is(err, errors.ErrVlanTaken) {
			return 0, err
		}
	}
}

// parallelCluster collects every job reachable from the given one over
// parallel edges in either direction, including the job itself.
func (c *Service) parallelCluster(jobID int64) ([]int64, error) {
	seen := map[int64]bool{jobID: true}
	order := []int64{jobID}
	frontier := []int64{jobID}

	for len(frontier) > 0 {
		next := []int64{}
		for _, id := range frontier {
			parents, err := c.db.ParentsOf(id)
			if err != nil {
				return nil, err
			}
			children, err := c.db.ChildrenOf(id)
			if err != nil {
				return nil, err
			}
			for _, edge := range append(parents, children...) {
				if edge.Kind != structs.PARALLEL {
					continue
				}
				for _, peer := range []int64{edge.ParentID, edge.ChildID} {
					if seen[peer] {
						continue
					}
					seen[peer] = true
					order = append(order, peer)
					next = append(next, peer)
				}
			}
		}
		frontier = next
	}
	return order, nil
}

package core

import (
	"github.com/B-Rich/openQA/pkg/structs"
)

// Summary builds the flat read projection of a job, optionally with its
// assets grouped by type and its dependencies grouped by kind.
func (c *Service) Summary(jobID int64, opts *structs.SummaryOpts) (*structs.Summary, error) {
	if opts == nil {
		opts = &structs.SummaryOpts{}
	}
	job, err := c.db.Job(jobID)
	if err != nil {
		return nil, err
	}

	s := &structs.Summary{
		ID:         job.ID,
		Name:       job.Name(),
		Priority:   job.Priority,
		State:      job.State,
		Result:     job.Result,
		StartedAt:  job.StartedAt,
		FinishedAt: job.FinishedAt,
		Settings:   job.RenderedSettings(),
	}

	if opts.IncludeAssets {
		assets, err := c.db.JobAssets(job.ID)
		if err != nil {
			return nil, err
		}
		s.Assets = map[string][]string{}
		for _, a := range assets {
			s.Assets[string(a.Type)] = append(s.Assets[string(a.Type)], a.Name)
		}
	}

	if opts.IncludeDeps {
		parents, err := c.db.ParentsOf(job.ID)
		if err != nil {
			return nil, err
		}
		children, err := c.db.ChildrenOf(job.ID)
		if err != nil {
			return nil, err
		}
		s.Parents = map[string][]int64{}
		for _, e := range parents {
			s.Parents[string(e.Kind)] = append(s.Parents[string(e.Kind)], e.ParentID)
		}
		s.Children = map[string][]int64{}
		for _, e := range children {
			s.Children[string(e.Kind)] = append(s.Children[string(e.Kind)], e.ChildID)
		}
	}

	return s, nil
}

package core

import (
	"log"
	"regexp"
	"strings"

	"github.com/B-Rich/openQA/pkg/structs"
)

// bugrefPattern matches ticket references like poo#1234 or bsc#56789.
var bugrefPattern = regexp.MustCompile(`\b[a-zA-Z]+#\d+\b`)

const takeoverNote = "(Automatic takeover)"

// failureSignature condenses a module set into a comparable string: the
// comma-joined name:result of every failed or softfailed module, or "GOOD"
// when nothing failed.
func failureSignature(modules []*structs.JobModule) string {
	parts := []string{}
	for _, m := range modules {
		if m.Result == structs.FAILED || m.Result == structs.SOFTFAILED {
			parts = append(parts, m.Name+":"+string(m.Result))
		}
	}
	if len(parts) == 0 {
		return "GOOD"
	}
	return strings.Join(parts, ",")
}

// carryOverBugrefs looks for an earlier run of the same scenario that failed
// the exact same way and, if one exists, copies its latest bug reference
// comment onto this job. Everything here is best-effort; a finalized job is
// never rolled back over a missing carry-over.
func (c *Service) carryOverBugrefs(job *structs.Job, modules []*structs.JobModule) {
	sig := failureSignature(modules)
	if sig == "GOOD" {
		return
	}

	scenario := job.Scenario
	prior, err := c.db.Jobs(&structs.Query{
		Scenario: &scenario,
		States:   []structs.State{structs.DONE},
		BeforeID: job.ID,
		Limit:    c.opts.CarryoverLookback,
	})
	if err != nil {
		log.Printf("job %d: carry-over lookup failed: %v", job.ID, err)
		return
	}

	seen := map[string]bool{}
	for _, p := range prior {
		if !structs.IsCompleteResult(p.Result) {
			continue
		}
		pmods, err := c.db.Modules(p.ID)
		if err != nil {
			log.Printf("job %d: carry-over lookup failed: %v", job.ID, err)
			return
		}
		psig := failureSignature(pmods)
		if psig != sig {
			// too many distinct failure modes means the scenario is flaky
			// and old bug references are probably unrelated
			seen[psig] = true
			if len(seen) > c.opts.CarryoverSignatures {
				return
			}
			continue
		}
		c.copyBugref(job, p)
		return
	}
}

// copyBugref copies the newest bug-referencing comment from src onto dst,
// keeping the original author and flagging the copy as automatic.
func (c *Service) copyBugref(dst, src *structs.Job) {
	comments, err := c.db.JobComments(src.ID)
	if err != nil {
		log.Printf("job %d: carry-over lookup failed: %v", dst.ID, err)
		return
	}
	for _, cm := range comments {
		if !bugrefPattern.MatchString(cm.Text) {
			continue
		}
		text := cm.Text
		if !strings.Contains(text, takeoverNote) {
			text = text + "\n" + takeoverNote
		}
		err = c.db.InsertComment(&structs.Comment{JobID: dst.ID, User: cm.User, Text: text})
		if err != nil {
			log.Printf("job %d: carry-over comment failed: %v", dst.ID, err)
		}
		return
	}
}

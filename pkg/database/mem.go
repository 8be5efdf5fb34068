package database

import (
	"fmt"
	"sort"
	"sync"

	"github.com/B-Rich/openQA/pkg/errors"
	"github.com/B-Rich/openQA/pkg/structs"
)

// Mem is an in-memory Database used by unit tests and the demo command.
// It honours the same compare-and-swap contracts as Postgres: conditional
// writes happen under one lock and report the rows they touched.
type Mem struct {
	mu sync.Mutex

	nextJobID    int64
	nextAssetID  int64
	nextWorkerID int64
	nextComment  int64

	jobs     map[int64]*structs.Job
	deps     []*structs.JobDependency
	modules  map[int64][]*structs.JobModule
	assets   []*structs.Asset
	links    map[string]bool // "job:asset" -> created_by
	jobLinks map[int64][]int64
	networks []*structs.NetworkAllocation
	locks    []*structs.Lock
	workers  map[int64]*structs.Worker
	comments []*structs.Comment
}

// NewMem returns an empty in-memory database.
func NewMem() *Mem {
	return &Mem{
		jobs:     map[int64]*structs.Job{},
		modules:  map[int64][]*structs.JobModule{},
		links:    map[string]bool{},
		jobLinks: map[int64][]int64{},
		workers:  map[int64]*structs.Worker{},
	}
}

func (m *Mem) Close() error { return nil }

func (m *Mem) InsertJob(j *structs.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertJobLocked(j)
}

func (m *Mem) insertJobLocked(j *structs.Job) error {
	m.nextJobID++
	j.ID = m.nextJobID
	if j.CreatedAt == 0 {
		j.CreatedAt = timeNow()
		j.UpdatedAt = j.CreatedAt
	}
	m.jobs[j.ID] = copyJob(j)
	return nil
}

func (m *Mem) Job(id int64) (*structs.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w job %d", errors.ErrNotFound, id)
	}
	return copyJob(j), nil
}

func (m *Mem) Jobs(q *structs.Query) ([]*structs.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := []int64{}
	for id := range m.jobs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, k int) bool { return ids[i] > ids[k] }) // newest first

	out := []*structs.Job{}
	skipped := 0
	for _, id := range ids {
		j := m.jobs[id]
		if !matchJob(j, q) {
			continue
		}
		if skipped < q.Offset {
			skipped++
			continue
		}
		out = append(out, copyJob(j))
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

func (m *Mem) UpdateJob(j *structs.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.jobs[j.ID]
	if !ok {
		return fmt.Errorf("%w job %d", errors.ErrNotFound, j.ID)
	}
	cur.Priority = j.Priority
	cur.Retries = j.Retries
	cur.Settings = copySettings(j.Settings)
	cur.WorkerID = j.WorkerID
	cur.StartedAt = j.StartedAt
	cur.FinishedAt = j.FinishedAt
	cur.PassedCount = j.PassedCount
	cur.SoftfailedCount = j.SoftfailedCount
	cur.FailedCount = j.FailedCount
	cur.UpdatedAt = timeNow()
	return nil
}

func (m *Mem) SetJobState(id int64, state structs.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return fmt.Errorf("%w job %d", errors.ErrNotFound, id)
	}
	j.State = state
	j.UpdatedAt = timeNow()
	return nil
}

func (m *Mem) SetJobResultIfNone(id int64, result structs.Result) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok || j.Result != structs.NONE {
		return 0, nil
	}
	j.Result = result
	j.UpdatedAt = timeNow()
	return 1, nil
}

func (m *Mem) FinishJob(id int64, state structs.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return fmt.Errorf("%w job %d", errors.ErrNotFound, id)
	}
	j.State = state
	j.FinishedAt = timeNow()
	j.UpdatedAt = j.FinishedAt
	return nil
}

func (m *Mem) CancelJobIfNoResult(id int64, result structs.Result) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok || j.Result != structs.NONE {
		return 0, nil
	}
	j.State = structs.CANCELLED
	j.Result = result
	j.FinishedAt = timeNow()
	j.UpdatedAt = j.FinishedAt
	return 1, nil
}

func (m *Mem) SkipJobIfScheduled(id int64, result structs.Result) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok || j.State != structs.SCHEDULED {
		return 0, nil
	}
	j.State = structs.CANCELLED
	j.Result = result
	j.UpdatedAt = timeNow()
	return 1, nil
}

func (m *Mem) CreateClone(origID int64, clone *structs.Job) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	orig, ok := m.jobs[origID]
	if !ok {
		return false, fmt.Errorf("%w job %d", errors.ErrNotFound, origID)
	}
	if orig.CloneID != 0 {
		// a concurrent clone won, nothing is created
		return false, nil
	}
	err := m.insertJobLocked(clone)
	if err != nil {
		return false, err
	}
	orig.CloneID = clone.ID
	orig.UpdatedAt = timeNow()
	return true, nil
}

func (m *Mem) InsertDependency(d *structs.JobDependency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.deps {
		if e.ParentID == d.ParentID && e.ChildID == d.ChildID && e.Kind == d.Kind {
			return nil
		}
	}
	m.deps = append(m.deps, &structs.JobDependency{ParentID: d.ParentID, ChildID: d.ChildID, Kind: d.Kind})
	return nil
}

func (m *Mem) DeleteDependency(d *structs.JobDependency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.deps[:0]
	for _, e := range m.deps {
		if e.ParentID == d.ParentID && e.ChildID == d.ChildID && e.Kind == d.Kind {
			continue
		}
		kept = append(kept, e)
	}
	m.deps = kept
	return nil
}

func (m *Mem) ParentsOf(jobID int64) ([]*structs.JobDependency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*structs.JobDependency{}
	for _, e := range m.deps {
		if e.ChildID == jobID {
			out = append(out, &structs.JobDependency{ParentID: e.ParentID, ChildID: e.ChildID, Kind: e.Kind})
		}
	}
	return out, nil
}

func (m *Mem) ChildrenOf(jobID int64) ([]*structs.JobDependency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*structs.JobDependency{}
	for _, e := range m.deps {
		if e.ParentID == jobID {
			out = append(out, &structs.JobDependency{ParentID: e.ParentID, ChildID: e.ChildID, Kind: e.Kind})
		}
	}
	return out, nil
}

func (m *Mem) UpsertModule(mod *structs.JobModule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cur := range m.modules[mod.JobID] {
		if cur.Name == mod.Name {
			cur.Category = mod.Category
			cur.Script = mod.Script
			cur.Important = mod.Important
			cur.Fatal = mod.Fatal
			return nil
		}
	}
	cp := *mod
	m.modules[mod.JobID] = append(m.modules[mod.JobID], &cp)
	return nil
}

func (m *Mem) SetModuleResult(jobID int64, name string, result structs.Result) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cur := range m.modules[jobID] {
		if cur.Name == name {
			cur.Result = result
			return 1, nil
		}
	}
	return 0, nil
}

func (m *Mem) Modules(jobID int64) ([]*structs.JobModule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*structs.JobModule{}
	for _, cur := range m.modules[jobID] {
		cp := *cur
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Ordinal < out[k].Ordinal })
	return out, nil
}

func (m *Mem) ResetRunningModules(jobID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, cur := range m.modules[jobID] {
		if cur.Result == structs.RUNNING_RESULT {
			cur.Result = structs.NONE
			count++
		}
	}
	return count, nil
}

func (m *Mem) Asset(t structs.AssetType, name string) (*structs.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.assets {
		if a.Type == t && a.Name == name {
			cp := *a
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w asset %s/%s", errors.ErrNotFound, t, name)
}

func (m *Mem) EnsureAsset(t structs.AssetType, name string) (*structs.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.assets {
		if a.Type == t && a.Name == name {
			cp := *a
			return &cp, nil
		}
	}
	m.nextAssetID++
	a := &structs.Asset{ID: m.nextAssetID, Type: t, Name: name}
	m.assets = append(m.assets, a)
	cp := *a
	return &cp, nil
}

func (m *Mem) LinkJobAsset(jobID, assetID int64, createdBy bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("%d:%d", jobID, assetID)
	if _, ok := m.links[key]; ok {
		return nil
	}
	m.links[key] = createdBy
	m.jobLinks[jobID] = append(m.jobLinks[jobID], assetID)
	return nil
}

func (m *Mem) JobAssets(jobID int64) ([]*structs.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*structs.Asset{}
	for _, aid := range m.jobLinks[jobID] {
		for _, a := range m.assets {
			if a.ID == aid {
				cp := *a
				out = append(out, &cp)
			}
		}
	}
	return out, nil
}

func (m *Mem) JobNetworks(jobIDs []int64, name string) ([]*structs.NetworkAllocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := map[int64]bool{}
	for _, id := range jobIDs {
		want[id] = true
	}
	out := []*structs.NetworkAllocation{}
	for _, n := range m.networks {
		if n.Name == name && want[n.JobID] {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *Mem) UsedVlans() ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[int64]bool{}
	out := []int64{}
	for _, n := range m.networks {
		if !seen[n.Vlan] {
			seen[n.Vlan] = true
			out = append(out, n.Vlan)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i] < out[k] })
	return out, nil
}

func (m *Mem) InsertNetwork(n *structs.NetworkAllocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cur := range m.networks {
		if cur.Vlan == n.Vlan {
			return fmt.Errorf("%w vlan %d", errors.ErrVlanTaken, n.Vlan)
		}
	}
	cp := *n
	m.networks = append(m.networks, &cp)
	return nil
}

func (m *Mem) ReleaseJobNetworks(jobID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	kept := m.networks[:0]
	for _, n := range m.networks {
		if n.JobID == jobID {
			count++
			continue
		}
		kept = append(kept, n)
	}
	m.networks = kept
	return count, nil
}

func (m *Mem) InsertLock(l *structs.Lock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cur := range m.locks {
		if cur.Name == l.Name && cur.OwnerID == l.OwnerID {
			return nil
		}
	}
	cp := *l
	m.locks = append(m.locks, &cp)
	return nil
}

func (m *Mem) ReleaseJobLocks(jobID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, cur := range m.locks {
		if cur.LockedBy == jobID {
			cur.LockedBy = 0
			count++
		}
	}
	return count, nil
}

func (m *Mem) DisownJobLocks(jobID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	kept := m.locks[:0]
	for _, cur := range m.locks {
		if cur.OwnerID == jobID {
			count++
			continue
		}
		kept = append(kept, cur)
	}
	m.locks = kept
	return count, nil
}

func (m *Mem) Locks() ([]*structs.Lock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*structs.Lock{}
	for _, cur := range m.locks {
		cp := *cur
		out = append(out, &cp)
	}
	return out, nil
}

func (m *Mem) UpsertWorker(w *structs.Worker) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w.ID == 0 {
		m.nextWorkerID++
		w.ID = m.nextWorkerID
	} else if w.ID > m.nextWorkerID {
		m.nextWorkerID = w.ID
	}
	cp := *w
	m.workers[w.ID] = &cp
	return nil
}

func (m *Mem) Worker(id int64) (*structs.Worker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workers[id]
	if !ok {
		return nil, fmt.Errorf("%w worker %d", errors.ErrNotFound, id)
	}
	cp := *w
	return &cp, nil
}

func (m *Mem) AssignWorker(workerID, jobID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workers[workerID]
	if !ok {
		return fmt.Errorf("%w worker %d", errors.ErrNotFound, workerID)
	}
	j, ok := m.jobs[jobID]
	if !ok {
		return fmt.Errorf("%w job %d", errors.ErrNotFound, jobID)
	}
	w.JobID = jobID
	j.WorkerID = workerID
	j.State = structs.SETUP
	j.StartedAt = timeNow()
	j.UpdatedAt = j.StartedAt
	return nil
}

func (m *Mem) ClearWorkerJob(workerID, jobID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workers[workerID]
	if !ok || w.JobID != jobID {
		return 0, nil
	}
	w.JobID = 0
	return 1, nil
}

func (m *Mem) InsertComment(c *structs.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextComment++
	c.ID = m.nextComment
	if c.CreatedAt == 0 {
		c.CreatedAt = timeNow()
	}
	cp := *c
	m.comments = append(m.comments, &cp)
	return nil
}

func (m *Mem) JobComments(jobID int64) ([]*structs.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*structs.Comment{}
	for _, c := range m.comments {
		if c.JobID == jobID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID > out[k].ID }) // newest first
	return out, nil
}

func matchJob(j *structs.Job, q *structs.Query) bool {
	if len(q.JobIDs) > 0 && !containsInt(q.JobIDs, j.ID) {
		return false
	}
	if len(q.States) > 0 {
		found := false
		for _, s := range q.States {
			if j.State == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(q.Results) > 0 {
		found := false
		for _, r := range q.Results {
			if j.Result == r {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.Scenario != nil {
		s := q.Scenario
		if j.Distri != s.Distri || j.Version != s.Version || j.Flavor != s.Flavor ||
			j.Arch != s.Arch || j.Test != s.Test || j.Machine != s.Machine {
			return false
		}
	}
	if q.BeforeID > 0 && j.ID >= q.BeforeID {
		return false
	}
	return true
}

func containsInt(in []int64, v int64) bool {
	for _, i := range in {
		if i == v {
			return true
		}
	}
	return false
}

func copyJob(j *structs.Job) *structs.Job {
	cp := *j
	cp.Settings = copySettings(j.Settings)
	return &cp
}

func copySettings(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

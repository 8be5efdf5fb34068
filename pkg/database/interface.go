package database

import (
	"github.com/B-Rich/openQA/pkg/structs"
)

// Database is transactional persistence for the scheduler core.
//
// Methods whose name encodes a condition (CreateClone, CancelJobIfNoResult,
// SkipJobIfScheduled, SetJobResultIfNone) are the compare-and-swap linchpins
// of the concurrency model: they execute the conditional write inside one
// transaction and report how many rows it touched. Zero rows means a
// concurrent writer won; callers abort silently, they never retry the write.
type Database interface {
	// InsertJob stores a new job and assigns its ID.
	InsertJob(j *structs.Job) error

	// Job returns one job by id, ErrNotFound if missing.
	Job(id int64) (*structs.Job, error)

	// Jobs returns jobs matching the given query, newest first.
	Jobs(q *structs.Query) ([]*structs.Job, error)

	// UpdateJob persists a job's mutable bookkeeping fields (priority,
	// retries, settings, module counters, timestamps, worker assignment).
	// It never touches state, result or the clone reference.
	UpdateJob(j *structs.Job) error

	// SetJobState unconditionally moves a job to the given state.
	SetJobState(id int64, state structs.State) error

	// SetJobResultIfNone records a result only if none is recorded yet.
	SetJobResultIfNone(id int64, result structs.Result) (int64, error)

	// FinishJob moves a job to a terminal state and stamps finished_at.
	FinishJob(id int64, state structs.State) error

	// CancelJobIfNoResult sets state cancelled + the given result, but only
	// if the job has no result yet. First writer wins.
	CancelJobIfNoResult(id int64, result structs.Result) (int64, error)

	// SkipJobIfScheduled sets cancelled + the given result, but only if the
	// job never started.
	SkipJobIfScheduled(id int64, result structs.Result) (int64, error)

	// CreateClone inserts the clone and sets the original's clone reference
	// in one transaction, guarded by "clone reference still unset". Returns
	// false (and rolls back) if a concurrent clone won.
	CreateClone(origID int64, clone *structs.Job) (bool, error)

	// dependency edges
	InsertDependency(d *structs.JobDependency) error // idempotent
	DeleteDependency(d *structs.JobDependency) error
	ParentsOf(jobID int64) ([]*structs.JobDependency, error)
	ChildrenOf(jobID int64) ([]*structs.JobDependency, error)

	// test modules
	UpsertModule(m *structs.JobModule) error
	SetModuleResult(jobID int64, name string, result structs.Result) (int64, error)
	Modules(jobID int64) ([]*structs.JobModule, error)
	ResetRunningModules(jobID int64) (int64, error)

	// assets
	Asset(t structs.AssetType, name string) (*structs.Asset, error)
	EnsureAsset(t structs.AssetType, name string) (*structs.Asset, error)
	LinkJobAsset(jobID, assetID int64, createdBy bool) error // idempotent
	JobAssets(jobID int64) ([]*structs.Asset, error)

	// network allocations
	JobNetworks(jobIDs []int64, name string) ([]*structs.NetworkAllocation, error)
	UsedVlans() ([]int64, error)
	InsertNetwork(n *structs.NetworkAllocation) error // ErrVlanTaken on conflict
	ReleaseJobNetworks(jobID int64) (int64, error)

	// locks
	InsertLock(l *structs.Lock) error
	ReleaseJobLocks(jobID int64) (int64, error)
	DisownJobLocks(jobID int64) (int64, error)
	Locks() ([]*structs.Lock, error)

	// workers
	UpsertWorker(w *structs.Worker) error
	Worker(id int64) (*structs.Worker, error)
	AssignWorker(workerID, jobID int64) error
	ClearWorkerJob(workerID, jobID int64) (int64, error)

	// comments
	InsertComment(c *structs.Comment) error
	JobComments(jobID int64) ([]*structs.Comment, error)

	Close() error
}

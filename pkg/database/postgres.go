package database

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/B-Rich/openQA/pkg/errors"
	"github.com/B-Rich/openQA/pkg/structs"
)

const (
	pgUniqueViolation = "23505"

	jobFields = `id, distri, version, flavor, arch, test, machine, priority, group_id, retries,
	settings, state, result, clone_id, worker_id, started_at, finished_at, created_at, updated_at,
	passed_count, softfailed_count, failed_count`
)

// Postgres is a scheduler database implementation that uses postgres.
type Postgres struct {
	opts *Options
	pool *pgxpool.Pool
}

// NewPostgres returns a new Postgres database connection.
func NewPostgres(opts *Options) (*Postgres, error) {
	opts.SetDefaults()
	opts.URL = strings.Replace(opts.URL, "$"+opts.UsernameEnvVar, os.Getenv(opts.UsernameEnvVar), 1)
	opts.URL = strings.Replace(opts.URL, "$"+opts.PasswordEnvVar, os.Getenv(opts.PasswordEnvVar), 1)
	pool, err := pgxpool.New(context.Background(), opts.URL)
	return &Postgres{pool: pool, opts: opts}, err
}

// Close shuts down the database connection.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// InsertJob stores a new job, assigning its ID.
func (p *Postgres) InsertJob(j *structs.Job) error {
	if j.CreatedAt == 0 {
		j.CreatedAt = timeNow()
		j.UpdatedAt = j.CreatedAt
	}
	settings, err := json.Marshal(j.Settings)
	if err != nil {
		return err
	}

	ctx := context.Background()
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	return conn.QueryRow(ctx,
		`INSERT INTO jobs (distri, version, flavor, arch, test, machine, priority, group_id, retries,
		settings, state, result, clone_id, worker_id, started_at, finished_at, created_at, updated_at,
		passed_count, softfailed_count, failed_count)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
		RETURNING id;`,
		j.Distri, j.Version, j.Flavor, j.Arch, j.Test, j.Machine, j.Priority, j.GroupID, j.Retries,
		settings, j.State, j.Result, j.CloneID, j.WorkerID, j.StartedAt, j.FinishedAt, j.CreatedAt,
		j.UpdatedAt, j.PassedCount, j.SoftfailedCount, j.FailedCount,
	).Scan(&j.ID)
}

// Job returns one job by id.
func (p *Postgres) Job(id int64) (*structs.Job, error) {
	jobs, err := p.Jobs(&structs.Query{Limit: 1, JobIDs: []int64{id}})
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("%w job %d", errors.ErrNotFound, id)
	}
	return jobs[0], nil
}

// Jobs returns jobs matching the given query, newest first.
func (p *Postgres) Jobs(q *structs.Query) ([]*structs.Job, error) {
	where, args := toJobSqlQuery(q)
	args = append(args, q.Limit, q.Offset)
	qstr := fmt.Sprintf(`SELECT %s FROM jobs %s ORDER BY id DESC LIMIT $%d OFFSET $%d;`,
		jobFields, where, len(args)-1, len(args),
	)

	ctx := context.Background()
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, qstr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []*structs.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// UpdateJob persists a job's mutable bookkeeping fields.
func (p *Postgres) UpdateJob(j *structs.Job) error {
	settings, err := json.Marshal(j.Settings)
	if err != nil {
		return err
	}
	return p.exec(`UPDATE jobs SET priority=$1, retries=$2, settings=$3, worker_id=$4,
		started_at=$5, finished_at=$6, passed_count=$7, softfailed_count=$8, failed_count=$9,
		updated_at=$10 WHERE id=$11;`,
		j.Priority, j.Retries, settings, j.WorkerID, j.StartedAt, j.FinishedAt,
		j.PassedCount, j.SoftfailedCount, j.FailedCount, timeNow(), j.ID,
	)
}

// SetJobState unconditionally moves a job to the given state.
func (p *Postgres) SetJobState(id int64, state structs.State) error {
	return p.exec(`UPDATE jobs SET state=$1, updated_at=$2 WHERE id=$3;`, state, timeNow(), id)
}

// SetJobResultIfNone records a result only if none is recorded yet.
func (p *Postgres) SetJobResultIfNone(id int64, result structs.Result) (int64, error) {
	return p.execRows(`UPDATE jobs SET result=$1, updated_at=$2 WHERE id=$3 AND result=$4;`,
		result, timeNow(), id, structs.NONE)
}

// FinishJob moves a job to a terminal state and stamps finished_at.
func (p *Postgres) FinishJob(id int64, state structs.State) error {
	return p.exec(`UPDATE jobs SET state=$1, finished_at=$2, updated_at=$2 WHERE id=$3;`,
		state, timeNow(), id)
}

// CancelJobIfNoResult cancels a job, first writer wins.
func (p *Postgres) CancelJobIfNoResult(id int64, result structs.Result) (int64, error) {
	return p.execRows(`UPDATE jobs SET state=$1, result=$2, finished_at=$3, updated_at=$3
		WHERE id=$4 AND result=$5;`,
		structs.CANCELLED, result, timeNow(), id, structs.NONE)
}

// SkipJobIfScheduled cancels a job that never started.
func (p *Postgres) SkipJobIfScheduled(id int64, result structs.Result) (int64, error) {
	return p.execRows(`UPDATE jobs SET state=$1, result=$2, updated_at=$3 WHERE id=$4 AND state=$5;`,
		structs.CANCELLED, result, timeNow(), id, structs.SCHEDULED)
}

// CreateClone inserts the clone & sets the original's clone reference in one
// transaction. The conditional update on the original is the optimistic
// concurrency guard: zero rows affected means a concurrent clone won, so we
// roll back and report no clone was created.
func (p *Postgres) CreateClone(origID int64, clone *structs.Job) (bool, error) {
	if clone.CreatedAt == 0 {
		clone.CreatedAt = timeNow()
		clone.UpdatedAt = clone.CreatedAt
	}
	settings, err := json.Marshal(clone.Settings)
	if err != nil {
		return false, err
	}

	ctx := context.Background()
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return false, err
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO jobs (distri, version, flavor, arch, test, machine, priority, group_id, retries,
		settings, state, result, clone_id, worker_id, started_at, finished_at, created_at, updated_at,
		passed_count, softfailed_count, failed_count)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
		RETURNING id;`,
		clone.Distri, clone.Version, clone.Flavor, clone.Arch, clone.Test, clone.Machine,
		clone.Priority, clone.GroupID, clone.Retries, settings, clone.State, clone.Result,
		clone.CloneID, clone.WorkerID, clone.StartedAt, clone.FinishedAt, clone.CreatedAt,
		clone.UpdatedAt, clone.PassedCount, clone.SoftfailedCount, clone.FailedCount,
	).Scan(&clone.ID)
	if err != nil {
		tx.Rollback(ctx)
		return false, err
	}

	info, err := tx.Exec(ctx,
		`UPDATE jobs SET clone_id=$1, updated_at=$2 WHERE id=$3 AND clone_id=0;`,
		clone.ID, timeNow(), origID,
	)
	if err != nil {
		tx.Rollback(ctx)
		return false, err
	}
	if info.RowsAffected() == 0 {
		tx.Rollback(ctx)
		return false, nil
	}

	err = tx.Commit(ctx)
	if err != nil {
		tx.Rollback(ctx)
		return false, err
	}
	return true, nil
}

// InsertDependency records an edge; re-inserting the same edge is a no-op.
func (p *Postgres) InsertDependency(d *structs.JobDependency) error {
	return p.exec(`INSERT INTO job_dependencies (parent_id, child_id, kind) VALUES ($1,$2,$3)
		ON CONFLICT (parent_id, child_id, kind) DO NOTHING;`,
		d.ParentID, d.ChildID, d.Kind)
}

// DeleteDependency removes an edge.
func (p *Postgres) DeleteDependency(d *structs.JobDependency) error {
	return p.exec(`DELETE FROM job_dependencies WHERE parent_id=$1 AND child_id=$2 AND kind=$3;`,
		d.ParentID, d.ChildID, d.Kind)
}

// ParentsOf returns edges whose child is the given job.
func (p *Postgres) ParentsOf(jobID int64) ([]*structs.JobDependency, error) {
	return p.dependencies(`SELECT parent_id, child_id, kind FROM job_dependencies
		WHERE child_id=$1 ORDER BY parent_id;`, jobID)
}

// ChildrenOf returns edges whose parent is the given job.
func (p *Postgres) ChildrenOf(jobID int64) ([]*structs.JobDependency, error) {
	return p.dependencies(`SELECT parent_id, child_id, kind FROM job_dependencies
		WHERE parent_id=$1 ORDER BY child_id;`, jobID)
}

// UpsertModule inserts a module; re-inserting an existing name updates the
// mutable fields only.
func (p *Postgres) UpsertModule(m *structs.JobModule) error {
	return p.exec(`INSERT INTO job_modules (job_id, name, category, script, ordinal, result, important, fatal)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (job_id, name) DO UPDATE SET category=$3, script=$4, important=$7, fatal=$8;`,
		m.JobID, m.Name, m.Category, m.Script, m.Ordinal, m.Result, m.Important, m.Fatal)
}

// SetModuleResult updates one module's result.
func (p *Postgres) SetModuleResult(jobID int64, name string, result structs.Result) (int64, error) {
	return p.execRows(`UPDATE job_modules SET result=$1 WHERE job_id=$2 AND name=$3;`,
		result, jobID, name)
}

// Modules returns the job's modules in execution order.
func (p *Postgres) Modules(jobID int64) ([]*structs.JobModule, error) {
	ctx := context.Background()
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx,
		`SELECT job_id, name, category, script, ordinal, result, important, fatal
		FROM job_modules WHERE job_id=$1 ORDER BY ordinal;`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mods := []*structs.JobModule{}
	for rows.Next() {
		m := structs.JobModule{}
		err = rows.Scan(&m.JobID, &m.Name, &m.Category, &m.Script, &m.Ordinal, &m.Result, &m.Important, &m.Fatal)
		if err != nil {
			return nil, err
		}
		mods = append(mods, &m)
	}
	return mods, rows.Err()
}

// ResetRunningModules clears results of modules a terminal job left running.
func (p *Postgres) ResetRunningModules(jobID int64) (int64, error) {
	return p.execRows(`UPDATE job_modules SET result=$1 WHERE job_id=$2 AND result=$3;`,
		structs.NONE, jobID, structs.RUNNING_RESULT)
}

// Asset returns an asset by type & name.
func (p *Postgres) Asset(t structs.AssetType, name string) (*structs.Asset, error) {
	ctx := context.Background()
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	a := structs.Asset{}
	err = conn.QueryRow(ctx, `SELECT id, type, name FROM assets WHERE type=$1 AND name=$2;`, t, name).
		Scan(&a.ID, &a.Type, &a.Name)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("%w asset %s/%s", errors.ErrNotFound, t, name)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// EnsureAsset finds or creates an asset. The upsert avoids unique constraint
// races when two logical names resolve to the same physical asset.
func (p *Postgres) EnsureAsset(t structs.AssetType, name string) (*structs.Asset, error) {
	ctx := context.Background()
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	a := structs.Asset{}
	err = conn.QueryRow(ctx,
		`INSERT INTO assets (type, name) VALUES ($1,$2)
		ON CONFLICT (type, name) DO UPDATE SET name=$2
		RETURNING id, type, name;`, t, name).
		Scan(&a.ID, &a.Type, &a.Name)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// LinkJobAsset attaches an asset to a job, idempotently.
func (p *Postgres) LinkJobAsset(jobID, assetID int64, createdBy bool) error {
	return p.exec(`INSERT INTO jobs_assets (job_id, asset_id, created_by) VALUES ($1,$2,$3)
		ON CONFLICT (job_id, asset_id) DO NOTHING;`, jobID, assetID, createdBy)
}

// JobAssets returns all assets linked to a job.
func (p *Postgres) JobAssets(jobID int64) ([]*structs.Asset, error) {
	ctx := context.Background()
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx,
		`SELECT a.id, a.type, a.name FROM assets a
		JOIN jobs_assets ja ON ja.asset_id = a.id WHERE ja.job_id=$1 ORDER BY a.id;`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assets := []*structs.Asset{}
	for rows.Next() {
		a := structs.Asset{}
		err = rows.Scan(&a.ID, &a.Type, &a.Name)
		if err != nil {
			return nil, err
		}
		assets = append(assets, &a)
	}
	return assets, rows.Err()
}

// JobNetworks returns allocations under the given name held by any of the jobs.
func (p *Postgres) JobNetworks(jobIDs []int64, name string) ([]*structs.NetworkAllocation, error) {
	if len(jobIDs) == 0 {
		return nil, nil
	}
	vals := []string{}
	args := []interface{}{name}
	for _, id := range jobIDs {
		args = append(args, id)
		vals = append(vals, fmt.Sprintf("$%d", len(args)))
	}
	qstr := fmt.Sprintf(`SELECT job_id, name, vlan FROM job_networks WHERE name=$1 AND job_id IN (%s);`,
		strings.Join(vals, ", "))

	ctx := context.Background()
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, qstr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	allocs := []*structs.NetworkAllocation{}
	for rows.Next() {
		n := structs.NetworkAllocation{}
		err = rows.Scan(&n.JobID, &n.Name, &n.Vlan)
		if err != nil {
			return nil, err
		}
		allocs = append(allocs, &n)
	}
	return allocs, rows.Err()
}

// UsedVlans returns every tag currently allocated, system wide.
func (p *Postgres) UsedVlans() ([]int64, error) {
	ctx := context.Background()
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT DISTINCT vlan FROM job_networks ORDER BY vlan;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []int64{}
	for rows.Next() {
		var t int64
		err = rows.Scan(&t)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// InsertNetwork records an allocation. The unique index on vlan turns a tag
// race into ErrVlanTaken so the allocator can retry with the next tag.
func (p *Postgres) InsertNetwork(n *structs.NetworkAllocation) error {
	err := p.exec(`INSERT INTO job_networks (job_id, name, vlan) VALUES ($1,$2,$3);`,
		n.JobID, n.Name, n.Vlan)
	var pgerr *pgconn.PgError
	if stderrors.As(err, &pgerr) && pgerr.Code == pgUniqueViolation {
		return fmt.Errorf("%w vlan %d", errors.ErrVlanTaken, n.Vlan)
	}
	return err
}

// ReleaseJobNetworks drops all of a job's allocations.
func (p *Postgres) ReleaseJobNetworks(jobID int64) (int64, error) {
	return p.execRows(`DELETE FROM job_networks WHERE job_id=$1;`, jobID)
}

// InsertLock records a named lock.
func (p *Postgres) InsertLock(l *structs.Lock) error {
	return p.exec(`INSERT INTO job_locks (name, owner_id, locked_by) VALUES ($1,$2,$3)
		ON CONFLICT (name, owner_id) DO NOTHING;`, l.Name, l.OwnerID, l.LockedBy)
}

// ReleaseJobLocks frees locks the given job currently holds.
func (p *Postgres) ReleaseJobLocks(jobID int64) (int64, error) {
	return p.execRows(`UPDATE job_locks SET locked_by=0 WHERE locked_by=$1;`, jobID)
}

// DisownJobLocks removes locks the given job owns.
func (p *Postgres) DisownJobLocks(jobID int64) (int64, error) {
	return p.execRows(`DELETE FROM job_locks WHERE owner_id=$1;`, jobID)
}

// Locks returns all locks.
func (p *Postgres) Locks() ([]*structs.Lock, error) {
	ctx := context.Background()
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT name, owner_id, locked_by FROM job_locks ORDER BY name;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locks := []*structs.Lock{}
	for rows.Next() {
		l := structs.Lock{}
		err = rows.Scan(&l.Name, &l.OwnerID, &l.LockedBy)
		if err != nil {
			return nil, err
		}
		locks = append(locks, &l)
	}
	return locks, rows.Err()
}

// UpsertWorker registers fleet capacity.
func (p *Postgres) UpsertWorker(w *structs.Worker) error {
	if w.ID != 0 {
		return p.exec(`INSERT INTO workers (id, host, instance, job_id) VALUES ($1,$2,$3,$4)
			ON CONFLICT (id) DO UPDATE SET host=$2, instance=$3;`, w.ID, w.Host, w.Instance, w.JobID)
	}
	ctx := context.Background()
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	return conn.QueryRow(ctx, `INSERT INTO workers (host, instance, job_id) VALUES ($1,$2,$3) RETURNING id;`,
		w.Host, w.Instance, w.JobID).Scan(&w.ID)
}

// Worker returns one worker by id.
func (p *Postgres) Worker(id int64) (*structs.Worker, error) {
	ctx := context.Background()
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	w := structs.Worker{}
	err = conn.QueryRow(ctx, `SELECT id, host, instance, job_id FROM workers WHERE id=$1;`, id).
		Scan(&w.ID, &w.Host, &w.Instance, &w.JobID)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("%w worker %d", errors.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// AssignWorker points a worker & job at each other.
func (p *Postgres) AssignWorker(workerID, jobID int64) error {
	ctx := context.Background()
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `UPDATE workers SET job_id=$1 WHERE id=$2;`, jobID, workerID)
	if err != nil {
		tx.Rollback(ctx)
		return err
	}
	_, err = tx.Exec(ctx, `UPDATE jobs SET worker_id=$1, state=$2, started_at=$3, updated_at=$3 WHERE id=$4;`,
		workerID, structs.SETUP, timeNow(), jobID)
	if err != nil {
		tx.Rollback(ctx)
		return err
	}
	err = tx.Commit(ctx)
	if err != nil {
		tx.Rollback(ctx)
	}
	return err
}

// ClearWorkerJob detaches a worker from a job (if it still points at it).
func (p *Postgres) ClearWorkerJob(workerID, jobID int64) (int64, error) {
	return p.execRows(`UPDATE workers SET job_id=0 WHERE id=$1 AND job_id=$2;`, workerID, jobID)
}

// InsertComment stores a comment on a job.
func (p *Postgres) InsertComment(c *structs.Comment) error {
	if c.CreatedAt == 0 {
		c.CreatedAt = timeNow()
	}
	ctx := context.Background()
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	return conn.QueryRow(ctx,
		`INSERT INTO comments (job_id, "user", text, created_at) VALUES ($1,$2,$3,$4) RETURNING id;`,
		c.JobID, c.User, c.Text, c.CreatedAt).Scan(&c.ID)
}

// JobComments returns a job's comments, newest first.
func (p *Postgres) JobComments(jobID int64) ([]*structs.Comment, error) {
	ctx := context.Background()
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx,
		`SELECT id, job_id, "user", text, created_at FROM comments WHERE job_id=$1 ORDER BY id DESC;`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []*structs.Comment{}
	for rows.Next() {
		c := structs.Comment{}
		err = rows.Scan(&c.ID, &c.JobID, &c.User, &c.Text, &c.CreatedAt)
		if err != nil {
			return nil, err
		}
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}

// exec runs a statement, discarding the row count.
func (p *Postgres) exec(qstr string, args ...interface{}) error {
	_, err := p.execRows(qstr, args...)
	return err
}

// execRows runs a statement and returns the affected row count.
func (p *Postgres) execRows(qstr string, args ...interface{}) (int64, error) {
	ctx := context.Background()
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	info, err := conn.Exec(ctx, qstr, args...)
	if err != nil {
		return 0, err
	}
	return info.RowsAffected(), nil
}

// dependencies runs a dependency query with one int arg.
func (p *Postgres) dependencies(qstr string, jobID int64) ([]*structs.JobDependency, error) {
	ctx := context.Background()
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, qstr, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	deps := []*structs.JobDependency{}
	for rows.Next() {
		d := structs.JobDependency{}
		err = rows.Scan(&d.ParentID, &d.ChildID, &d.Kind)
		if err != nil {
			return nil, err
		}
		deps = append(deps, &d)
	}
	return deps, rows.Err()
}

// toJobSqlQuery converts query data into a SQL where clause & args
func toJobSqlQuery(q *structs.Query) (string, []interface{}) {
	and := []string{}
	args := []interface{}{}

	if len(q.JobIDs) > 0 {
		vals := []string{}
		for _, id := range q.JobIDs {
			args = append(args, id)
			vals = append(vals, fmt.Sprintf("$%d", len(args)))
		}
		and = append(and, fmt.Sprintf("id IN (%s)", strings.Join(vals, ", ")))
	}
	if len(q.States) > 0 {
		vals := []string{}
		for _, s := range q.States {
			args = append(args, string(s))
			vals = append(vals, fmt.Sprintf("$%d", len(args)))
		}
		and = append(and, fmt.Sprintf("state IN (%s)", strings.Join(vals, ", ")))
	}
	if len(q.Results) > 0 {
		vals := []string{}
		for _, r := range q.Results {
			args = append(args, string(r))
			vals = append(vals, fmt.Sprintf("$%d", len(args)))
		}
		and = append(and, fmt.Sprintf("result IN (%s)", strings.Join(vals, ", ")))
	}
	if q.Scenario != nil {
		for field, val := range map[string]string{
			"distri": q.Scenario.Distri, "version": q.Scenario.Version, "flavor": q.Scenario.Flavor,
			"arch": q.Scenario.Arch, "test": q.Scenario.Test, "machine": q.Scenario.Machine,
		} {
			args = append(args, val)
			and = append(and, fmt.Sprintf("%s = $%d", field, len(args)))
		}
	}
	if q.BeforeID > 0 {
		args = append(args, q.BeforeID)
		and = append(and, fmt.Sprintf("id < $%d", len(args)))
	}

	if len(and) == 0 {
		return "", args
	}
	return fmt.Sprintf("WHERE %s", strings.Join(and, " AND ")), args
}

// scanJob reads one job row.
func scanJob(rows pgx.Rows) (*structs.Job, error) {
	j := structs.Job{}
	var settings []byte
	err := rows.Scan(
		&j.ID, &j.Distri, &j.Version, &j.Flavor, &j.Arch, &j.Test, &j.Machine, &j.Priority,
		&j.GroupID, &j.Retries, &settings, &j.State, &j.Result, &j.CloneID, &j.WorkerID,
		&j.StartedAt, &j.FinishedAt, &j.CreatedAt, &j.UpdatedAt,
		&j.PassedCount, &j.SoftfailedCount, &j.FailedCount,
	)
	if err != nil {
		return nil, err
	}
	if len(settings) > 0 {
		err = json.Unmarshal(settings, &j.Settings)
		if err != nil {
			return nil, err
		}
	}
	return &j, nil
}

// timeNow returns the current time in unix seconds
func timeNow() int64 {
	return time.Now().Unix()
}

package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/B-Rich/openQA/pkg/errors"
	"github.com/B-Rich/openQA/pkg/structs"
)

func testJob(test string) *structs.Job {
	return &structs.Job{
		JobSpec: structs.JobSpec{
			Scenario: structs.Scenario{Distri: "sle", Version: "15", Flavor: "dvd", Arch: "x86_64", Test: test},
			Priority: structs.DefaultPriority,
		},
		State:  structs.SCHEDULED,
		Result: structs.NONE,
	}
}

func TestCreateCloneFirstWriterWins(t *testing.T) {
	db := NewMem()

	orig := testJob("install")
	assert.Nil(t, db.InsertJob(orig))

	created, err := db.CreateClone(orig.ID, testJob("install"))
	assert.Nil(t, err)
	assert.True(t, created)

	// second attempt loses the race, nothing is created
	loser := testJob("install")
	created, err = db.CreateClone(orig.ID, loser)
	assert.Nil(t, err)
	assert.False(t, created)

	fresh, err := db.Job(orig.ID)
	assert.Nil(t, err)
	assert.Equal(t, int64(2), fresh.CloneID)
}

func TestSetJobResultIfNone(t *testing.T) {
	db := NewMem()
	j := testJob("install")
	assert.Nil(t, db.InsertJob(j))

	rows, err := db.SetJobResultIfNone(j.ID, structs.PARALLEL_FAILED)
	assert.Nil(t, err)
	assert.Equal(t, int64(1), rows)

	// result is permanent once set
	rows, err = db.SetJobResultIfNone(j.ID, structs.PASSED)
	assert.Nil(t, err)
	assert.Equal(t, int64(0), rows)

	fresh, _ := db.Job(j.ID)
	assert.Equal(t, structs.PARALLEL_FAILED, fresh.Result)
}

func TestCancelJobIfNoResult(t *testing.T) {
	db := NewMem()
	j := testJob("install")
	assert.Nil(t, db.InsertJob(j))

	rows, err := db.CancelJobIfNoResult(j.ID, structs.USER_CANCELLED)
	assert.Nil(t, err)
	assert.Equal(t, int64(1), rows)

	rows, err = db.CancelJobIfNoResult(j.ID, structs.OBSOLETED)
	assert.Nil(t, err)
	assert.Equal(t, int64(0), rows)

	fresh, _ := db.Job(j.ID)
	assert.Equal(t, structs.CANCELLED, fresh.State)
	assert.Equal(t, structs.USER_CANCELLED, fresh.Result)
}

func TestSkipJobIfScheduled(t *testing.T) {
	db := NewMem()

	scheduled := testJob("a")
	running := testJob("b")
	assert.Nil(t, db.InsertJob(scheduled))
	assert.Nil(t, db.InsertJob(running))
	assert.Nil(t, db.SetJobState(running.ID, structs.RUNNING))

	rows, err := db.SkipJobIfScheduled(scheduled.ID, structs.SKIPPED)
	assert.Nil(t, err)
	assert.Equal(t, int64(1), rows)

	// a job that already started is left alone
	rows, err = db.SkipJobIfScheduled(running.ID, structs.SKIPPED)
	assert.Nil(t, err)
	assert.Equal(t, int64(0), rows)
}

func TestInsertDependencyIdempotent(t *testing.T) {
	db := NewMem()
	edge := &structs.JobDependency{ParentID: 1, ChildID: 2, Kind: structs.PARALLEL}

	assert.Nil(t, db.InsertDependency(edge))
	assert.Nil(t, db.InsertDependency(edge))

	children, err := db.ChildrenOf(1)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(children))

	// same pair, different kind, is a distinct edge
	assert.Nil(t, db.InsertDependency(&structs.JobDependency{ParentID: 1, ChildID: 2, Kind: structs.CHAINED}))
	children, _ = db.ChildrenOf(1)
	assert.Equal(t, 2, len(children))
}

func TestInsertNetworkVlanConflict(t *testing.T) {
	db := NewMem()

	err := db.InsertNetwork(&structs.NetworkAllocation{JobID: 1, Name: "fixed", Vlan: 1})
	assert.Nil(t, err)

	err = db.InsertNetwork(&structs.NetworkAllocation{JobID: 2, Name: "other", Vlan: 1})
	assert.ErrorIs(t, err, errors.ErrVlanTaken)

	used, err := db.UsedVlans()
	assert.Nil(t, err)
	assert.Equal(t, []int64{1}, used)
}

func TestJobsQueryFilters(t *testing.T) {
	db := NewMem()

	a := testJob("install")
	b := testJob("install")
	c := testJob("other")
	for _, j := range []*structs.Job{a, b, c} {
		assert.Nil(t, db.InsertJob(j))
	}
	assert.Nil(t, db.FinishJob(b.ID, structs.DONE))
	_, err := db.SetJobResultIfNone(b.ID, structs.FAILED)
	assert.Nil(t, err)

	scenario := a.Scenario
	found, err := db.Jobs(&structs.Query{Scenario: &scenario, States: []structs.State{structs.DONE}, Limit: 10})
	assert.Nil(t, err)
	assert.Equal(t, 1, len(found))
	assert.Equal(t, b.ID, found[0].ID)

	// newest first with BeforeID excluding the newest
	found, err = db.Jobs(&structs.Query{BeforeID: c.ID, Limit: 10})
	assert.Nil(t, err)
	assert.Equal(t, 2, len(found))
	assert.Equal(t, b.ID, found[0].ID)
	assert.Equal(t, a.ID, found[1].ID)
}

func TestModuleUpsertAndReset(t *testing.T) {
	db := NewMem()

	mod := &structs.JobModule{
		ModuleDef: structs.ModuleDef{Name: "boot", Category: "installation", Important: true},
		JobID:     1, Ordinal: 0, Result: structs.NONE,
	}
	assert.Nil(t, db.UpsertModule(mod))

	// re-declaring keeps identity, updates mutable fields
	mod2 := &structs.JobModule{
		ModuleDef: structs.ModuleDef{Name: "boot", Category: "boot", Important: false},
		JobID:     1, Ordinal: 5, Result: structs.NONE,
	}
	assert.Nil(t, db.UpsertModule(mod2))

	mods, err := db.Modules(1)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(mods))
	assert.Equal(t, "boot", mods[0].Category)
	assert.Equal(t, int64(0), mods[0].Ordinal)

	_, err = db.SetModuleResult(1, "boot", structs.RUNNING_RESULT)
	assert.Nil(t, err)

	count, err := db.ResetRunningModules(1)
	assert.Nil(t, err)
	assert.Equal(t, int64(1), count)

	mods, _ = db.Modules(1)
	assert.Equal(t, structs.NONE, mods[0].Result)
}

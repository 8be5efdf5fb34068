package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/B-Rich/openQA/pkg/command"
	"github.com/B-Rich/openQA/pkg/errors"
	"github.com/B-Rich/openQA/pkg/structs"
)

func TestDonePassedReleasesEverything(t *testing.T) {
	svc, db, _ := newTestService(t)
	j := schedule(t, db, "install")
	startJob(t, db, j, structs.UPLOADING)

	j.Settings = map[string]string{structs.KeyJobToken: "secret", "ISO": "sle-15.iso"}
	assert.Nil(t, db.UpdateJob(j))
	assert.Nil(t, db.UpsertModule(&structs.JobModule{
		ModuleDef: structs.ModuleDef{Name: "boot", Important: true}, JobID: j.ID, Result: structs.PASSED,
	}))
	assert.Nil(t, db.InsertNetwork(&structs.NetworkAllocation{JobID: j.ID, Name: "fixed", Vlan: 1}))
	assert.Nil(t, db.InsertLock(&structs.Lock{Name: "mutex", OwnerID: j.ID, LockedBy: 0}))

	result, err := svc.Done(j.ID, nil)

	assert.Nil(t, err)
	assert.Equal(t, structs.PASSED, result)

	fresh, _ := db.Job(j.ID)
	assert.Equal(t, structs.DONE, fresh.State)
	assert.Equal(t, structs.PASSED, fresh.Result)
	assert.NotEqual(t, int64(0), fresh.FinishedAt)

	// transient token gone, other settings kept
	_, ok := fresh.Settings[structs.KeyJobToken]
	assert.False(t, ok)
	assert.Equal(t, "sle-15.iso", fresh.Settings["ISO"])

	used, _ := db.UsedVlans()
	assert.Equal(t, []int64{}, used)

	locks, _ := db.Locks()
	assert.Equal(t, 0, len(locks))

	w, _ := db.Worker(fresh.WorkerID)
	assert.Equal(t, int64(0), w.JobID)
}

func TestDoneForceNewBuild(t *testing.T) {
	svc, db, _ := newTestService(t)
	j := schedule(t, db, "install")
	startJob(t, db, j, structs.RUNNING)
	assert.Nil(t, db.UpsertModule(&structs.JobModule{
		ModuleDef: structs.ModuleDef{Name: "boot", Important: true}, JobID: j.ID, Result: structs.PASSED,
	}))

	result, err := svc.Done(j.ID, &structs.DoneRequest{ForceNewBuild: true})

	assert.Nil(t, err)
	assert.Equal(t, structs.OBSOLETED, result)
}

func TestDoneFinalStateRejected(t *testing.T) {
	svc, db, _ := newTestService(t)
	j := schedule(t, db, "install")
	assert.Nil(t, db.FinishJob(j.ID, structs.DONE))

	_, err := svc.Done(j.ID, nil)

	assert.ErrorIs(t, err, errors.ErrInvalidState)
}

func TestDoneKeepsResultSetByCancel(t *testing.T) {
	svc, db, _ := newTestService(t)
	j := schedule(t, db, "install")
	startJob(t, db, j, structs.RUNNING)

	// a concurrent cancel recorded a result first
	_, err := db.SetJobResultIfNone(j.ID, structs.USER_CANCELLED)
	assert.Nil(t, err)

	result, err := svc.Done(j.ID, &structs.DoneRequest{Result: structs.PASSED})

	assert.Nil(t, err)
	assert.Equal(t, structs.USER_CANCELLED, result)
}

func TestDoneFailedCascades(t *testing.T) {
	// a failing job skips its not-yet-started children and stops running
	// parallel children; a running chained child is left alone
	svc, db, cmd := newTestService(t)

	j := schedule(t, db, "install")
	startJob(t, db, j, structs.UPLOADING)

	chainedChild := schedule(t, db, "followup")
	link(t, db, j, chainedChild, structs.CHAINED)

	parallelChild := schedule(t, db, "client")
	startJob(t, db, parallelChild, structs.RUNNING)
	link(t, db, j, parallelChild, structs.PARALLEL)

	chainedRunning := schedule(t, db, "independent")
	startJob(t, db, chainedRunning, structs.RUNNING)
	link(t, db, j, chainedRunning, structs.CHAINED)

	cmd.EXPECT().Send(parallelChild.WorkerID, command.CANCEL, parallelChild.ID).Return(nil)

	result, err := svc.Done(j.ID, nil) // zero modules, fails

	assert.Nil(t, err)
	assert.Equal(t, structs.FAILED, result)

	fresh, _ := db.Job(chainedChild.ID)
	assert.Equal(t, structs.CANCELLED, fresh.State)
	assert.Equal(t, structs.SKIPPED, fresh.Result)

	fresh, _ = db.Job(parallelChild.ID)
	assert.Equal(t, structs.PARALLEL_FAILED, fresh.Result)

	// stop never follows chained edges
	fresh, _ = db.Job(chainedRunning.ID)
	assert.Equal(t, structs.RUNNING, fresh.State)
	assert.Equal(t, structs.NONE, fresh.Result)
}

func TestDoneSkipIsTransitive(t *testing.T) {
	// chain A -> B -> C of scheduled children: failing A's owner skips both
	svc, db, cmd := newTestService(t)

	j := schedule(t, db, "install")
	startJob(t, db, j, structs.RUNNING)

	b := schedule(t, db, "b")
	c := schedule(t, db, "c")
	link(t, db, j, b, structs.CHAINED)
	link(t, db, b, c, structs.PARALLEL)

	cmd.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	_, err := svc.Done(j.ID, &structs.DoneRequest{Result: structs.INCOMPLETE})
	assert.Nil(t, err)

	for _, id := range []int64{b.ID, c.ID} {
		fresh, _ := db.Job(id)
		assert.Equal(t, structs.CANCELLED, fresh.State)
		assert.Equal(t, structs.SKIPPED, fresh.Result)
	}
}

func TestDoneOKResultNoCascade(t *testing.T) {
	svc, db, _ := newTestService(t)

	j := schedule(t, db, "install")
	startJob(t, db, j, structs.RUNNING)
	child := schedule(t, db, "child")
	link(t, db, j, child, structs.CHAINED)

	_, err := svc.Done(j.ID, &structs.DoneRequest{Result: structs.SOFTFAILED})
	assert.Nil(t, err)

	fresh, _ := db.Job(child.ID)
	assert.Equal(t, structs.SCHEDULED, fresh.State)
	assert.Equal(t, structs.NONE, fresh.Result)
}

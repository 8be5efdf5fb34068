package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/B-Rich/openQA/pkg/database"
	"github.com/B-Rich/openQA/pkg/structs"
)

// finishedRun records a completed failed run of the given scenario with the
// named modules failed.
func finishedRun(t *testing.T, db *database.Mem, test string, failed ...string) *structs.Job {
	j := schedule(t, db, test)
	for _, name := range failed {
		assert.Nil(t, db.UpsertModule(&structs.JobModule{
			ModuleDef: structs.ModuleDef{Name: name}, JobID: j.ID, Result: structs.FAILED,
		}))
	}
	assert.Nil(t, db.FinishJob(j.ID, structs.DONE))
	_, err := db.SetJobResultIfNone(j.ID, structs.FAILED)
	assert.Nil(t, err)
	return j
}

func failedModules(names ...string) []*structs.JobModule {
	out := []*structs.JobModule{}
	for _, n := range names {
		out = append(out, &structs.JobModule{ModuleDef: structs.ModuleDef{Name: n}, Result: structs.FAILED})
	}
	return out
}

func TestFailureSignature(t *testing.T) {
	assert.Equal(t, "GOOD", failureSignature(nil))
	assert.Equal(t, "GOOD", failureSignature([]*structs.JobModule{
		{ModuleDef: structs.ModuleDef{Name: "boot"}, Result: structs.PASSED},
	}))
	assert.Equal(t, "boot:failed,x11:softfailed", failureSignature([]*structs.JobModule{
		{ModuleDef: structs.ModuleDef{Name: "boot"}, Result: structs.FAILED},
		{ModuleDef: structs.ModuleDef{Name: "setup"}, Result: structs.PASSED},
		{ModuleDef: structs.ModuleDef{Name: "x11"}, Result: structs.SOFTFAILED},
	}))
}

func TestCarryOverCopiesNewestBugref(t *testing.T) {
	svc, db, _ := newTestService(t)

	prior := finishedRun(t, db, "install", "boot")
	assert.Nil(t, db.InsertComment(&structs.Comment{JobID: prior.ID, User: "geekotest", Text: "tracked in poo#111"}))
	assert.Nil(t, db.InsertComment(&structs.Comment{JobID: prior.ID, User: "reviewer", Text: "actually bsc#222"}))
	assert.Nil(t, db.InsertComment(&structs.Comment{JobID: prior.ID, User: "reviewer", Text: "no reference here"}))

	j := schedule(t, db, "install")
	svc.carryOverBugrefs(j, failedModules("boot"))

	comments, err := db.JobComments(j.ID)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(comments))
	assert.Equal(t, "reviewer", comments[0].User)
	assert.True(t, strings.Contains(comments[0].Text, "bsc#222"))
	assert.True(t, strings.Contains(comments[0].Text, takeoverNote))
}

func TestCarryOverNoteNotDuplicated(t *testing.T) {
	svc, db, _ := newTestService(t)

	prior := finishedRun(t, db, "install", "boot")
	text := "poo#111\n" + takeoverNote
	assert.Nil(t, db.InsertComment(&structs.Comment{JobID: prior.ID, User: "geekotest", Text: text}))

	j := schedule(t, db, "install")
	svc.carryOverBugrefs(j, failedModules("boot"))

	comments, _ := db.JobComments(j.ID)
	assert.Equal(t, 1, len(comments))
	assert.Equal(t, 1, strings.Count(comments[0].Text, takeoverNote))
}

func TestCarryOverRequiresMatchingSignature(t *testing.T) {
	svc, db, _ := newTestService(t)

	prior := finishedRun(t, db, "install", "x11")
	assert.Nil(t, db.InsertComment(&structs.Comment{JobID: prior.ID, User: "geekotest", Text: "poo#111"}))

	j := schedule(t, db, "install")
	svc.carryOverBugrefs(j, failedModules("boot"))

	comments, _ := db.JobComments(j.ID)
	assert.Equal(t, 0, len(comments))
}

func TestCarryOverNothingWhenGood(t *testing.T) {
	svc, db, _ := newTestService(t)

	prior := finishedRun(t, db, "install", "boot")
	assert.Nil(t, db.InsertComment(&structs.Comment{JobID: prior.ID, User: "geekotest", Text: "poo#111"}))

	j := schedule(t, db, "install")
	svc.carryOverBugrefs(j, nil)

	comments, _ := db.JobComments(j.ID)
	assert.Equal(t, 0, len(comments))
}

func TestCarryOverGivesUpOnFlakyScenario(t *testing.T) {
	// more distinct failure modes than the cutoff in the recent history
	// means old bug references are probably unrelated
	svc, db, _ := newTestService(t)

	match := finishedRun(t, db, "install", "boot")
	assert.Nil(t, db.InsertComment(&structs.Comment{JobID: match.ID, User: "geekotest", Text: "poo#111"}))
	for _, name := range []string{"a", "b", "c", "d"} {
		finishedRun(t, db, "install", name)
	}

	j := schedule(t, db, "install")
	svc.carryOverBugrefs(j, failedModules("boot"))

	comments, _ := db.JobComments(j.ID)
	assert.Equal(t, 0, len(comments))
}

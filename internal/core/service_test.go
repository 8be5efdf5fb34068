package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/B-Rich/openQA/internal/mocks/pkg/command_mock"
	"github.com/B-Rich/openQA/pkg/database"
	"github.com/B-Rich/openQA/pkg/errors"
	"github.com/B-Rich/openQA/pkg/structs"
)

func newTestService(t *testing.T) (*Service, *database.Mem, *command_mock.MockCommander) {
	db := database.NewMem()
	cmd := command_mock.NewMockCommander(gomock.NewController(t))
	svc, err := NewService(db, cmd, nil)
	assert.Nil(t, err)
	return svc, db, cmd
}

func testScenario(test string) structs.Scenario {
	return structs.Scenario{Distri: "sle", Version: "15", Flavor: "dvd", Arch: "x86_64", Test: test}
}

// schedule creates a scheduled job directly in storage.
func schedule(t *testing.T, db *database.Mem, test string) *structs.Job {
	j := &structs.Job{
		JobSpec: structs.JobSpec{Scenario: testScenario(test), Priority: structs.DefaultPriority},
		State:   structs.SCHEDULED,
		Result:  structs.NONE,
	}
	assert.Nil(t, db.InsertJob(j))
	return j
}

// startJob hands a job to a fresh worker and moves it to the given state.
func startJob(t *testing.T, db *database.Mem, j *structs.Job, state structs.State) {
	w := &structs.Worker{Host: "test"}
	assert.Nil(t, db.UpsertWorker(w))
	assert.Nil(t, db.AssignWorker(w.ID, j.ID))
	assert.Nil(t, db.SetJobState(j.ID, state))
	j.WorkerID = w.ID
	j.State = state
}

func link(t *testing.T, db *database.Mem, parent, child *structs.Job, kind structs.DepKind) {
	assert.Nil(t, db.InsertDependency(&structs.JobDependency{ParentID: parent.ID, ChildID: child.ID, Kind: kind}))
}

func TestCreateJob(t *testing.T) {
	svc, db, _ := newTestService(t)

	parent := schedule(t, db, "support_server")

	job, err := svc.CreateJob(&structs.CreateJobRequest{
		JobSpec: structs.JobSpec{
			Scenario: testScenario("client"),
			Settings: map[string]string{"ISO": "sle-15.iso"},
		},
		Parents: []*structs.DependencyRef{{ParentID: parent.ID, Kind: structs.PARALLEL}},
	})

	assert.Nil(t, err)
	assert.Equal(t, structs.SCHEDULED, job.State)
	assert.Equal(t, structs.NONE, job.Result)
	assert.Equal(t, structs.DefaultPriority, job.Priority)

	parents, err := db.ParentsOf(job.ID)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(parents))
	assert.Equal(t, parent.ID, parents[0].ParentID)
	assert.Equal(t, structs.PARALLEL, parents[0].Kind)

	// the ISO was registered & linked
	assets, err := db.JobAssets(job.ID)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(assets))
	assert.Equal(t, "sle-15.iso", assets[0].Name)
	assert.Equal(t, structs.ISO, assets[0].Type)
}

func TestCreateJobCopiesSettings(t *testing.T) {
	svc, db, _ := newTestService(t)

	given := map[string]string{"WORKER_CLASS": "qemu_x86_64", "DESKTOP": "gnome"}
	job, err := svc.CreateJob(&structs.CreateJobRequest{
		JobSpec: structs.JobSpec{Scenario: testScenario("install"), Settings: given},
	})
	assert.Nil(t, err)
	assert.Equal(t, "qemu_x86_64", job.Settings[structs.KeyWorkerClass])

	// mutating the request map afterwards must not reach the job
	given["DESKTOP"] = "kde"
	assert.Equal(t, "gnome", job.Settings["DESKTOP"])
	fresh, err := db.Job(job.ID)
	assert.Nil(t, err)
	assert.Equal(t, "gnome", fresh.Settings["DESKTOP"])
}

func TestCreateJobValidation(t *testing.T) {
	svc, db, _ := newTestService(t)
	parent := schedule(t, db, "a")

	cases := []struct {
		Name  string
		Given *structs.CreateJobRequest
	}{
		{"Nil", nil},
		{"MissingScenarioField", &structs.CreateJobRequest{
			JobSpec: structs.JobSpec{Scenario: structs.Scenario{Distri: "sle"}},
		}},
		{"BadDependencyKind", &structs.CreateJobRequest{
			JobSpec: structs.JobSpec{Scenario: testScenario("b")},
			Parents: []*structs.DependencyRef{{ParentID: parent.ID, Kind: "sideways"}},
		}},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			_, err := svc.CreateJob(c.Given)

			assert.ErrorIs(t, err, errors.ErrInvalidArg)
		})
	}
}

func TestCreateJobMissingParent(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateJob(&structs.CreateJobRequest{
		JobSpec: structs.JobSpec{Scenario: testScenario("b")},
		Parents: []*structs.DependencyRef{{ParentID: 999, Kind: structs.CHAINED}},
	})

	assert.ErrorIs(t, err, errors.ErrNotFound)
}

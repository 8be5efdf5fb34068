package main

import (
	"fmt"

	"github.com/B-Rich/openQA/internal/utils"
	"github.com/B-Rich/openQA/pkg/api"
	"github.com/B-Rich/openQA/pkg/command"
	"github.com/B-Rich/openQA/pkg/database"
	"github.com/B-Rich/openQA/pkg/structs"
)

const (
	docDemo = `Walk a job cluster through its lifecycle in memory (no external services)`
)

type optsDemo struct {
	optsGeneral
}

func (c *optsDemo) Execute(args []string) error {
	db := database.NewMem()
	svc, err := api.NewAPI(db, command.NewLogger(), nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	scenario := structs.Scenario{
		Distri: "sle", Version: "15", Flavor: "dvd", Arch: "x86_64", Machine: "64bit",
	}

	server, err := svc.CreateJob(&structs.CreateJobRequest{
		JobSpec: structs.JobSpec{
			Scenario: scenarioWithTest(scenario, "support_server"),
			Settings: map[string]string{"ISO": "sle-15-dvd.iso", "WORKER_CLASS": "qemu_x86_64"},
		},
	})
	if err != nil {
		return err
	}

	client, err := svc.CreateJob(&structs.CreateJobRequest{
		JobSpec: structs.JobSpec{
			Scenario: scenarioWithTest(scenario, "client"),
			Settings: map[string]string{"ISO": "sle-15-dvd.iso"},
			Retries:  1,
		},
		Parents: []*structs.DependencyRef{{ParentID: server.ID, Kind: structs.PARALLEL}},
	})
	if err != nil {
		return err
	}

	followup, err := svc.CreateJob(&structs.CreateJobRequest{
		JobSpec: structs.JobSpec{
			Scenario: scenarioWithTest(scenario, "upgrade"),
		},
		Parents: []*structs.DependencyRef{{ParentID: client.ID, Kind: structs.CHAINED}},
	})
	if err != nil {
		return err
	}

	// pretend two workers picked the parallel pair up
	for i, job := range []*structs.Job{server, client} {
		workerID := int64(i + 1)
		err = db.UpsertWorker(&structs.Worker{ID: workerID, Host: "demo", Instance: workerID})
		if err != nil {
			return err
		}
		err = db.AssignWorker(workerID, job.ID)
		if err != nil {
			return err
		}
		err = db.SetJobState(job.ID, structs.RUNNING)
		if err != nil {
			return err
		}

		// each execution gets a fresh token, removed again when it finishes
		running, err := db.Job(job.ID)
		if err != nil {
			return err
		}
		running.Settings = structs.MergeSettings(running.Settings, map[string]string{
			structs.KeyJobToken: utils.NewRandomID(),
		})
		err = db.UpdateJob(running)
		if err != nil {
			return err
		}
	}

	// both sides of the cluster get the same tag
	vlanA, err := svc.AllocateNetwork(server.ID, "fixed")
	if err != nil {
		return err
	}
	vlanB, err := svc.AllocateNetwork(client.ID, "fixed")
	if err != nil {
		return err
	}
	fmt.Printf("network 'fixed': server vlan %d, client vlan %d\n", vlanA, vlanB)

	result, err := svc.UpdateStatus(client.ID, &structs.StatusReport{
		NewModules: []*structs.ModuleDef{
			{Name: "boot", Category: "installation", Important: true},
			{Name: "connect", Category: "network", Important: true},
		},
		Modules: []*structs.ModuleStatus{
			{Name: "boot", Result: structs.PASSED},
			{Name: "connect", Result: structs.FAILED},
		},
	})
	if err != nil {
		return err
	}
	fmt.Println("client module results so far:", result)

	// finishing failed cascades forward: the chained child never started
	// and gets skipped
	final, err := svc.Done(client.ID, nil)
	if err != nil {
		return err
	}
	fmt.Println("client finished:", final)

	for _, id := range []int64{server.ID, followup.ID} {
		s, err := svc.Summary(id, &structs.SummaryOpts{IncludeDeps: true})
		if err != nil {
			return err
		}
		fmt.Printf("job %d %q: state=%s result=%s\n", s.ID, s.Name, s.State, s.Result)
	}

	// automatic retry, consumes the retry counter & rebuilds the cluster
	clone, err := svc.AutoDuplicate(client.ID, true)
	if err != nil {
		return err
	}
	fmt.Printf("client restarted as job %d (retries left %d)\n", clone.ID, clone.Retries)

	return nil
}

func scenarioWithTest(s structs.Scenario, test string) structs.Scenario {
	s.Test = test
	return s
}

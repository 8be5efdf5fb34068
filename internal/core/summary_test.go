package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/B-Rich/openQA/pkg/structs"
)

func TestSummary(t *testing.T) {
	svc, db, _ := newTestService(t)

	parent := schedule(t, db, "support_server")

	scenario := testScenario("client")
	scenario.Machine = "64bit"
	j := &structs.Job{
		JobSpec: structs.JobSpec{
			Scenario: scenario,
			Priority: structs.DefaultPriority,
			Settings: map[string]string{"ISO": "sle-15.iso"},
		},
		State:  structs.SCHEDULED,
		Result: structs.NONE,
	}
	assert.Nil(t, db.InsertJob(j))

	child := schedule(t, db, "followup")
	link(t, db, parent, j, structs.PARALLEL)
	link(t, db, j, child, structs.CHAINED)
	assert.Nil(t, svc.registerAssets(j))

	s, err := svc.Summary(j.ID, &structs.SummaryOpts{IncludeAssets: true, IncludeDeps: true})

	assert.Nil(t, err)
	assert.Equal(t, j.ID, s.ID)
	assert.Equal(t, structs.SCHEDULED, s.State)
	assert.Equal(t, "sle-15-dvd-x86_64-client@64bit", s.Name)
	assert.Equal(t, fmt.Sprintf("%08d-sle-15-dvd-x86_64-client@64bit", j.ID), s.Settings[structs.KeyName])

	assert.Equal(t, []string{"sle-15.iso"}, s.Assets[string(structs.ISO)])
	assert.Equal(t, []int64{parent.ID}, s.Parents[string(structs.PARALLEL)])
	assert.Equal(t, []int64{child.ID}, s.Children[string(structs.CHAINED)])
}

func TestSummaryBareByDefault(t *testing.T) {
	svc, db, _ := newTestService(t)
	j := schedule(t, db, "install")

	s, err := svc.Summary(j.ID, nil)

	assert.Nil(t, err)
	assert.Nil(t, s.Assets)
	assert.Nil(t, s.Parents)
	assert.Nil(t, s.Children)
}

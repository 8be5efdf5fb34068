package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/B-Rich/openQA/pkg/errors"
	"github.com/B-Rich/openQA/pkg/structs"
)

func TestAllocateNetworkClusterShares(t *testing.T) {
	svc, db, _ := newTestService(t)

	server := schedule(t, db, "server")
	client := schedule(t, db, "client")
	link(t, db, server, client, structs.PARALLEL)

	vlan, err := svc.AllocateNetwork(server.ID, "fixed")
	assert.Nil(t, err)
	assert.Equal(t, int64(1), vlan)

	// the parallel partner gets the same tag, without a second allocation
	again, err := svc.AllocateNetwork(client.ID, "fixed")
	assert.Nil(t, err)
	assert.Equal(t, vlan, again)

	used, _ := db.UsedVlans()
	assert.Equal(t, []int64{1}, used)
}

func TestAllocateNetworkUnrelatedJobsDiffer(t *testing.T) {
	svc, db, _ := newTestService(t)

	a := schedule(t, db, "a")
	b := schedule(t, db, "b")

	va, err := svc.AllocateNetwork(a.ID, "fixed")
	assert.Nil(t, err)
	vb, err := svc.AllocateNetwork(b.ID, "fixed")
	assert.Nil(t, err)

	assert.NotEqual(t, va, vb)
}

func TestAllocateNetworkDistinctNames(t *testing.T) {
	svc, db, _ := newTestService(t)
	j := schedule(t, db, "install")

	fixed, err := svc.AllocateNetwork(j.ID, "fixed")
	assert.Nil(t, err)
	dhcp, err := svc.AllocateNetwork(j.ID, "dhcp")
	assert.Nil(t, err)

	assert.NotEqual(t, fixed, dhcp)
}

func TestAllocateNetworkLowestFree(t *testing.T) {
	svc, db, _ := newTestService(t)

	other := schedule(t, db, "other")
	assert.Nil(t, db.InsertNetwork(&structs.NetworkAllocation{JobID: other.ID, Name: "fixed", Vlan: 1}))
	assert.Nil(t, db.InsertNetwork(&structs.NetworkAllocation{JobID: other.ID, Name: "dhcp", Vlan: 3}))

	j := schedule(t, db, "install")
	vlan, err := svc.AllocateNetwork(j.ID, "fixed")

	assert.Nil(t, err)
	assert.Equal(t, int64(2), vlan)
}

func TestAllocateNetworkValidation(t *testing.T) {
	svc, db, _ := newTestService(t)
	j := schedule(t, db, "install")

	_, err := svc.AllocateNetwork(j.ID, "")
	assert.ErrorIs(t, err, errors.ErrInvalidArg)

	_, err = svc.AllocateNetwork(j.ID+100, "fixed")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

package common

import (
	"github.com/B-Rich/openQA/pkg/structs"
)

// UpdateResponse is the response from an update operation, specific to HTTP.
type UpdateResponse struct {
	// Updated is the number of jobs updated, including cascades.
	Updated int64 `json:"updated"`
}

// ResultResponse carries a computed or finalized result back to the caller.
type ResultResponse struct {
	Result structs.Result `json:"result"`
}

// VlanResponse carries an allocated VLAN tag.
type VlanResponse struct {
	Vlan int64 `json:"vlan"`
}

// NetworkRequest asks for a VLAN under a logical network name.
type NetworkRequest struct {
	Name string `json:"name"`
}

// CancelRequest marks a cancellation as an obsoletion (a newer build
// replaced the job) rather than a user action.
type CancelRequest struct {
	Obsoleted bool `json:"obsoleted"`
}

// RestartRequest distinguishes automatic retries (which consume the retry
// counter) from manual restarts.
type RestartRequest struct {
	Automatic bool `json:"automatic"`
}

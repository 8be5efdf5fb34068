package errors

import (
	"fmt"
)

var (
	// ErrNotFound: the referenced job / asset / worker doesn't exist.
	ErrNotFound = fmt.Errorf("not found")

	// ErrNoWorkerAssigned: a status report arrived for a job no worker owns;
	// the caller should treat the job as orphaned.
	ErrNoWorkerAssigned = fmt.Errorf("no worker assigned")

	// ErrRetriesExhausted: automatic duplication refused, retries used up.
	ErrRetriesExhausted = fmt.Errorf("retries exhausted")

	// ErrAlreadyCloned: the job has a clone reference already; someone else
	// duplicated it first.
	ErrAlreadyCloned = fmt.Errorf("already cloned")

	// ErrCloneChain: a clone chain walk exceeded its iteration bound,
	// the chain is presumed corrupted.
	ErrCloneChain = fmt.Errorf("clone chain too long")

	// ErrVlanTaken: a network allocation raced for a tag and lost.
	ErrVlanTaken = fmt.Errorf("vlan taken")

	ErrInvalidState = fmt.Errorf("invalid state")
	ErrInvalidArg   = fmt.Errorf("invalid arg")
)

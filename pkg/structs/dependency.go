package structs

import (
	"strings"
)

// DepKind is the type of a dependency edge between two jobs.
//
// Parallel edges require co-execution: a failure or restart on one side
// propagates to the other. Chained edges only impose ordering and asset
// handoff; they never co-restart.
type DepKind string

const (
	PARALLEL DepKind = "parallel"
	CHAINED  DepKind = "chained"
)

func ToDepKind(s string) DepKind {
	switch strings.ToLower(s) {
	case "parallel":
		return PARALLEL
	case "chained":
		return CHAINED
	default:
		return ""
	}
}

// JobDependency is a directed edge parent -> child. Edges are unique per
// (parent, child, kind); creation is idempotent.
type JobDependency struct {
	ParentID int64   `json:"parent_id"`
	ChildID  int64   `json:"child_id"`
	Kind     DepKind `json:"kind"`
}

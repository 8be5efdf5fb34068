package structs

// Lock is a named mutex jobs use to coordinate with each other.
// OwnerID is the job that created the lock; LockedBy is the job currently
// holding it (0 if free). Both sides are detached when a job finalizes.
type Lock struct {
	Name     string `json:"name"`
	OwnerID  int64  `json:"owner_id"`
	LockedBy int64  `json:"locked_by,omitempty"`
}

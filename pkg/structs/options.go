package structs

// Options passed to the scheduler core on creation.
type Options struct {
	// ResultsDir is where logs, screenshots and module details are written.
	// Empty disables result persistence (updates still apply).
	ResultsDir string

	// CarryoverLookback is how many prior finished jobs of the same scenario
	// are searched for a matching failure signature.
	CarryoverLookback int

	// CarryoverSignatures is the number of distinct failure signatures we'll
	// scan past before giving up on carry-over.
	CarryoverSignatures int
}

package device

import "context"

// Controller is the surface the simulator's HTTP handlers drive.
type Controller interface {
	// State returns a snapshot of the current state
	State() State

	// Apply runs a named transition. Guarded transitions whose
	// precondition does not hold leave the state unchanged.
	Apply(ctx context.Context, name string) (State, error)

	// Override merges the fields present in p, bypassing every guard
	Override(ctx context.Context, p Patch) State
}

// Reporter publishes the full state after a mutation.
type Reporter interface {
	Report(ctx context.Context, s State) error
}

package formsg

// State represents the resolution state of a Resolver.
type State int32

const (
	// StateLoading indicates no snapshot has been processed yet. The
	// defaults are in effect.
	StateLoading State = iota

	// StateResolved indicates the latest snapshot was applied.
	StateResolved

	// StateFallback indicates the latest snapshot failed and the defaults
	// replaced it. The Resolver keeps listening for further snapshots.
	StateFallback

	// StateClosed indicates the Resolver's context ended and it no longer
	// applies snapshots. The last effective configuration stays readable.
	StateClosed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateResolved:
		return "resolved"
	case StateFallback:
		return "fallback"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

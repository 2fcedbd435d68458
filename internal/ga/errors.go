package ga

// InvariantError reports a broken algorithmic invariant that must never
// occur given well-formed input — a bug, not a data problem. Callers above
// internal/ga wrap it with pkg/errors.ErrInvariant before it reaches a client.
type InvariantError struct {
	Detail string
}

func (e *InvariantError) Error() string { return "ga: invariant violated: " + e.Detail }

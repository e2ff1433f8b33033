package flowcache

// TerminationReason enumerates why a flow left the cache (spec.md §6).
type TerminationReason uint8

const (
	// ReasonEndOfFlow: TCP FIN/RST observed on the flow (spec.md §4.5(5)).
	ReasonEndOfFlow TerminationReason = iota + 1
	// ReasonActiveTimeout: flow duration exceeded Options.Active.
	ReasonActiveTimeout
	// ReasonInactiveTimeout: flow idled longer than Options.Inactive.
	ReasonInactiveTimeout
	// ReasonEvicted: flow was the LRU victim of a full line.
	ReasonEvicted
	// ReasonForcedEnd: a parser hook returned EXPORT or FLUSH(_WITH_REINSERT).
	ReasonForcedEnd
	// ReasonShutdown: the cache is being torn down.
	ReasonShutdown
	// ReasonNoResource: a new record could not be allocated.
	ReasonNoResource
)

// String implements fmt.Stringer.
func (r TerminationReason) String() string {
	switch r {
	case ReasonEndOfFlow:
		return "end_of_flow"
	case ReasonActiveTimeout:
		return "active_timeout"
	case ReasonInactiveTimeout:
		return "inactive_timeout"
	case ReasonEvicted:
		return "evicted"
	case ReasonForcedEnd:
		return "forced_end"
	case ReasonShutdown:
		return "shutdown"
	case ReasonNoResource:
		return "no_resource"
	default:
		return "unknown"
	}
}

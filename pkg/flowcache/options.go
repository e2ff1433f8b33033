package flowcache

// Default cache dimensions, mirrored from the original ipfixprobe
// NHTFlowCache defaults (storage/basic/flowcache.hpp's
// DEFAULT_FLOW_CACHE_SIZE / DEFAULT_FLOW_LINE_SIZE / DEFAULT_*_TIMEOUT):
// a size exponent of 17 (131072 slots total) and a line exponent of 4
// (16 slots per line).
const (
	DefaultSizeExponent    = 17
	DefaultLineExponent    = 4
	DefaultActiveTimeout   = 300 // seconds
	DefaultInactiveTimeout = 30  // seconds
	DefaultQueueCapacity   = 1024
	DefaultSweepStep       = 64
)

// Options configures a FlowCache, matching the option table of
// spec.md §6.
type Options struct {
	// SizeExponent sets total capacity N = 2^SizeExponent slots. Must be
	// between 4 and 30.
	SizeExponent uint8
	// LineExponent sets line size L = 2^LineExponent. Must not exceed
	// SizeExponent.
	LineExponent uint8
	// Active is the active timeout in seconds (>= 1).
	Active uint32
	// Inactive is the inactive timeout in seconds (>= 1).
	Inactive uint32
	// Split, if set, disables direction merging: each direction is its
	// own flow with its own key (spec.md §6).
	Split bool
	// QueueCapacity bounds the export queue (Q of spec.md §4.7).
	QueueCapacity int
	// SweepStep is the number of slots the sweep cursor advances per
	// packet/tick (S of spec.md §4.6). If zero, the cache derives it from
	// NumSlots and Inactive on every sweep: see effectiveSweepStep.
	SweepStep int
}

// DefaultOptions returns the option set mirrored from the upstream
// NHTFlowCache defaults.
func DefaultOptions() Options {
	return Options{
		SizeExponent:  DefaultSizeExponent,
		LineExponent:  DefaultLineExponent,
		Active:        DefaultActiveTimeout,
		Inactive:      DefaultInactiveTimeout,
		Split:         false,
		QueueCapacity: DefaultQueueCapacity,
		SweepStep:     DefaultSweepStep,
	}
}

// Validate checks the option set against spec.md §6's constraints.
// Validation failures are fatal at startup (spec.md §7) and must never
// occur once the cache is constructed.
func (o Options) Validate() error {
	if o.SizeExponent < 4 || o.SizeExponent > 30 {
		return ErrInvalidSizeExponent
	}
	if o.LineExponent > o.SizeExponent {
		return ErrInvalidLineExponent
	}
	if o.Active < 1 {
		return ErrInvalidActiveTimeout
	}
	if o.Inactive < 1 {
		return ErrInvalidInactiveTmout
	}
	if o.QueueCapacity < 1 {
		return ErrInvalidQueueCapacity
	}
	return nil
}

// NumSlots returns N, the total slot capacity.
func (o Options) NumSlots() uint32 {
	return 1 << o.SizeExponent
}

// LineSize returns L, the slots per line.
func (o Options) LineSize() uint32 {
	return 1 << o.LineExponent
}

// NumLines returns N/L, the number of cache lines.
func (o Options) NumLines() uint32 {
	return o.NumSlots() / o.LineSize()
}

// effectiveSweepStep resolves SweepStep, applying the default sizing
// rule documented in spec.md §9's open question on sweep step: pick S
// such that S is large enough to sweep the whole cache within Inactive
// seconds even at one packet per second (S * Inactive >= NumSlots), so
// every idle flow is found within one inactive-timeout period of its
// last packet regardless of how sparse traffic gets. At higher packet
// rates the cursor naturally completes a full sweep sooner.
func (o Options) effectiveSweepStep() int {
	if o.SweepStep > 0 {
		return o.SweepStep
	}
	n := int(o.NumSlots())
	inactive := int(o.Inactive)
	if inactive <= 0 {
		inactive = 1
	}
	step := (n + inactive - 1) / inactive
	if step < 1 {
		step = 1
	}
	return step
}

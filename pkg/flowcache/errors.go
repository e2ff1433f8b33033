package flowcache

import "errors"

// Validation errors: returned by Options.Validate / New. These are fatal
// at startup per spec.md §7 and must never be produced once the cache is
// running.
var (
	ErrInvalidSizeExponent  = errors.New("flowcache: size exponent must be between 4 and 30")
	ErrInvalidLineExponent  = errors.New("flowcache: line exponent must be between 0 and the size exponent")
	ErrInvalidActiveTimeout = errors.New("flowcache: active timeout must be at least 1 second")
	ErrInvalidInactiveTmout = errors.New("flowcache: inactive timeout must be at least 1 second")
	ErrInvalidQueueCapacity = errors.New("flowcache: export queue capacity must be at least 1")
)

// Operational / assertion errors. ErrDuplicateExtension is a parser-local
// error (spec.md §7, "Parser errors"): it never unwinds across the
// pipeline. ErrReinsertBudgetSpent and ErrClosed are declared as named
// errors for callers to match against; no code path in this package
// returns either of them.
var (
	ErrDuplicateExtension = errors.New("flowcache: duplicate extension id")
	ErrReinsertBudgetSpent = errors.New("flowcache: reinsertion budget already spent for this packet")
	ErrClosed              = errors.New("flowcache: cache is closed")
)

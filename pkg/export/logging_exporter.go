package export

import (
	"context"
	"encoding/json"

	"github.com/flowdeck/fccache/pkg/flowcache"
	"github.com/flowdeck/fccache/pkg/logging"
)

// LoggingExporter is a trivial Exporter that logs every terminated flow
// and releases it, standing in for a real IPFIX encoder/transport
// (spec.md §1). It gives cmd/fccached something real to run end to end
// without claiming to implement export.
type LoggingExporter struct {
	ctx context.Context
}

// NewLoggingExporter returns an Exporter whose log lines carry whatever
// fields are attached to ctx via logging.WithFields.
func NewLoggingExporter(ctx context.Context) *LoggingExporter {
	return &LoggingExporter{ctx: ctx}
}

// Export implements Exporter. The flow is rendered through
// FlowRecord.MarshalJSON rather than listed out field by field, so the
// log line and any future real exporter agree on one representation of
// a terminated flow.
func (e *LoggingExporter) Export(rec *flowcache.FlowRecord) {
	logger := logging.FromContext(e.ctx)
	data, err := rec.MarshalJSON()
	if err != nil {
		logger.Warnf("marshaling terminated flow: %v", err)
	} else {
		logger.With("flow", json.RawMessage(data)).Info("flow terminated")
	}

	flowcache.Release(rec)
}

// Close implements Exporter. A LoggingExporter has nothing to flush.
func (e *LoggingExporter) Close() error { return nil }

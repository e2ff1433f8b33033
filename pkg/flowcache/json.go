package flowcache

import (
	jsoniter "github.com/json-iterator/go"
)

// MarshalJSON renders a terminated FlowRecord's externally meaningful
// fields, grounded on the teacher's own GPFlow.MarshalJSON: an anonymous
// struct marshaled with jsoniter rather than FlowRecord's actual field
// layout, so the pool-reuse internals (ext, arena) never leak into the
// wire form. Exporters that want a JSON rendering of a terminated flow
// (the logging exporter's debug line, a future real exporter) call this
// instead of hand-rolling a field list.
func (r *FlowRecord) MarshalJSON() ([]byte, error) {
	return jsoniter.Marshal(struct {
		SrcAddr    string `json:"srcAddr"`
		DstAddr    string `json:"dstAddr"`
		SrcPort    uint16 `json:"srcPort"`
		DstPort    uint16 `json:"dstPort"`
		Protocol   uint8  `json:"protocol"`
		FirstSeen  int64  `json:"firstSeen"`
		LastSeen   int64  `json:"lastSeen"`
		PacketsFwd uint64 `json:"packetsFwd"`
		PacketsRev uint64 `json:"packetsRev"`
		BytesFwd   uint64 `json:"bytesFwd"`
		BytesRev   uint64 `json:"bytesRev"`
		Reason     string `json:"reason"`
	}{
		SrcAddr:    r.Key.SrcAddr.String(),
		DstAddr:    r.Key.DstAddr.String(),
		SrcPort:    r.Key.SrcPort,
		DstPort:    r.Key.DstPort,
		Protocol:   r.Key.Protocol,
		FirstSeen:  r.FirstSeen,
		LastSeen:   r.LastSeen,
		PacketsFwd: r.PacketsFwd,
		PacketsRev: r.PacketsRev,
		BytesFwd:   r.BytesFwd,
		BytesRev:   r.BytesRev,
		Reason:     r.Reason.String(),
	})
}

package flowcache

import "net/netip"

// TCP flag bits, as observed on the wire (spec.md §6).
const (
	TCPFlagFIN uint8 = 1 << iota
	TCPFlagSYN
	TCPFlagRST
	TCPFlagPSH
	TCPFlagACK
	TCPFlagURG
)

// Enumeration of the IP protocols the cache treats specially. Anything
// else is accepted and cached, just without TCP-flag-aware termination.
const (
	ProtoICMP   uint8 = 0x01
	ProtoTCP    uint8 = 0x06
	ProtoUDP    uint8 = 0x11
	ProtoICMPv6 uint8 = 0x3A
)

// Packet is the input the cache consumes from an (out-of-scope) capture
// source. It carries exactly the fields spec.md §6 requires: an opaque
// payload, L3/L4 addressing, VLAN, TCP flags and an arrival timestamp.
//
// Packet is produced by the capture/decode layer, which is specified only
// as an interface — this type is that interface's concrete shape.
type Packet struct {
	Payload    []byte
	PayloadLen int

	SrcAddr    netip.Addr
	DstAddr    netip.Addr
	AddrFamily uint8 // 4 or 6

	SrcPort  uint16
	DstPort  uint16
	Protocol uint8
	VLAN     uint16

	TCPFlags    uint8
	HasTCPFlags bool

	// TimestampMicros is the arrival time in microseconds since the Unix
	// epoch, matching the microsecond resolution of spec.md §3.
	TimestampMicros int64
}

// IsTCPFinOrRst reports whether the packet carries a TCP FIN or RST flag,
// the signal spec.md §4.5(5) uses to terminate a flow with END_OF_FLOW.
func (p *Packet) IsTCPFinOrRst() bool {
	return p.Protocol == ProtoTCP && p.HasTCPFlags &&
		p.TCPFlags&(TCPFlagFIN|TCPFlagRST) != 0
}

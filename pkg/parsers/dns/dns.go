// Package dns implements a passive DNS observer parser, grounded on
// original_source/process/passivedns.cpp's PassiveDNSPlugin but
// re-expressed as a flowcache.Parser. Message parsing itself is
// delegated to github.com/miekg/dns rather than hand-rolled wire
// decoding, since that library is the pack's established way of
// handling DNS wire format.
package dns

import (
	"net/netip"
	"strconv"
	"strings"

	"github.com/miekg/dns"

	"github.com/flowdeck/fccache/pkg/flowcache"
)

// ExtensionID is this parser's flowcache.ExtensionID.
const ExtensionID flowcache.ExtensionID = 2

// Extension is the per-flow state the DNS parser attaches.
type Extension struct {
	QueryName  string
	QueryType  uint16
	ResponseIP netip.Addr
	PTRTarget  netip.Addr // resolved from a PTR query name, if any
	RCode      int
}

// ExtensionID implements flowcache.Extension.
func (e *Extension) ExtensionID() flowcache.ExtensionID { return ExtensionID }

// Parser classifies DNS queries and responses carried in a flow's
// packets, including reconstructing the address a reverse (PTR) lookup
// names.
type Parser struct {
	flowcache.BaseParser
}

// New returns a fresh Parser, for registration with parsers.Register.
func New() *Parser { return &Parser{} }

func (p *Parser) Name() string                       { return "dns" }
func (p *Parser) ExtensionID() flowcache.ExtensionID { return ExtensionID }
func (p *Parser) NewExtension() flowcache.Extension  { return &Extension{} }

func (p *Parser) PostCreate(flow *flowcache.FlowRecord, pkt *flowcache.Packet) flowcache.HookResult {
	p.inspect(flow, pkt)
	return flowcache.HookOK
}

func (p *Parser) PostUpdate(flow *flowcache.FlowRecord, pkt *flowcache.Packet) flowcache.HookResult {
	p.inspect(flow, pkt)
	return flowcache.HookOK
}

func (p *Parser) inspect(flow *flowcache.FlowRecord, pkt *flowcache.Packet) {
	var msg dns.Msg
	if err := msg.Unpack(pkt.Payload[:pkt.PayloadLen]); err != nil {
		return
	}

	ext, ok := flow.GetExtension(ExtensionID)
	if !ok {
		e := &Extension{}
		if flow.AddExtension(e) != nil {
			return
		}
		ext = e
	}
	d := ext.(*Extension)
	d.RCode = msg.Rcode

	for _, q := range msg.Question {
		d.QueryName = q.Name
		d.QueryType = q.Qtype
		if q.Qtype == dns.TypePTR {
			if addr, ok := ptrNameToAddr(q.Name); ok {
				d.PTRTarget = addr
			}
		}
	}

	for _, rr := range msg.Answer {
		switch a := rr.(type) {
		case *dns.A:
			d.ResponseIP = addrFromNetIP(a.A.String())
		case *dns.AAAA:
			d.ResponseIP = addrFromNetIP(a.AAAA.String())
		}
	}
}

func addrFromNetIP(s string) netip.Addr {
	a, _ := netip.ParseAddr(s)
	return a
}

// ptrNameToAddr reconstructs the address a reverse-DNS query name
// encodes. IPv4 names look like "1.2.3.4.in-addr.arpa." (octets in
// reverse order); IPv6 names look like
// "<32 reversed nibble hex digits>.ip6.arpa.".
//
// Reassembling the IPv6 case requires pairing adjacent nibbles back
// into bytes: the name holds one hex digit per label, most-significant
// nibble last. The plugin this is grounded on combined each nibble with
// itself instead of with its partner ((nums[i]<<4)|nums[i]), which
// silently produces the wrong address for every PTR lookup it touched.
func ptrNameToAddr(name string) (netip.Addr, bool) {
	name = strings.ToLower(strings.TrimSuffix(name, "."))

	if rest, ok := strings.CutSuffix(name, ".in-addr.arpa"); ok {
		labels := strings.Split(rest, ".")
		if len(labels) != 4 {
			return netip.Addr{}, false
		}
		var b [4]byte
		for i, label := range labels {
			n, err := strconv.Atoi(label)
			if err != nil || n < 0 || n > 255 {
				return netip.Addr{}, false
			}
			// labels are in reverse order: the last label is the first octet.
			b[3-i] = byte(n)
		}
		return netip.AddrFrom4(b), true
	}

	if rest, ok := strings.CutSuffix(name, ".ip6.arpa"); ok {
		labels := strings.Split(rest, ".")
		if len(labels) != 32 {
			return netip.Addr{}, false
		}
		var nibbles [32]uint8
		for i, label := range labels {
			n, err := strconv.ParseUint(label, 16, 8)
			if err != nil || n > 15 {
				return netip.Addr{}, false
			}
			// labels are in reverse order: the last label is the most
			// significant nibble of the first byte.
			nibbles[31-i] = uint8(n)
		}
		var b [16]byte
		for i := 0; i < 16; i++ {
			b[i] = nibbles[2*i]<<4 | nibbles[2*i+1]
		}
		return netip.AddrFrom16(b), true
	}

	return netip.Addr{}, false
}

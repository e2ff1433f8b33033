// Package flowcache implements the bounded, line-associative flow cache
// that sits between packet capture and flow export: it indexes
// in-progress biflows by a canonical 5-tuple, enforces active/inactive
// timeouts, performs line-local LRU eviction, drives a pluggable parser
// pipeline at well-defined lifecycle points, and hands terminated flows
// to a bounded export queue.
package flowcache

import (
	"crypto/rand"
	"encoding/binary"
	"net/netip"

	"github.com/zeebo/xxh3"
)

// newProcessSeed draws a fresh, unpredictable seed for the lifetime of
// the process. It is only ever called to initialise hasherSeed.
func newProcessSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing is a protocol-fatal condition (spec.md §7):
		// the seed exists specifically to harden against adversarial
		// collisions, and a predictable fallback would silently defeat it.
		panic("flowcache: failed to seed hasher: " + err.Error())
	}
	return binary.BigEndian.Uint64(b[:])
}

// FlowKey is the canonicalised directional 5-tuple identifying a biflow.
// Two FlowKeys compare equal with == iff they address the same biflow;
// CacheLine relies on this for its duplicate-key invariant.
type FlowKey struct {
	SrcAddr    netip.Addr
	DstAddr    netip.Addr
	SrcPort    uint16
	DstPort    uint16
	Protocol   uint8
	VLAN       uint16
	AddrFamily uint8 // 4 or 6, mirrors Packet.AddrFamily
}

// isForward reports whether (SrcAddr, SrcPort) sorts before (DstAddr,
// DstPort), the forward-direction test of spec.md §3.
func (k FlowKey) isForward() bool {
	if c := k.SrcAddr.Compare(k.DstAddr); c != 0 {
		return c < 0
	}
	return k.SrcPort < k.DstPort
}

// reversed returns the key with source and destination swapped.
func (k FlowKey) reversed() FlowKey {
	k.SrcAddr, k.DstAddr = k.DstAddr, k.SrcAddr
	k.SrcPort, k.DstPort = k.DstPort, k.SrcPort
	return k
}

// canonical returns the forward-ordered key for k plus whether the
// packet that produced k was itself already in forward order (the
// "direction bit" of spec.md §4.1). canonical is idempotent: calling it
// again on its own output returns the same key with dir=true.
func (k FlowKey) canonical() (ck FlowKey, dir bool) {
	if k.isForward() {
		return k, true
	}
	return k.reversed(), false
}

// KeyOf canonicalises a packet's directional 5-tuple into a FlowKey plus
// the direction bit recording whether the packet arrived in the forward
// direction of that key. When split is true (Options.Split), direction is
// never merged: the packet's own tuple is the key and dir is always true.
func KeyOf(pkt *Packet, split bool) (key FlowKey, dir bool) {
	raw := FlowKey{
		SrcAddr:    pkt.SrcAddr,
		DstAddr:    pkt.DstAddr,
		SrcPort:    pkt.SrcPort,
		DstPort:    pkt.DstPort,
		Protocol:   pkt.Protocol,
		VLAN:       pkt.VLAN,
		AddrFamily: pkt.AddrFamily,
	}
	if split {
		return raw, true
	}
	return raw.canonical()
}

// hasherSeed is randomised once at process start (spec.md §4.1: "the seed
// is randomised at process start to harden against adversarial
// collisions") and never mutated after capture begins (spec.md §9,
// "Global state").
var hasherSeed = newProcessSeed()

// Hasher turns a canonical FlowKey into the 64-bit hash used to select a
// cache line. It is a thin, allocation-free wrapper around xxh3's keyed
// hash of the key's byte representation.
type Hasher struct{}

// Hash returns the keyed 64-bit hash of the canonical key.
func (Hasher) Hash(k FlowKey) uint64 {
	var buf [40]byte
	n := putKeyBytes(buf[:], k)
	return xxh3.HashSeed(buf[:n], hasherSeed)
}

// putKeyBytes serialises k into buf for hashing and returns the number of
// bytes written. The layout need not be stable across versions; it only
// has to be a faithful, collision-resistant encoding of the key's fields.
func putKeyBytes(buf []byte, k FlowKey) int {
	n := 0
	if src16 := k.SrcAddr.As16(); true {
		n += copy(buf[n:], src16[:])
	}
	if dst16 := k.DstAddr.As16(); true {
		n += copy(buf[n:], dst16[:])
	}
	buf[n] = byte(k.SrcPort >> 8)
	buf[n+1] = byte(k.SrcPort)
	buf[n+2] = byte(k.DstPort >> 8)
	buf[n+3] = byte(k.DstPort)
	n += 4
	buf[n] = k.Protocol
	n++
	buf[n] = byte(k.VLAN >> 8)
	buf[n+1] = byte(k.VLAN)
	n += 2
	buf[n] = k.AddrFamily
	n++
	return n
}

// lineIndex selects the cache line for a hash given a cache sized to
// numLines (a power of two). k is chosen so that keys colliding on a line
// are uncorrelated with their slot neighbours (spec.md §4.1): the shift
// drops the low bits, so the line is picked from the log2(numLines) bits
// just below the hash's top byte.
func lineIndex(h uint64, numLines uint32) uint32 {
	shift := 64 - bitLen(numLines) - 8
	if shift < 0 {
		shift = 0
	}
	return uint32(h>>uint(shift)) & (numLines - 1)
}

func bitLen(n uint32) int {
	b := 0
	for n > 1 {
		n >>= 1
		b++
	}
	return b
}

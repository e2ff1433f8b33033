// Package statsock implements the UNIX-domain live-stats protocol of
// spec.md §6: a length-prefixed binary framing carrying input/output
// counters from a running cache process to an interactive client,
// grounded on original_source/ipfixprobe_stats.cpp (the reference
// client this package's Client reproduces the wire interaction of) and
// the teacher's own socket-handling idiom in pkg/api (HTTP rather than a
// raw socket, but the same request/response-over-a-listener shape).
package statsock

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Magic is the fixed 4-byte request/response tag of spec.md §6.
// ipfixprobe_stats.cpp's MSG_MAGIC plays the same role on the wire this
// protocol was distilled from.
const Magic uint32 = 0x49465058 // "IFPX"

// Header is the fixed response header spec.md §6 specifies:
// {magic, size, inputs, outputs}, all little-endian. Size is the byte
// length of the InputStats/OutputStats payload that follows, so a
// client can read it into one buffer before decoding.
type Header struct {
	Magic   uint32
	Size    uint32
	Inputs  uint16
	Outputs uint16
}

const headerSize = 4 + 4 + 2 + 2

// InputStats is one capture input's counters (spec.md §6).
type InputStats struct {
	Packets uint64 `json:"packets"`
	Parsed  uint64 `json:"parsed"`
	Bytes   uint64 `json:"bytes"`
	Dropped uint64 `json:"dropped"`
	QTime   uint64 `json:"qtime"` // queue-time counter of the wire layout; fccached always reports 0
}

const inputStatsSize = 8 * 5

// OutputStats is one export output's counters (spec.md §6).
type OutputStats struct {
	Biflows uint64 `json:"biflows"`
	Packets uint64 `json:"packets"`
	Bytes   uint64 `json:"bytes"`
	Dropped uint64 `json:"dropped"`
}

const outputStatsSize = 8 * 4

// Snapshot bundles the counters a single stats-socket response carries.
// It implements jsoniter's default field-tag-based marshaling used by
// fccachectl's dump command, the JSON sibling of its tablewriter-based
// stats command.
type Snapshot struct {
	Inputs  []InputStats  `json:"inputs"`
	Outputs []OutputStats `json:"outputs"`
}

// encode serialises a Snapshot into the wire format of spec.md §6:
// Header followed by Inputs then Outputs, every integer little-endian.
func (s Snapshot) encode() []byte {
	size := len(s.Inputs)*inputStatsSize + len(s.Outputs)*outputStatsSize
	buf := make([]byte, headerSize+size)

	binary.LittleEndian.PutUint32(buf[0:4], Magic)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(size))
	binary.LittleEndian.PutUint16(buf[8:10], uint16(len(s.Inputs)))
	binary.LittleEndian.PutUint16(buf[10:12], uint16(len(s.Outputs)))

	off := headerSize
	for _, in := range s.Inputs {
		binary.LittleEndian.PutUint64(buf[off:], in.Packets)
		binary.LittleEndian.PutUint64(buf[off+8:], in.Parsed)
		binary.LittleEndian.PutUint64(buf[off+16:], in.Bytes)
		binary.LittleEndian.PutUint64(buf[off+24:], in.Dropped)
		binary.LittleEndian.PutUint64(buf[off+32:], in.QTime)
		off += inputStatsSize
	}
	for _, out := range s.Outputs {
		binary.LittleEndian.PutUint64(buf[off:], out.Biflows)
		binary.LittleEndian.PutUint64(buf[off+8:], out.Packets)
		binary.LittleEndian.PutUint64(buf[off+16:], out.Bytes)
		binary.LittleEndian.PutUint64(buf[off+24:], out.Dropped)
		off += outputStatsSize
	}
	return buf
}

// decodeHeader parses the fixed header spec.md §6 specifies.
func decodeHeader(b []byte) (Header, error) {
	if len(b) < headerSize {
		return Header{}, fmt.Errorf("statsock: short header (%d bytes)", len(b))
	}
	h := Header{
		Magic:   binary.LittleEndian.Uint32(b[0:4]),
		Size:    binary.LittleEndian.Uint32(b[4:8]),
		Inputs:  binary.LittleEndian.Uint16(b[8:10]),
		Outputs: binary.LittleEndian.Uint16(b[10:12]),
	}
	if h.Magic != Magic {
		return h, fmt.Errorf("statsock: bad magic %#x", h.Magic)
	}
	return h, nil
}

// decodeBody parses the Inputs/Outputs payload following a Header.
func decodeBody(hdr Header, b []byte) (Snapshot, error) {
	want := int(hdr.Inputs)*inputStatsSize + int(hdr.Outputs)*outputStatsSize
	if len(b) < want {
		return Snapshot{}, fmt.Errorf("statsock: short body: want %d, got %d", want, len(b))
	}
	snap := Snapshot{
		Inputs:  make([]InputStats, hdr.Inputs),
		Outputs: make([]OutputStats, hdr.Outputs),
	}
	off := 0
	for i := range snap.Inputs {
		snap.Inputs[i] = InputStats{
			Packets: binary.LittleEndian.Uint64(b[off:]),
			Parsed:  binary.LittleEndian.Uint64(b[off+8:]),
			Bytes:   binary.LittleEndian.Uint64(b[off+16:]),
			Dropped: binary.LittleEndian.Uint64(b[off+24:]),
			QTime:   binary.LittleEndian.Uint64(b[off+32:]),
		}
		off += inputStatsSize
	}
	for i := range snap.Outputs {
		snap.Outputs[i] = OutputStats{
			Biflows: binary.LittleEndian.Uint64(b[off:]),
			Packets: binary.LittleEndian.Uint64(b[off+8:]),
			Bytes:   binary.LittleEndian.Uint64(b[off+16:]),
			Dropped: binary.LittleEndian.Uint64(b[off+24:]),
		}
		off += outputStatsSize
	}
	return snap, nil
}

// readRequest reads the fixed 4-byte magic request a client sends
// before each snapshot (spec.md §6: "client writes a 4-byte magic
// request").
func readRequest(r io.Reader) error {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	if binary.LittleEndian.Uint32(buf[:]) != Magic {
		return fmt.Errorf("statsock: bad request magic")
	}
	return nil
}

func writeRequest(w io.Writer) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], Magic)
	_, err := w.Write(buf[:])
	return err
}

// readResponse reads one full Header+body response from r.
func readResponse(r io.Reader) (Snapshot, error) {
	var hb [headerSize]byte
	if _, err := io.ReadFull(r, hb[:]); err != nil {
		return Snapshot{}, err
	}
	hdr, err := decodeHeader(hb[:])
	if err != nil {
		return Snapshot{}, err
	}
	body := make([]byte, hdr.Size)
	if _, err := io.ReadFull(r, body); err != nil {
		return Snapshot{}, err
	}
	return decodeBody(hdr, body)
}

// writeResponse writes snap's full wire encoding to w in one call,
// matching the original protocol's single recvData(hdr)+recvData(body)
// pair by keeping both halves in one buffer on this side too.
func writeResponse(w io.Writer, snap Snapshot) error {
	_, err := w.Write(snap.encode())
	return err
}

// Package http implements a minimal HTTP/1.x and HTTP/2 classifier
// parser, grounded on original_source/process/http.cpp's HTTPPlugin but
// re-expressed as a flowcache.Parser rather than a pluginmgr.hpp plugin.
package http

import (
	"bufio"
	"bytes"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/flowdeck/fccache/pkg/flowcache"
)

// ExtensionID is this parser's flowcache.ExtensionID.
const ExtensionID flowcache.ExtensionID = 1

// http2Preface is the fixed 24-byte connection preface every HTTP/2
// connection opens with (RFC 7540 §3.5).
const http2Preface = "PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n"

// frameTypeSettings is the HTTP/2 SETTINGS frame type. RFC 7540 §3.5
// requires the client's SETTINGS frame to immediately follow the
// preface, which is what makes checking for it a reliable confirmation
// instead of a guess.
const frameTypeSettings = 0x04

// Extension is the per-flow state the HTTP parser attaches.
type Extension struct {
	Method      string
	Host        string
	URL         string
	UserAgent   string
	ContentType string
	StatusCode  int
	IsResponse  bool
	IsHTTP2     bool
}

// ExtensionID implements flowcache.Extension.
func (e *Extension) ExtensionID() flowcache.ExtensionID { return ExtensionID }

// Parser classifies HTTP/1.x request/response lines and HTTP/2
// connection prefaces on the packets of a flow.
type Parser struct {
	flowcache.BaseParser
}

// New returns a fresh Parser, for registration with parsers.Register.
func New() *Parser { return &Parser{} }

func (p *Parser) Name() string                        { return "http" }
func (p *Parser) ExtensionID() flowcache.ExtensionID  { return ExtensionID }
func (p *Parser) NewExtension() flowcache.Extension   { return &Extension{} }

// PostCreate and PostUpdate both run the same payload inspection: HTTP
// is a request/response protocol with no per-flow setup distinct from
// the first and subsequent packets, so a flow is just as likely to
// reveal its protocol on packet two as on packet one.
func (p *Parser) PostCreate(flow *flowcache.FlowRecord, pkt *flowcache.Packet) flowcache.HookResult {
	p.inspect(flow, pkt)
	return flowcache.HookOK
}

func (p *Parser) PostUpdate(flow *flowcache.FlowRecord, pkt *flowcache.Packet) flowcache.HookResult {
	p.inspect(flow, pkt)
	return flowcache.HookOK
}

func (p *Parser) inspect(flow *flowcache.FlowRecord, pkt *flowcache.Packet) {
	ext, ok := flow.GetExtension(ExtensionID)
	if !ok {
		e := &Extension{}
		if flow.AddExtension(e) != nil {
			return
		}
		ext = e
	}
	h := ext.(*Extension)
	if h.IsHTTP2 {
		return
	}

	payload := pkt.Payload[:min(pkt.PayloadLen, len(pkt.Payload))] //nolint:gocritic // builtin min, Go 1.21+
	if looksLikeHTTP2(payload) {
		h.IsHTTP2 = true
		return
	}
	parseHTTP1(payload, h)
}

// looksLikeHTTP2 confirms an HTTP/2 connection by requiring the fixed
// 24-byte preface AND a syntactically valid SETTINGS frame header
// immediately after it (RFC 7540 §3.5). The original parser this is
// grounded on treated the preface bytes alone as sufficient proof,
// which a crafted or truncated capture can satisfy without there being
// any real HTTP/2 traffic behind it.
func looksLikeHTTP2(payload []byte) bool {
	if len(payload) < len(http2Preface)+9 {
		return false
	}
	if !bytes.Equal(payload[:len(http2Preface)], []byte(http2Preface)) {
		return false
	}
	return validSettingsFrameHeader(payload[len(http2Preface):])
}

// validSettingsFrameHeader checks the 9-byte HTTP/2 frame header
// layout (24-bit length, 8-bit type, 8-bit flags, 31-bit stream id with
// a reserved high bit) for a SETTINGS frame whose declared length both
// fits a whole number of 6-byte parameters and fits within what's left
// of the payload.
func validSettingsFrameHeader(b []byte) bool {
	if len(b) < 9 {
		return false
	}
	length := uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
	frameType := b[3]
	streamID := uint32(b[5])<<24 | uint32(b[6])<<16 | uint32(b[7])<<8 | uint32(b[8])
	streamID &^= 1 << 31 // clear the reserved bit

	if frameType != frameTypeSettings {
		return false
	}
	if streamID != 0 {
		return false // SETTINGS frames always apply to the whole connection
	}
	if length%6 != 0 {
		return false
	}
	return int(length) <= len(b)-9
}

// parseHTTP1 extracts the fields the teacher's plugin cared about
// (method, host, content-type, status code) from a single packet's
// worth of HTTP/1.x header text. Headers split across multiple packets
// are simply not recognised here, matching the scope of the parser this
// replaces: reassembly is a capture-layer concern, not this parser's.
func parseHTTP1(payload []byte, h *Extension) {
	reader := textproto.NewReader(bufio.NewReader(bytes.NewReader(payload)))
	line, err := reader.ReadLine()
	if err != nil || line == "" {
		return
	}

	if method, rest, ok := splitRequestLine(line); ok {
		h.Method = method
		h.URL = rest
	} else if status, ok := splitStatusLine(line); ok {
		h.IsResponse = true
		h.StatusCode = status
	} else {
		return
	}

	header, err := reader.ReadMIMEHeader()
	if err != nil && len(header) == 0 {
		return
	}
	h.Host = header.Get("Host")
	h.UserAgent = header.Get("User-Agent")
	h.ContentType = header.Get("Content-Type")
}

func splitRequestLine(line string) (method, rest string, ok bool) {
	for _, m := range []string{"GET", "POST", "PUT", "HEAD", "DELETE", "TRACE", "OPTIONS", "CONNECT", "PATCH"} {
		if strings.HasPrefix(line, m+" ") {
			return m, strings.TrimPrefix(line, m+" "), true
		}
	}
	return "", "", false
}

func splitStatusLine(line string) (status int, ok bool) {
	if !strings.HasPrefix(line, "HTTP/") {
		return 0, false
	}
	fields := strings.SplitN(line, " ", 3)
	if len(fields) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, false
	}
	return n, true
}


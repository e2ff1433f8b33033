package flowcache

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFlowRecordMarshalJSON(t *testing.T) {
	a := mustAddr(t, "10.0.0.1")
	b := mustAddr(t, "10.0.0.2")

	c, err := New(testOpts(), NewParserPipeline())
	require.NoError(t, err)

	now := time.Unix(1000, 0)
	fwd := &Packet{SrcAddr: a, DstAddr: b, SrcPort: 1111, DstPort: 80, Protocol: ProtoUDP, AddrFamily: 4, PayloadLen: 100}
	c.Process(fwd, now)
	c.Shutdown()

	rec, ok := c.Queue().TryPop()
	require.True(t, ok)
	defer Release(rec)

	data, err := rec.MarshalJSON()
	require.NoError(t, err)

	var decoded struct {
		SrcAddr    string `json:"srcAddr"`
		DstAddr    string `json:"dstAddr"`
		SrcPort    uint16 `json:"srcPort"`
		PacketsFwd uint64 `json:"packetsFwd"`
		BytesFwd   uint64 `json:"bytesFwd"`
		Reason     string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	require.Equal(t, "10.0.0.1", decoded.SrcAddr)
	require.Equal(t, "10.0.0.2", decoded.DstAddr)
	require.Equal(t, uint16(1111), decoded.SrcPort)
	require.Equal(t, uint64(1), decoded.PacketsFwd)
	require.Equal(t, uint64(100), decoded.BytesFwd)
	require.Equal(t, ReasonShutdown.String(), decoded.Reason)
}

package dns

import (
	"fmt"
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPTRNameToAddrIPv4(t *testing.T) {
	addr, ok := ptrNameToAddr("4.3.2.1.in-addr.arpa.")
	require.True(t, ok)
	assert.Equal(t, netip.MustParseAddr("1.2.3.4"), addr)
}

func TestPTRNameToAddrIPv4Invalid(t *testing.T) {
	_, ok := ptrNameToAddr("4.3.2.in-addr.arpa.") // only 3 labels
	assert.False(t, ok)
}

// ip6PTRName builds the reverse-DNS query name for addr the way a real
// resolver would: one label per nibble, most-significant nibble last.
func ip6PTRName(addr netip.Addr) string {
	b := addr.As16()
	labels := make([]string, 0, 32)
	for i := len(b) - 1; i >= 0; i-- {
		labels = append(labels, fmt.Sprintf("%x", b[i]&0xf), fmt.Sprintf("%x", b[i]>>4))
	}
	return strings.Join(labels, ".") + ".ip6.arpa."
}

func TestPTRNameToAddrIPv6PairsAdjacentNibbles(t *testing.T) {
	want := netip.MustParseAddr("2001:db8::1")
	name := ip6PTRName(want)

	addr, ok := ptrNameToAddr(name)
	require.True(t, ok)
	assert.Equal(t, want, addr)
}

func TestPTRNameToAddrIPv6RejectsWrongLabelCount(t *testing.T) {
	_, ok := ptrNameToAddr("1.0.0.0.ip6.arpa.")
	assert.False(t, ok)
}

func TestPTRNameToAddrRejectsUnrelatedSuffix(t *testing.T) {
	_, ok := ptrNameToAddr("www.example.com.")
	assert.False(t, ok)
}

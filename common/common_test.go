package common

import (
	"encoding/binary"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByteOrderRoundTrip(t *testing.T) {
	for i := 0; i <= 0xffff; i++ {
		v := uint16(i)
		require.Equal(t, v, WireToHost(HostToWire(v)))
		require.Equal(t, v, HostToWire(WireToHost(v)))
	}
}

func TestByteOrderLayout(t *testing.T) {
	field := make([]byte, 2)
	PutWire(field, 8080)
	require.Equal(t, []byte{0x1f, 0x90}, field)
	require.Equal(t, uint16(8080), Wire(field))
	require.Equal(t, binary.NativeEndian.Uint16(field), RawWire(field))
	require.Equal(t, HostToWire(8080), RawWire(field))

	// A swap happens exactly when the host is little endian.
	native := make([]byte, 2)
	binary.NativeEndian.PutUint16(native, 0x0102)
	if native[0] == 0x02 {
		require.Equal(t, uint16(0x0201), HostToWire(0x0102))
	} else {
		require.Equal(t, uint16(0x0102), HostToWire(0x0102))
	}
}

func TestAddr16(t *testing.T) {
	v4 := netip.MustParseAddr("127.0.0.1")
	b := AddrTo16(v4)
	require.Equal(t, [16]byte{127, 0, 0, 1}, b)
	require.Equal(t, v4, AddrFrom16(b[:], true))

	v6 := netip.MustParseAddr("fd00::1")
	b = AddrTo16(v6)
	require.Equal(t, v6.As16(), b)
	require.Equal(t, v6, AddrFrom16(b[:], false))
}

func TestMask(t *testing.T) {
	mask := PrefixMask(netip.MustParsePrefix("10.0.0.0/12"))
	require.Equal(t, [16]byte{0xff, 0xf0}, mask)
	bits, ok := MaskBits(mask[:4])
	require.True(t, ok)
	require.Equal(t, 12, bits)

	mask = PrefixMask(netip.MustParsePrefix("2001:db8::/33"))
	require.Equal(t, [16]byte{0xff, 0xff, 0xff, 0xff, 0x80}, mask)
	bits, ok = MaskBits(mask[:])
	require.True(t, ok)
	require.Equal(t, 33, bits)

	_, ok = MaskBits([]byte{0xff, 0x0f})
	require.False(t, ok)
}

const testProtocols = `
# comment
ip	0	IP		# internet protocol
tcp	6	TCP
udp	17	UDP
`

const testServices = `
http		80/tcp		www www-http	# WorldWideWeb HTTP
http		80/udp		www www-http
domain		53/udp
domain		53/tcp
`

func TestNetdb(t *testing.T) {
	db, err := ParseNetdb(testProtocols, testServices)
	require.Nil(t, err)
	require.Len(t, db.Protocols, 3)
	require.Len(t, db.Services, 4)

	port, err := db.LookupPort("www", "tcp")
	require.Nil(t, err)
	require.Equal(t, uint16(80), port)

	port, err = db.LookupPort("domain", "")
	require.Nil(t, err)
	require.Equal(t, uint16(53), port)

	port, err = db.LookupPort("8080", "tcp")
	require.Nil(t, err)
	require.Equal(t, uint16(8080), port)

	_, err = db.LookupPort("70000", "tcp")
	require.ErrorIs(t, err, ErrPortRange)

	_, err = db.LookupPort("gopher", "tcp")
	require.ErrorIs(t, err, ErrUnknownService)

	_, err = db.LookupPort("http", "sctp")
	require.ErrorIs(t, err, ErrUnknownProtocol)

	proto, err := db.LookupProto("UDP")
	require.Nil(t, err)
	require.Equal(t, uint8(17), proto)

	_, err = ParseNetdb("tcp six\n", "")
	require.NotNil(t, err)
}

package pf

import (
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddrTextBound(t *testing.T) {
	// longest inet_ntop output for AF_INET6
	longest := "ffff:ffff:ffff:ffff:ffff:ffff:255.255.255.255"
	require.Len(t, longest, AddrTextMax)

	text, err := NewAddrText(longest)
	require.Nil(t, err)
	buf := text.Array()
	require.Len(t, buf, AddrTextCap)
	require.Equal(t, byte(0), buf[AddrTextCap-1])
	require.Equal(t, longest, string(buf[:AddrTextMax]))

	_, err = NewAddrText(longest + "0")
	require.ErrorIs(t, err, ErrAddrTextTooLong)
	_, err = NewAddrText("10.0.0.1\x00")
	require.ErrorIs(t, err, ErrAddrTextNUL)
}

func TestAddrTextRoundTrip(t *testing.T) {
	for _, s := range []string{"127.0.0.1", "255.255.255.255", "::1", "fd00::1", "2001:db8:1:2:3:4:5:6"} {
		addr := netip.MustParseAddr(s)
		text := FormatAddr(addr)
		require.Equal(t, s, text.String())
		require.LessOrEqual(t, text.Len(), AddrTextMax)

		buf := text.Array()
		back, err := AddrTextFromBytes(buf[:])
		require.Nil(t, err)
		require.Equal(t, text, back)
		parsed, err := back.Addr()
		require.Nil(t, err)
		require.Equal(t, addr, parsed)
	}

	require.Equal(t, "fe80::1", FormatAddr(netip.MustParseAddr("fe80::1%en0")).String())

	_, err := AddrTextFromBytes([]byte(strings.Repeat("1", AddrTextCap+1)))
	require.ErrorIs(t, err, ErrAddrTextTooLong)
	// a full buffer without NUL is one byte too long
	_, err = AddrTextFromBytes([]byte(strings.Repeat("1", AddrTextCap)))
	require.ErrorIs(t, err, ErrAddrTextTooLong)
}

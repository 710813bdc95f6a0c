package pf

import (
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	for _, s := range []string{
		"any",
		"no-route",
		"urpf-failed",
		"<bruteforce>",
		"(en0)",
		"(en0:network)",
		"(en1:broadcast:0)",
		"10.0.0.1 - 10.0.0.9",
		"fd00::1 - fd00::ff",
		"192.168.0.0/16",
		"127.0.0.1",
		"2001:db8::/32",
		"::1",
	} {
		a, err := ParseAddress(s)
		require.Nil(t, err, s)
		require.Equal(t, s, a.String(), s)
	}

	a, err := ParseAddress("! 10.0.0.0/8")
	require.Nil(t, err)
	require.True(t, a.Negate())
	require.Equal(t, "! 10.0.0.0/8", a.String())

	_, err = ParseAddress("10.0.0.1 - fd00::1")
	require.ErrorIs(t, err, ErrFamilyMismatch)
	_, err = ParseAddress("()")
	require.ErrorIs(t, err, ErrEmptyName)
	_, err = ParseAddress("<>")
	require.ErrorIs(t, err, ErrEmptyName)
	_, err = ParseAddress("(:network)")
	require.ErrorIs(t, err, ErrEmptyName)
	_, err = ParseAddress("(en0:bogus)")
	require.NotNil(t, err)
	_, err = ParseAddress("300.0.0.1")
	require.NotNil(t, err)
}

func TestAddressTypes(t *testing.T) {
	a := &RuleAddress{}
	require.True(t, a.Any())

	a.SetIPNet(netip.MustParsePrefix("10.1.2.3/8"))
	require.Equal(t, AddrMask, a.Type())
	require.Equal(t, AFInet, a.Family())
	p, err := a.Prefix()
	require.Nil(t, err)
	require.Equal(t, netip.MustParsePrefix("10.0.0.0/8"), p)
	require.False(t, a.Any())

	require.Nil(t, a.SetInterface("en0"))
	require.Equal(t, AddrDynamic, a.Type())
	require.Equal(t, "en0", a.Interface())
	require.Equal(t, "", a.TableName())
	a.SetDynamicFlag(DynamicFlagPeer)
	require.True(t, a.DynamicFlag(DynamicFlagPeer))
	require.False(t, a.DynamicFlag(DynamicFlagNetwork))
	require.Equal(t, 0, a.Count())

	require.ErrorIs(t, a.SetInterface(strings.Repeat("e", IFNAMSIZ)), ErrNameTooLong)
	require.ErrorIs(t, a.SetInterface(""), ErrEmptyName)
	require.ErrorIs(t, a.SetTableName(""), ErrEmptyName)
	require.Equal(t, "en0", a.Interface())
	require.Nil(t, a.SetTableName(strings.Repeat("t", PFTableNameSize-1)))
	require.Equal(t, AddrTable, a.Type())
	require.ErrorIs(t, a.SetTableName(strings.Repeat("t", PFTableNameSize)), ErrNameTooLong)

	a.SetNoRoute()
	require.Equal(t, AddrNoRoute, a.Type())
	a.SetURPFFailed()
	require.Equal(t, AddrURPFFailed, a.Type())

	// the port range is independent of the address body
	a.SetPortRange(PortOpEqual, 22, 0)
	a.SetAny()
	port, err := a.Port(0)
	require.Nil(t, err)
	require.Equal(t, uint16(22), port)
	require.Equal(t, "any port = 22", a.String())
}

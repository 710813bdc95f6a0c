package main

import (
	"net/netip"
	"strings"
	"testing"

	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/require"

	"gopf/pf"
	"gopf/pfdev"
)

const testConfig = `
rules:
  - name: proxy
    address: 127.0.0.1
    op: "="
    port: "8080"
  - name: ephemeral
    address: "! <clients>"
    op: ":"
    port: "49152"
    portEnd: "65535"
  - name: lan
    address: (en0:network)
lookups:
  - name: web
    src: 192.168.1.2:54321
    dst: 127.0.0.1:80
  - name: dns
    proto: udp
    direction: in
    protoVariant: 3
    src: "[fd00::2]:5353"
    dst: "[fd00::1]:53"
`

func TestConfig(t *testing.T) {
	cfg, err := loadConfig(strings.NewReader(testConfig))
	require.Nil(t, err)
	require.Equal(t, pfdev.DefaultPath, cfg.Device)
	require.Len(t, cfg.Rules, 3)
	require.Len(t, cfg.Lookups, 2)

	proxy, err := buildRuleAddress(cfg.Rules[0])
	require.Nil(t, err)
	require.Equal(t, pf.PortOpEqual, proxy.Op())
	port, err := proxy.Port(0)
	require.Nil(t, err)
	require.Equal(t, uint16(8080), port)
	require.Equal(t, "127.0.0.1 port = 8080", proxy.String())

	eph, err := buildRuleAddress(cfg.Rules[1])
	require.Nil(t, err)
	require.Equal(t, "! <clients> port 49152:65535", eph.String())

	lan, err := buildRuleAddress(cfg.Rules[2])
	require.Nil(t, err)
	require.Equal(t, "en0", lan.Interface())
	require.Equal(t, pf.PortOpNone, lan.Op())

	web, err := buildLookup(cfg.Lookups[0])
	require.Nil(t, err)
	require.Equal(t, layers.IPProtocolTCP, web.Protocol())
	require.Equal(t, pf.Out, web.Direction())
	require.Equal(t, uint16(54321), web.SourcePort())

	dns, err := buildLookup(cfg.Lookups[1])
	require.Nil(t, err)
	require.Equal(t, layers.IPProtocolUDP, dns.Protocol())
	require.Equal(t, pf.In, dns.Direction())
	require.Equal(t, netip.MustParseAddr("fd00::1"), dns.Dest())
	require.Equal(t, uint8(3), dns.ProtoVariant())
	require.Equal(t, uint8(0), web.ProtoVariant())
}

func TestBadConfig(t *testing.T) {
	_, err := buildRuleAddress(RuleConfig{Address: "any", Op: "><", Port: "1"})
	require.ErrorIs(t, err, ErrBadConfig)

	_, err = buildRuleAddress(RuleConfig{Address: "any", Op: "~", Port: "1"})
	require.ErrorIs(t, err, pf.ErrUnknownPortOp)

	_, err = buildLookup(LookupConfig{Src: "10.0.0.1:1", Dst: "10.0.0.2:2", Direction: "sideways"})
	require.ErrorIs(t, err, ErrBadConfig)

	_, err = buildLookup(LookupConfig{Src: "10.0.0.1:1", Dst: "[fd00::1]:2"})
	require.ErrorIs(t, err, pf.ErrFamilyMismatch)

	_, err = buildRuleAddress(RuleConfig{Address: "<>"})
	require.ErrorIs(t, err, pf.ErrEmptyName)

	cfg, err := loadConfig(strings.NewReader(""))
	require.Nil(t, err)
	require.Empty(t, cfg.Rules)
}

package pf

import (
	"fmt"
	"net/netip"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"gopf/common"
)

// LookupFromPacket builds the lookup for the connection a TCP or UDP packet
// belongs to, as seen arriving on an interface.
func LookupFromPacket(pkt gopacket.Packet) (*NatLookup, error) {
	var af uint8
	switch pkt.NetworkLayer().(type) {
	case *layers.IPv4:
		af = AFInet
	case *layers.IPv6:
		af = AFInet6
	default:
		return nil, fmt.Errorf("network layer %v: %w", pkt.NetworkLayer(), ErrUnsupportedPacket)
	}

	// IPv6 NextHeader may name an extension header, so the protocol comes
	// from the transport layer itself.
	var proto layers.IPProtocol
	var sport, dport uint16
	switch l4 := pkt.TransportLayer().(type) {
	case *layers.TCP:
		proto, sport, dport = layers.IPProtocolTCP, uint16(l4.SrcPort), uint16(l4.DstPort)
	case *layers.UDP:
		proto, sport, dport = layers.IPProtocolUDP, uint16(l4.SrcPort), uint16(l4.DstPort)
	default:
		return nil, fmt.Errorf("transport layer %v: %w", pkt.TransportLayer(), ErrUnsupportedPacket)
	}

	srcIP, dstIP := common.GetIP(pkt.NetworkLayer())
	src, ok := netip.AddrFromSlice(srcIP)
	if !ok {
		return nil, fmt.Errorf("source %v: %w", srcIP, ErrUnsupportedPacket)
	}
	dst, ok := netip.AddrFromSlice(dstIP)
	if !ok {
		return nil, fmt.Errorf("destination %v: %w", dstIP, ErrUnsupportedPacket)
	}

	if af == AFInet {
		src, dst = src.Unmap(), dst.Unmap()
	}

	n := NewNatLookup(af, proto, Out)
	if err := n.SetSource(src); err != nil {
		return nil, err
	}
	if err := n.SetDest(dst); err != nil {
		return nil, err
	}
	n.SetSourcePort(sport)
	n.SetDestPort(dport)
	return n, nil
}

// LookupFromAddrs builds the lookup for an accepted connection: the peer is
// the source, the local end of the redirected socket the destination.
func LookupFromAddrs(proto layers.IPProtocol, src, dst netip.AddrPort) (*NatLookup, error) {
	n := NewNatLookup(familyOf(src.Addr().Unmap()), proto, Out)
	if err := n.SetSource(src.Addr().Unmap()); err != nil {
		return nil, err
	}
	if err := n.SetDest(dst.Addr().Unmap()); err != nil {
		return nil, err
	}
	n.SetSourcePort(src.Port())
	n.SetDestPort(dst.Port())
	return n, nil
}

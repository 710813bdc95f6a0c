package common

import (
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/require"
)

var (
	// FixLengths is required, otherwise the UDP length field stays zero.
	Options  gopacket.SerializeOptions = gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	rawBytes                           = []byte{0, 1, 2, 3, 4}
	srcMAC                             = net.HardwareAddr{0x00, 0x0F, 0xAA, 0xFA, 0xAA, 0x00}
	dstMAC                             = net.HardwareAddr{0x00, 0x0D, 0xBD, 0xBD, 0x00, 0xBD}
)

// CreatePacket builds an ethernet frame carrying a TCP or UDP segment between
// src:srcport and dst:dstport. IPv6 is used when src is not an IPv4 address.
func CreatePacket(t require.TestingT, protocol layers.IPProtocol, src, dst net.IP, srcport, dstport uint16) gopacket.Packet {
	ethernetLayer := &layers.Ethernet{
		SrcMAC: srcMAC,
		DstMAC: dstMAC,
	}
	var network gopacket.NetworkLayer
	var serial gopacket.SerializableLayer
	if src.To4() != nil {
		ethernetLayer.EthernetType = layers.EthernetTypeIPv4
		ip4 := &layers.IPv4{
			SrcIP:    src.To4(),
			DstIP:    dst.To4(),
			Version:  4,
			TTL:      64,
			Protocol: protocol,
		}
		network, serial = ip4, ip4
	} else {
		ethernetLayer.EthernetType = layers.EthernetTypeIPv6
		ip6 := &layers.IPv6{
			SrcIP:      src,
			DstIP:      dst,
			Version:    6,
			HopLimit:   64,
			NextHeader: protocol,
		}
		network, serial = ip6, ip6
	}

	var transport gopacket.SerializableLayer
	switch protocol {
	case layers.IPProtocolTCP:
		tcp := &layers.TCP{SrcPort: layers.TCPPort(srcport), DstPort: layers.TCPPort(dstport), SYN: true}
		require.Nil(t, tcp.SetNetworkLayerForChecksum(network))
		transport = tcp
	case layers.IPProtocolUDP:
		udp := &layers.UDP{SrcPort: layers.UDPPort(srcport), DstPort: layers.UDPPort(dstport)}
		require.Nil(t, udp.SetNetworkLayerForChecksum(network))
		transport = udp
	default:
		transport = gopacket.Payload(nil)
	}

	buffer := gopacket.NewSerializeBuffer()
	err := gopacket.SerializeLayers(buffer, Options,
		ethernetLayer,
		serial,
		transport,
		gopacket.Payload(rawBytes),
	)
	require.Nil(t, err)
	return gopacket.NewPacket(buffer.Bytes(), layers.LayerTypeEthernet, gopacket.Default)
}

// CreateHopByHopPacket builds an IPv6 TCP segment behind a hop-by-hop
// extension header, so the IPv6 NextHeader field is 0 rather than TCP.
func CreateHopByHopPacket(t require.TestingT, src, dst net.IP, srcport, dstport uint16) gopacket.Packet {
	tcpBuffer := gopacket.NewSerializeBuffer()
	err := gopacket.SerializeLayers(tcpBuffer, gopacket.SerializeOptions{FixLengths: true},
		&layers.TCP{SrcPort: layers.TCPPort(srcport), DstPort: layers.TCPPort(dstport), SYN: true},
	)
	require.Nil(t, err)

	// next header TCP, length 0 (8 bytes), PadN option filling the rest
	hopByHop := []byte{byte(layers.IPProtocolTCP), 0, 1, 4, 0, 0, 0, 0}

	buffer := gopacket.NewSerializeBuffer()
	err = gopacket.SerializeLayers(buffer, Options,
		&layers.Ethernet{SrcMAC: srcMAC, DstMAC: dstMAC, EthernetType: layers.EthernetTypeIPv6},
		&layers.IPv6{SrcIP: src, DstIP: dst, Version: 6, HopLimit: 64, NextHeader: layers.IPProtocolIPv6HopByHop},
		gopacket.Payload(append(hopByHop, tcpBuffer.Bytes()...)),
	)
	require.Nil(t, err)
	return gopacket.NewPacket(buffer.Bytes(), layers.LayerTypeEthernet, gopacket.Default)
}

// CreateICMPPacket builds an ICMPv4 echo request, a packet with no ports.
func CreateICMPPacket(t require.TestingT, src, dst net.IP) gopacket.Packet {
	buffer := gopacket.NewSerializeBuffer()
	err := gopacket.SerializeLayers(buffer, Options,
		&layers.Ethernet{SrcMAC: srcMAC, DstMAC: dstMAC, EthernetType: layers.EthernetTypeIPv4},
		&layers.IPv4{SrcIP: src.To4(), DstIP: dst.To4(), Version: 4, TTL: 64, Protocol: layers.IPProtocolICMPv4},
		&layers.ICMPv4{TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0)},
		gopacket.Payload(rawBytes),
	)
	require.Nil(t, err)
	return gopacket.NewPacket(buffer.Bytes(), layers.LayerTypeEthernet, gopacket.Default)
}

// GetIP returns the source and destination addresses of a network layer.
func GetIP(flow gopacket.NetworkLayer) (net.IP, net.IP) {
	f := flow.NetworkFlow()
	return net.IP(f.Src().Raw()), net.IP(f.Dst().Raw())
}

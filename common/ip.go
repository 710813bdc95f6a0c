package common

import (
	"net/netip"
)

// AddrTo16 lays out an address the way a pf_addr union holds it: IPv4 in the
// first four bytes, IPv6 in all sixteen.
func AddrTo16(addr netip.Addr) (out [16]byte) {
	if addr.Is4() {
		v4 := addr.As4()
		copy(out[:4], v4[:])
		return
	}
	return addr.As16()
}

// AddrFrom16 is the inverse of AddrTo16. v4 selects which member of the union is read.
func AddrFrom16(b []byte, v4 bool) netip.Addr {
	if v4 {
		return netip.AddrFrom4([4]byte(b[:4]))
	}
	return netip.AddrFrom16([16]byte(b[:16]))
}

// PrefixMask returns the pf_addr image of the netmask of a prefix.
func PrefixMask(p netip.Prefix) (out [16]byte) {
	bits := p.Bits()
	n := 128
	if p.Addr().Is4() {
		n = 32
	}
	for i := 0; i < n/8; i++ {
		switch {
		case bits >= 8:
			out[i] = 0xff
			bits -= 8
		case bits > 0:
			out[i] = byte(0xff << (8 - bits))
			bits = 0
		}
	}
	return
}

// MaskBits counts the leading one bits of a mask image. ok is false if the
// mask is not contiguous.
func MaskBits(mask []byte) (bits int, ok bool) {
	seenZero := false
	for _, b := range mask {
		for i := 7; i >= 0; i-- {
			set := b&(1<<uint(i)) != 0
			if set && seenZero {
				return 0, false
			}
			if set {
				bits++
			} else {
				seenZero = true
			}
		}
	}
	return bits, true
}

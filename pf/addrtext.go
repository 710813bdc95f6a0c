package pf

import (
	"bytes"
	"fmt"
	"net/netip"
	"strings"
)

const (
	// AddrTextCap is INET6_ADDRSTRLEN, the size of the C buffer including the NUL.
	AddrTextCap = 46
	// AddrTextMax is the longest text an AddrText can hold.
	AddrTextMax = AddrTextCap - 1
)

// AddrText is the printable form of an address, bounded so that it always
// fits an INET6_ADDRSTRLEN buffer with its terminating NUL.
type AddrText struct {
	s string
}

// NewAddrText checks the bound. It does not check that s parses as an address.
func NewAddrText(s string) (AddrText, error) {
	if len(s) > AddrTextMax {
		return AddrText{}, fmt.Errorf("%d bytes, max %d: %w", len(s), AddrTextMax, ErrAddrTextTooLong)
	}
	if strings.IndexByte(s, 0) >= 0 {
		return AddrText{}, ErrAddrTextNUL
	}
	return AddrText{s: s}, nil
}

// FormatAddr is inet_ntop. Zones are dropped; pf addresses carry none.
func FormatAddr(addr netip.Addr) AddrText {
	return AddrText{s: addr.WithZone("").String()}
}

// AddrTextFromBytes reads a C string out of a buffer of at most AddrTextCap
// bytes, stopping at the first NUL.
func AddrTextFromBytes(b []byte) (AddrText, error) {
	if len(b) > AddrTextCap {
		return AddrText{}, fmt.Errorf("%d byte buffer: %w", len(b), ErrAddrTextTooLong)
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return NewAddrText(string(b))
}

// Array returns the NUL-terminated C buffer.
func (t AddrText) Array() (out [AddrTextCap]byte) {
	copy(out[:AddrTextMax], t.s)
	return
}

// Addr is inet_pton.
func (t AddrText) Addr() (netip.Addr, error) {
	return netip.ParseAddr(t.s)
}

func (t AddrText) Len() int {
	return len(t.s)
}

func (t AddrText) String() string {
	return t.s
}

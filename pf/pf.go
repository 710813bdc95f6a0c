/*
Package pf encodes and decodes the structures the Darwin pf(4) ioctl
interface exchanges with the kernel: the address/port part of a rule
(struct pf_rule_addr) and the NAT state lookup (struct pfioc_natlook).

Values are caller-owned images of the kernel structures. Nothing here talks
to the kernel; see Transport.
*/
package pf

import (
	"errors"
)

var (
	ErrSlotOutOfRange    = errors.New("port slot out of range")
	ErrUnknownPortOp     = errors.New("unknown port operator")
	ErrShortBuffer       = errors.New("buffer size does not match kernel structure")
	ErrNotResolved       = errors.New("nat lookup not resolved")
	ErrAddrTextTooLong   = errors.New("address text exceeds buffer capacity")
	ErrAddrTextNUL       = errors.New("address text contains NUL")
	ErrNameTooLong       = errors.New("name too long")
	ErrEmptyName         = errors.New("empty name")
	ErrFamilyMismatch    = errors.New("address family mismatch")
	ErrUnsupportedPacket = errors.New("packet has no TCP or UDP flow")
)

// Address families as XNU numbers them. These go into the af byte of
// pfioc_natlook and differ from the Linux values.
const (
	AFInet  uint8 = 2
	AFInet6 uint8 = 30
)

// Direction of a state lookup.
type Direction uint8

const (
	InOut Direction = 0
	In    Direction = 1
	Out   Direction = 2
)

func (d Direction) String() string {
	switch d {
	case InOut:
		return "inout"
	case In:
		return "in"
	case Out:
		return "out"
	default:
		return "unknown"
	}
}

// Sizes from net/if.h and net/pfvar.h.
const (
	IFNAMSIZ        = 16
	PFTableNameSize = 32
	RuleAddrSize    = 64
	NatLookSize     = 84
)

// struct pf_rule_addr offsets (LP64).
const (
	offAddrV      = 0  // union v: a.addr
	offAddrMask   = 16 // union v: a.mask
	offAddrP      = 32 // union p: dyncnt / tblcnt
	offAddrType   = 40
	offAddrIflags = 41
	offPort0      = 48 // xport.range.port[0]
	offPort1      = 50 // xport.range.port[1]
	offPortOp     = 52 // xport.range.op
	offNeg        = 56
)

// struct pfioc_natlook offsets.
const (
	offSaddr        = 0
	offDaddr        = 16
	offRsaddr       = 32
	offRdaddr       = 48
	offSxport       = 64
	offDxport       = 68
	offRsxport      = 72
	offRdxport      = 76
	offAF           = 80
	offProto        = 81
	offProtoVariant = 82
	offDirection    = 83
)

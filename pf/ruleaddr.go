package pf

import (
	"fmt"

	"gopf/common"
)

// RuleAddress is the image of a struct pf_rule_addr: an address
// specification followed by a two-slot port range and its operator.
// The zero value is "any address, any port".
type RuleAddress struct {
	raw [RuleAddrSize]byte
	// af is kept alongside the image; in the kernel it lives in the
	// enclosing pf_rule.
	af uint8
}

// RuleAddressFromBytes copies a kernel image. af is the family of the
// enclosing rule, 0 if unknown.
func RuleAddressFromBytes(b []byte, af uint8) (*RuleAddress, error) {
	if len(b) != RuleAddrSize {
		return nil, fmt.Errorf("pf_rule_addr: got %d bytes, want %d: %w", len(b), RuleAddrSize, ErrShortBuffer)
	}
	a := &RuleAddress{af: af}
	copy(a.raw[:], b)
	return a, nil
}

// Bytes returns a copy of the kernel image.
func (a *RuleAddress) Bytes() []byte {
	out := make([]byte, RuleAddrSize)
	copy(out, a.raw[:])
	return out
}

// Family returns the address family set by SetIPNet or SetIPRange.
func (a *RuleAddress) Family() uint8 {
	return a.af
}

func portOffset(slot int) (int, error) {
	switch slot {
	case 0:
		return offPort0, nil
	case 1:
		return offPort1, nil
	default:
		return 0, fmt.Errorf("slot %d: %w", slot, ErrSlotOutOfRange)
	}
}

// SetPort stores a host-order port into slot 0 (lower bound) or 1 (upper bound).
func (a *RuleAddress) SetPort(slot int, port uint16) error {
	off, err := portOffset(slot)
	if err != nil {
		return err
	}
	common.PutWire(a.raw[off:off+2], port)
	return nil
}

// Port returns the host-order port held in a slot.
func (a *RuleAddress) Port(slot int) (uint16, error) {
	off, err := portOffset(slot)
	if err != nil {
		return 0, err
	}
	return common.Wire(a.raw[off : off+2]), nil
}

// SetOp stores the match operator verbatim.
func (a *RuleAddress) SetOp(op PortOp) {
	a.raw[offPortOp] = byte(op)
}

func (a *RuleAddress) Op() PortOp {
	return PortOp(a.raw[offPortOp])
}

// SetPortRange sets the operator and both slots in one go. For single-port
// operators hi is ignored and slot 1 is cleared.
func (a *RuleAddress) SetPortRange(op PortOp, lo, hi uint16) {
	if op.Slots() < 2 {
		hi = 0
	}
	a.SetOp(op)
	common.PutWire(a.raw[offPort0:offPort0+2], lo)
	common.PutWire(a.raw[offPort1:offPort1+2], hi)
}

// SetNegate inverts the address match ("! addr").
func (a *RuleAddress) SetNegate(neg bool) {
	a.raw[offNeg] = 0
	if neg {
		a.raw[offNeg] = 1
	}
}

func (a *RuleAddress) Negate() bool {
	return a.raw[offNeg] != 0
}

// PortString renders the port part in pfctl syntax, empty for any port.
func (a *RuleAddress) PortString() string {
	lo := common.Wire(a.raw[offPort0 : offPort0+2])
	hi := common.Wire(a.raw[offPort1 : offPort1+2])
	op := a.Op()
	switch op {
	case PortOpNone:
		return ""
	case PortOpInclRange, PortOpExclRange:
		return fmt.Sprintf("port %d %s %d", lo, op, hi)
	case PortOpRange:
		return fmt.Sprintf("port %d:%d", lo, hi)
	default:
		if !op.Known() {
			return fmt.Sprintf("port %s %d %d", op, lo, hi)
		}
		return fmt.Sprintf("port %s %d", op, lo)
	}
}

func (a *RuleAddress) String() string {
	s := a.AddrString()
	if a.Negate() {
		s = "! " + s
	}
	if p := a.PortString(); p != "" {
		s += " " + p
	}
	return s
}

package pf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net/netip"
	"strings"

	"gopf/common"
)

// AddrType is the pf_addr_wrap type byte.
type AddrType uint8

const (
	AddrMask       AddrType = 0
	AddrDynamic    AddrType = 1 // interface name, resolved by the kernel
	AddrTable      AddrType = 2
	AddrRTLabel    AddrType = 3
	AddrNoRoute    AddrType = 4
	AddrURPFFailed AddrType = 5
	AddrRange      AddrType = 6
)

// DynamicFlag modifies an interface address, e.g. (en0:network).
type DynamicFlag uint8

const (
	DynamicFlagNetwork   DynamicFlag = 0x01
	DynamicFlagBroadcast DynamicFlag = 0x02
	DynamicFlagPeer      DynamicFlag = 0x04
	DynamicFlagNoAlias   DynamicFlag = 0x08
)

var AllDynamicFlags = []DynamicFlag{
	DynamicFlagNetwork,
	DynamicFlagBroadcast,
	DynamicFlagPeer,
	DynamicFlagNoAlias,
}

func (f DynamicFlag) String() string {
	switch f {
	case DynamicFlagNetwork:
		return "network"
	case DynamicFlagBroadcast:
		return "broadcast"
	case DynamicFlagPeer:
		return "peer"
	case DynamicFlagNoAlias:
		return "0"
	default:
		return fmt.Sprintf("DynamicFlag(%d)", uint8(f))
	}
}

func (a *RuleAddress) Type() AddrType {
	return AddrType(a.raw[offAddrType])
}

func (a *RuleAddress) setType(t AddrType) {
	a.raw[offAddrType] = byte(t)
}

func (a *RuleAddress) clearV() {
	for i := offAddrV; i < offAddrP; i++ {
		a.raw[i] = 0
	}
}

// SetIPNet makes the address a prefix match.
func (a *RuleAddress) SetIPNet(p netip.Prefix) {
	p = p.Masked()
	a.clearV()
	addr := common.AddrTo16(p.Addr())
	mask := common.PrefixMask(p)
	copy(a.raw[offAddrV:offAddrV+16], addr[:])
	copy(a.raw[offAddrMask:offAddrMask+16], mask[:])
	a.af = AFInet6
	if p.Addr().Is4() {
		a.af = AFInet
	}
	a.setType(AddrMask)
}

// SetAny matches every address. The family is left unset.
func (a *RuleAddress) SetAny() {
	a.clearV()
	a.af = 0
	a.setType(AddrMask)
}

// Any reports whether the address is a mask of all zeroes.
func (a *RuleAddress) Any() bool {
	if a.Type() != AddrMask {
		return false
	}
	var zero [32]byte
	return bytes.Equal(a.raw[offAddrV:offAddrP], zero[:])
}

// Prefix returns the prefix of a mask address.
func (a *RuleAddress) Prefix() (netip.Prefix, error) {
	if a.Type() != AddrMask {
		return netip.Prefix{}, fmt.Errorf("address type %d is not a mask", a.Type())
	}
	v4 := a.af == AFInet
	addr := common.AddrFrom16(a.raw[offAddrV:offAddrV+16], v4)
	mask := a.raw[offAddrMask : offAddrMask+16]
	if v4 {
		mask = mask[:4]
	}
	bits, ok := common.MaskBits(mask)
	if !ok {
		return netip.Prefix{}, fmt.Errorf("non-contiguous mask %x", mask)
	}
	return netip.PrefixFrom(addr, bits), nil
}

// SetIPRange makes the address an inclusive range. Both ends must share a family.
func (a *RuleAddress) SetIPRange(start, end netip.Addr) error {
	if start.Is4() != end.Is4() {
		return fmt.Errorf("%s - %s: %w", start, end, ErrFamilyMismatch)
	}
	a.clearV()
	s, e := common.AddrTo16(start), common.AddrTo16(end)
	copy(a.raw[offAddrV:offAddrV+16], s[:])
	copy(a.raw[offAddrMask:offAddrMask+16], e[:])
	a.af = AFInet6
	if start.Is4() {
		a.af = AFInet
	}
	a.setType(AddrRange)
	return nil
}

// IPRange returns both ends of a range address.
func (a *RuleAddress) IPRange() (netip.Addr, netip.Addr) {
	v4 := a.af == AFInet
	return common.AddrFrom16(a.raw[offAddrV:offAddrV+16], v4),
		common.AddrFrom16(a.raw[offAddrMask:offAddrMask+16], v4)
}

func (a *RuleAddress) setName(name string, max int, t AddrType) error {
	if name == "" {
		return ErrEmptyName
	}
	// room for the terminating NUL
	if len(name) >= max {
		return fmt.Errorf("%q longer than %d: %w", name, max-1, ErrNameTooLong)
	}
	a.clearV()
	copy(a.raw[offAddrV:], name)
	a.setType(t)
	return nil
}

func (a *RuleAddress) name() string {
	v := a.raw[offAddrV:offAddrP]
	if i := bytes.IndexByte(v, 0); i >= 0 {
		v = v[:i]
	}
	return string(v)
}

// SetInterface turns the address into a reference to an interface's
// addresses, resolved by the kernel.
func (a *RuleAddress) SetInterface(ifname string) error {
	return a.setName(ifname, IFNAMSIZ, AddrDynamic)
}

// Interface returns the interface name, empty unless the address is dynamic.
func (a *RuleAddress) Interface() string {
	if a.Type() != AddrDynamic {
		return ""
	}
	return a.name()
}

// SetDynamicFlag adds a flag to an interface address.
func (a *RuleAddress) SetDynamicFlag(flag DynamicFlag) {
	a.raw[offAddrIflags] |= byte(flag)
}

func (a *RuleAddress) DynamicFlag(flag DynamicFlag) bool {
	return a.raw[offAddrIflags]&byte(flag) == byte(flag)
}

// SetTableName turns the address into a table reference.
func (a *RuleAddress) SetTableName(name string) error {
	return a.setName(name, PFTableNameSize, AddrTable)
}

func (a *RuleAddress) TableName() string {
	if a.Type() != AddrTable {
		return ""
	}
	return a.name()
}

// Count is the kernel-filled dyncnt/tblcnt for dynamic and table addresses.
func (a *RuleAddress) Count() int {
	return int(int32(binary.NativeEndian.Uint32(a.raw[offAddrP : offAddrP+4])))
}

func (a *RuleAddress) SetNoRoute() {
	a.clearV()
	a.setType(AddrNoRoute)
}

// SetURPFFailed matches sources failing a unicast reverse path check.
func (a *RuleAddress) SetURPFFailed() {
	a.clearV()
	a.setType(AddrURPFFailed)
}

// ParseCIDR sets a prefix from CIDR notation. A bare address is a host
// prefix (/32 or /128).
func (a *RuleAddress) ParseCIDR(s string) error {
	if strings.ContainsRune(s, '/') {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return err
		}
		a.SetIPNet(p)
		return nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return err
	}
	a.SetIPNet(netip.PrefixFrom(addr, addr.BitLen()))
	return nil
}

// AddrString renders the address part in pfctl syntax.
func (a *RuleAddress) AddrString() string {
	switch a.Type() {
	case AddrDynamic:
		str := []string{a.name()}
		for _, flag := range AllDynamicFlags {
			if a.DynamicFlag(flag) {
				str = append(str, flag.String())
			}
		}
		return fmt.Sprintf("(%s)", strings.Join(str, ":"))
	case AddrTable:
		return fmt.Sprintf("<%s>", a.name())
	case AddrNoRoute:
		return "no-route"
	case AddrURPFFailed:
		return "urpf-failed"
	case AddrRange:
		s, e := a.IPRange()
		return fmt.Sprintf("%s - %s", s, e)
	case AddrMask:
		if a.Any() {
			return "any"
		}
		p, err := a.Prefix()
		if err != nil {
			return err.Error()
		}
		if p.Bits() == p.Addr().BitLen() {
			return p.Addr().String()
		}
		return p.String()
	default:
		return fmt.Sprintf("Address(%d)", a.Type())
	}
}

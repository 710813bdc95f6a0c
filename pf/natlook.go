package pf

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/google/gopacket/layers"
	"github.com/rs/zerolog/log"

	"gopf/common"
)

type lookupState uint8

const (
	lookupBuilt lookupState = iota
	lookupSubmitted
	lookupResolved
)

func (s lookupState) String() string {
	switch s {
	case lookupBuilt:
		return "built"
	case lookupSubmitted:
		return "submitted"
	case lookupResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Transport hands a pfioc_natlook image to the kernel. The kernel fills the
// redirect fields of image in place.
type Transport interface {
	NatLook(ctx context.Context, image []byte) error
}

// NatLookup is the image of a struct pfioc_natlook. The same image is the
// request and, once the kernel has written to it, the response. The
// redirect fields can only be read after Resolve or Submit.
type NatLookup struct {
	raw   [NatLookSize]byte
	state lookupState
}

// NewNatLookup starts a query for a connection of the given family and protocol.
func NewNatLookup(af uint8, proto layers.IPProtocol, dir Direction) *NatLookup {
	n := &NatLookup{}
	n.raw[offAF] = af
	n.raw[offProto] = uint8(proto)
	n.raw[offDirection] = uint8(dir)
	return n
}

func (n *NatLookup) touch() {
	n.state = lookupBuilt
}

func (n *NatLookup) putAddr(off int, addr netip.Addr) error {
	if fam := familyOf(addr); fam != n.raw[offAF] {
		return fmt.Errorf("%s in af %d lookup: %w", addr, n.raw[offAF], ErrFamilyMismatch)
	}
	b := common.AddrTo16(addr)
	copy(n.raw[off:off+16], b[:])
	return nil
}

func (n *NatLookup) addr(off int) netip.Addr {
	return common.AddrFrom16(n.raw[off:off+16], n.raw[offAF] == AFInet)
}

func familyOf(addr netip.Addr) uint8 {
	if addr.Is4() {
		return AFInet
	}
	return AFInet6
}

// SetSourcePort stores the connection's source port in wire order.
func (n *NatLookup) SetSourcePort(port uint16) {
	n.touch()
	common.PutWire(n.raw[offSxport:offSxport+2], port)
}

// SetDestPort stores the connection's destination port in wire order.
func (n *NatLookup) SetDestPort(port uint16) {
	n.touch()
	common.PutWire(n.raw[offDxport:offDxport+2], port)
}

func (n *NatLookup) SetSource(addr netip.Addr) error {
	n.touch()
	return n.putAddr(offSaddr, addr)
}

func (n *NatLookup) SetDest(addr netip.Addr) error {
	n.touch()
	return n.putAddr(offDaddr, addr)
}

func (n *NatLookup) SetDirection(dir Direction) {
	n.touch()
	n.raw[offDirection] = uint8(dir)
}

// SetProtoVariant sets the XNU proto_variant byte (used for GRE/ESP lookups).
func (n *NatLookup) SetProtoVariant(v uint8) {
	n.touch()
	n.raw[offProtoVariant] = v
}

func (n *NatLookup) ProtoVariant() uint8 {
	return n.raw[offProtoVariant]
}

func (n *NatLookup) SourcePort() uint16 {
	return common.Wire(n.raw[offSxport : offSxport+2])
}

func (n *NatLookup) DestPort() uint16 {
	return common.Wire(n.raw[offDxport : offDxport+2])
}

// SourcePortWire is the source port field exactly as stored for the kernel.
func (n *NatLookup) SourcePortWire() uint16 {
	return common.RawWire(n.raw[offSxport : offSxport+2])
}

func (n *NatLookup) DestPortWire() uint16 {
	return common.RawWire(n.raw[offDxport : offDxport+2])
}

func (n *NatLookup) Source() netip.Addr {
	return n.addr(offSaddr)
}

func (n *NatLookup) Dest() netip.Addr {
	return n.addr(offDaddr)
}

func (n *NatLookup) Family() uint8 {
	return n.raw[offAF]
}

func (n *NatLookup) Protocol() layers.IPProtocol {
	return layers.IPProtocol(n.raw[offProto])
}

func (n *NatLookup) Direction() Direction {
	return Direction(n.raw[offDirection])
}

// Bytes returns a copy of the image. Reading it does not change the state.
func (n *NatLookup) Bytes() []byte {
	out := make([]byte, NatLookSize)
	copy(out, n.raw[:])
	return out
}

// Resolve takes back the image the kernel filled in.
func (n *NatLookup) Resolve(image []byte) (*LookupResult, error) {
	if len(image) != NatLookSize {
		return nil, fmt.Errorf("pfioc_natlook: got %d bytes, want %d: %w", len(image), NatLookSize, ErrShortBuffer)
	}
	copy(n.raw[:], image)
	n.state = lookupResolved
	return n.Result()
}

// Submit runs the lookup through t. Transport errors are returned as is.
func (n *NatLookup) Submit(ctx context.Context, t Transport) (*LookupResult, error) {
	image := n.Bytes()
	n.state = lookupSubmitted
	log.Debug().Msgf("natlook submit %s", n)
	if err := t.NatLook(ctx, image); err != nil {
		return nil, err
	}
	res, err := n.Resolve(image)
	if err != nil {
		return nil, err
	}
	log.Debug().Msgf("natlook resolved %s", res)
	return res, nil
}

// Result returns the response view, or ErrNotResolved if the kernel has not
// answered since the last change to the query.
func (n *NatLookup) Result() (*LookupResult, error) {
	if n.state != lookupResolved {
		return nil, fmt.Errorf("lookup is %s: %w", n.state, ErrNotResolved)
	}
	r := &LookupResult{}
	copy(r.raw[:], n.raw[:])
	return r, nil
}

// RedirectedDestPort is the host-order port the connection was redirected to.
func (n *NatLookup) RedirectedDestPort() (uint16, error) {
	r, err := n.Result()
	if err != nil {
		return 0, err
	}
	return r.RedirectedDestPort(), nil
}

func (n *NatLookup) String() string {
	return fmt.Sprintf("(%s %s %s -> %s %s)", n.Protocol(), n.Direction(),
		netip.AddrPortFrom(n.Source(), n.SourcePort()),
		netip.AddrPortFrom(n.Dest(), n.DestPort()), n.state)
}

// LookupResult is a read-only view of a resolved lookup.
type LookupResult struct {
	raw [NatLookSize]byte
}

func (r *LookupResult) v4() bool {
	return r.raw[offAF] == AFInet
}

func (r *LookupResult) RedirectedDestPort() uint16 {
	return common.Wire(r.raw[offRdxport : offRdxport+2])
}

func (r *LookupResult) RedirectedDest() netip.Addr {
	return common.AddrFrom16(r.raw[offRdaddr:offRdaddr+16], r.v4())
}

func (r *LookupResult) RedirectedSourcePort() uint16 {
	return common.Wire(r.raw[offRsxport : offRsxport+2])
}

func (r *LookupResult) RedirectedSource() netip.Addr {
	return common.AddrFrom16(r.raw[offRsaddr:offRsaddr+16], r.v4())
}

// AddrPort is the original destination a transparent proxy should dial.
func (r *LookupResult) AddrPort() netip.AddrPort {
	return netip.AddrPortFrom(r.RedirectedDest(), r.RedirectedDestPort())
}

func (r *LookupResult) String() string {
	return fmt.Sprintf("(%s -> %s)", netip.AddrPortFrom(r.RedirectedSource(), r.RedirectedSourcePort()), r.AddrPort())
}

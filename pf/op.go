package pf

import (
	"fmt"
	"strings"
)

// PortOp is the pf port match operator stored in a rule address's port range.
// Values outside the known set are carried through unchanged.
type PortOp uint8

const (
	PortOpNone         PortOp = 0 // any port
	PortOpInclRange    PortOp = 1 // ><
	PortOpEqual        PortOp = 2 // =
	PortOpNotEqual     PortOp = 3 // !=
	PortOpLess         PortOp = 4 // <
	PortOpLessEqual    PortOp = 5 // <=
	PortOpGreater      PortOp = 6 // >
	PortOpGreaterEqual PortOp = 7 // >=
	PortOpExclRange    PortOp = 8 // <>
	PortOpRange        PortOp = 9 // :
)

var portOpSymbols = map[PortOp]string{
	PortOpNone:         "",
	PortOpInclRange:    "><",
	PortOpEqual:        "=",
	PortOpNotEqual:     "!=",
	PortOpLess:         "<",
	PortOpLessEqual:    "<=",
	PortOpGreater:      ">",
	PortOpGreaterEqual: ">=",
	PortOpExclRange:    "<>",
	PortOpRange:        ":",
}

var portOpNames = map[string]PortOp{
	"any":  PortOpNone,
	"none": PortOpNone,
	"eq":   PortOpEqual,
	"ne":   PortOpNotEqual,
	"lt":   PortOpLess,
	"le":   PortOpLessEqual,
	"gt":   PortOpGreater,
	"ge":   PortOpGreaterEqual,
	"irg":  PortOpInclRange,
	"xrg":  PortOpExclRange,
	"rrg":  PortOpRange,
}

// Known reports whether op is one of the operators the kernel defines.
func (op PortOp) Known() bool {
	_, ok := portOpSymbols[op]
	return ok
}

// Slots is the number of port slots the operator reads.
func (op PortOp) Slots() int {
	switch op {
	case PortOpNone:
		return 0
	case PortOpInclRange, PortOpExclRange, PortOpRange:
		return 2
	case PortOpEqual, PortOpNotEqual, PortOpLess, PortOpLessEqual, PortOpGreater, PortOpGreaterEqual:
		return 1
	default:
		return 2
	}
}

func (op PortOp) String() string {
	if op == PortOpNone {
		return "any"
	}
	if s, ok := portOpSymbols[op]; ok {
		return s
	}
	return fmt.Sprintf("PortOp(%d)", uint8(op))
}

// ParsePortOp accepts pfctl symbols ("=", "><", ":") and short names ("eq", "xrg").
func ParsePortOp(s string) (PortOp, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if op, ok := portOpNames[s]; ok {
		return op, nil
	}
	for op, sym := range portOpSymbols {
		if sym != "" && sym == s {
			return op, nil
		}
	}
	return 0, fmt.Errorf("%q: %w", s, ErrUnknownPortOp)
}

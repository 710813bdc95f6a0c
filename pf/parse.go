package pf

import (
	"fmt"
	"net/netip"
	"strings"
)

// ParseAddress reads the address part of a rule in pfctl syntax:
// "any", "no-route", "urpf-failed", "<table>", "(en0:network)",
// "10.0.0.1 - 10.0.0.9" or an address/prefix.
func ParseAddress(s string) (*RuleAddress, error) {
	a := &RuleAddress{}
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "!") {
		a.SetNegate(true)
		s = strings.TrimSpace(s[1:])
	}

	switch {
	case s == "" || s == "any":
		a.SetAny()
	case s == "no-route":
		a.SetNoRoute()
	case s == "urpf-failed":
		a.SetURPFFailed()
	case strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">"):
		if err := a.SetTableName(s[1 : len(s)-1]); err != nil {
			return nil, err
		}
	case strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")"):
		parts := strings.Split(s[1:len(s)-1], ":")
		if err := a.SetInterface(parts[0]); err != nil {
			return nil, err
		}
		for _, p := range parts[1:] {
			flag, err := parseDynamicFlag(p)
			if err != nil {
				return nil, err
			}
			a.SetDynamicFlag(flag)
		}
	case strings.Contains(s, " - "):
		ends := strings.SplitN(s, " - ", 2)
		start, err := netip.ParseAddr(strings.TrimSpace(ends[0]))
		if err != nil {
			return nil, err
		}
		end, err := netip.ParseAddr(strings.TrimSpace(ends[1]))
		if err != nil {
			return nil, err
		}
		if err := a.SetIPRange(start, end); err != nil {
			return nil, err
		}
	default:
		if err := a.ParseCIDR(s); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func parseDynamicFlag(s string) (DynamicFlag, error) {
	for _, f := range AllDynamicFlags {
		if f.String() == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown interface modifier %q", s)
}

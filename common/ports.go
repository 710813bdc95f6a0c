// Service and protocol name resolution backed by /etc/services and
// /etc/protocols, in the manner of netdb.h's getservbyname and
// getprotobyname.
//
// The databases are parsed once, on first use. Returned entries are shared;
// do not modify them.
package common

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

var (
	ErrUnknownService  = errors.New("unknown service")
	ErrUnknownProtocol = errors.New("unknown protocol")
	ErrPortRange       = errors.New("port out of range")
)

type Protoent struct {
	Name    string
	Aliases []string
	Number  int
}

type Servent struct {
	Name     string
	Aliases  []string
	Port     int
	Protocol *Protoent
}

// Netdb holds a parsed protocols and services database.
type Netdb struct {
	Protocols []*Protoent
	Services  []*Servent
}

var (
	ProtocolsPath = "/etc/protocols"
	ServicesPath  = "/etc/services"

	defaultDB     *Netdb
	defaultDBErr  error
	defaultDBOnce sync.Once
)

// DefaultNetdb loads ProtocolsPath and ServicesPath once.
func DefaultNetdb() (*Netdb, error) {
	defaultDBOnce.Do(func() {
		protocols, err := os.ReadFile(ProtocolsPath)
		if err != nil {
			defaultDBErr = err
			return
		}
		services, err := os.ReadFile(ServicesPath)
		if err != nil {
			defaultDBErr = err
			return
		}
		defaultDB, defaultDBErr = ParseNetdb(string(protocols), string(services))
	})
	return defaultDB, defaultDBErr
}

// ParseNetdb parses the contents of a protocols and a services file.
func ParseNetdb(protocols, services string) (*Netdb, error) {
	db := &Netdb{}
	protoMap := make(map[string]*Protoent)

	for _, fields := range dbLines(protocols) {
		num, err := strconv.ParseInt(fields[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("protocol %s: %w", fields[0], err)
		}
		protoent := &Protoent{
			Name:    fields[0],
			Aliases: fields[2:],
			Number:  int(num),
		}
		db.Protocols = append(db.Protocols, protoent)
		protoMap[fields[0]] = protoent
	}

	for _, fields := range dbLines(services) {
		portproto := strings.SplitN(fields[1], "/", 2)
		if len(portproto) != 2 {
			return nil, fmt.Errorf("service %s: malformed %q", fields[0], fields[1])
		}
		port, err := strconv.ParseInt(portproto[0], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("service %s: %w", fields[0], err)
		}
		db.Services = append(db.Services, &Servent{
			Name:     fields[0],
			Aliases:  fields[2:],
			Port:     int(port),
			Protocol: protoMap[portproto[1]],
		})
	}
	return db, nil
}

func dbLines(data string) (out [][]string) {
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		split := strings.SplitN(line, "#", 2)
		fields := strings.Fields(split[0])
		if len(fields) < 2 {
			continue
		}
		out = append(out, fields)
	}
	return
}

// Equal checks if two Protoents are the same, which is the case if
// their protocol numbers are identical or when both Protoents are
// nil.
func (this *Protoent) Equal(other *Protoent) bool {
	if this == nil && other == nil {
		return true
	}
	if this == nil || other == nil {
		return false
	}
	return this.Number == other.Number
}

// ProtoByName returns the Protoent whose name or any of its
// aliases matches the argument.
func (db *Netdb) ProtoByName(name string) *Protoent {
	for _, protoent := range db.Protocols {
		if protoent.Name == name {
			return protoent
		}
		for _, alias := range protoent.Aliases {
			if alias == name {
				return protoent
			}
		}
	}
	return nil
}

// ServByName returns the Servent for a given service name or alias
// and protocol. If the protocol is nil, the first service matching
// the service name is returned.
func (db *Netdb) ServByName(name string, protocol *Protoent) *Servent {
	for _, servent := range db.Services {
		if protocol != nil && !servent.Protocol.Equal(protocol) {
			continue
		}
		if servent.Name == name {
			return servent
		}
		for _, alias := range servent.Aliases {
			if alias == name {
				return servent
			}
		}
	}
	return nil
}

// LookupPort resolves a port given either as a number or as a service name.
// proto may be empty to match any protocol.
func (db *Netdb) LookupPort(name, proto string) (uint16, error) {
	if n, err := strconv.ParseUint(name, 10, 32); err == nil {
		if n > 0xffff {
			return 0, fmt.Errorf("%d: %w", n, ErrPortRange)
		}
		return uint16(n), nil
	}
	var protoent *Protoent
	if proto != "" {
		if protoent = db.ProtoByName(proto); protoent == nil {
			return 0, fmt.Errorf("%s: %w", proto, ErrUnknownProtocol)
		}
	}
	servent := db.ServByName(name, protoent)
	if servent == nil {
		return 0, fmt.Errorf("%s/%s: %w", name, proto, ErrUnknownService)
	}
	return uint16(servent.Port), nil
}

// LookupProto resolves a protocol number given by number or name.
func (db *Netdb) LookupProto(name string) (uint8, error) {
	if n, err := strconv.ParseUint(name, 10, 8); err == nil {
		return uint8(n), nil
	}
	protoent := db.ProtoByName(name)
	if protoent == nil {
		return 0, fmt.Errorf("%s: %w", name, ErrUnknownProtocol)
	}
	return uint8(protoent.Number), nil
}

// LookupPort resolves against the system database.
func LookupPort(name, proto string) (uint16, error) {
	if n, err := strconv.ParseUint(name, 10, 16); err == nil {
		return uint16(n), nil
	}
	db, err := DefaultNetdb()
	if err != nil {
		return 0, err
	}
	return db.LookupPort(name, proto)
}

// LookupProto resolves against the system database.
func LookupProto(name string) (uint8, error) {
	if n, err := strconv.ParseUint(name, 10, 8); err == nil {
		return uint8(n), nil
	}
	db, err := DefaultNetdb()
	if err != nil {
		return 0, err
	}
	return db.LookupProto(name)
}

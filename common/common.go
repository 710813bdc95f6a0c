package common

import (
	"errors"
	"net"
)

var (
	ErrNoInterfaceFound = errors.New("could not find interface with that name")
)

// InterfaceExists reports ErrNoInterfaceFound if no local interface has this name.
func InterfaceExists(name string) error {
	ifas, err := net.Interfaces()
	if err != nil {
		return err
	}
	for _, ifa := range ifas {
		if ifa.Name == name {
			return nil
		}
	}
	return ErrNoInterfaceFound
}

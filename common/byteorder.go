package common

import "encoding/binary"

// HostToWire converts a 16-bit value from host to network byte order, aka "htons".
// On a big-endian host this is the identity.
func HostToWire(v uint16) uint16 {
	b := []byte{0, 0}
	binary.BigEndian.PutUint16(b, v)
	return binary.NativeEndian.Uint16(b)
}

// WireToHost converts a 16-bit value from network to host byte order, aka "ntohs".
func WireToHost(v uint16) uint16 {
	b := []byte{0, 0}
	binary.NativeEndian.PutUint16(b, v)
	return binary.BigEndian.Uint16(b)
}

// PutWire stores a host-order port into the raw memory of a wire-order field.
// The field must be at least 2 bytes.
func PutWire(field []byte, port uint16) {
	binary.NativeEndian.PutUint16(field, HostToWire(port))
}

// Wire loads the host-order value of a wire-order field.
func Wire(field []byte) uint16 {
	return WireToHost(binary.NativeEndian.Uint16(field))
}

// RawWire returns the field exactly as the kernel sees it, without conversion.
func RawWire(field []byte) uint16 {
	return binary.NativeEndian.Uint16(field)
}

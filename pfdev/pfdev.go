/*
Package pfdev opens the pf control device and carries images built by
package pf to and from the kernel. Kernel errors are returned with the ioctl
name attached and are not otherwise interpreted.
*/
package pfdev

import (
	"errors"
	"sync"

	"gopf/pf"
)

const DefaultPath = "/dev/pf"

// ioctl request numbers, _IOWR('D', nr, size).
const (
	iocInOut    = 0xc0000000
	iocParmMask = 0x1fff

	DIOCNATLOOK = iocInOut | (pf.NatLookSize&iocParmMask)<<16 | 'D'<<8 | 23
)

var (
	ErrUnsupported = errors.New("pf device not supported on this platform")
	ErrClosed      = errors.New("pf device closed")
)

// Device is an open pf control device. NatLook may be called concurrently.
type Device struct {
	path string
	fd   int
	lock sync.RWMutex
}

var _ pf.Transport = (*Device)(nil)

func (d *Device) Path() string {
	return d.path
}

//go:build darwin

package pfdev

import (
	"context"
	"fmt"
	"unsafe"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"

	"gopf/pf"
)

// Open opens the device read-write. Lookups need root.
func Open(path string) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	log.Debug().Msgf("opened %s (fd %d)", path, fd)
	return &Device{path: path, fd: fd}, nil
}

// NatLook issues DIOCNATLOOK; the kernel rewrites image in place.
func (d *Device) NatLook(ctx context.Context, image []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(image) != pf.NatLookSize {
		return fmt.Errorf("DIOCNATLOOK: got %d bytes, want %d: %w", len(image), pf.NatLookSize, pf.ErrShortBuffer)
	}
	d.lock.RLock()
	defer d.lock.RUnlock()
	if d.fd < 0 {
		return ErrClosed
	}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), uintptr(DIOCNATLOOK), uintptr(unsafe.Pointer(&image[0])))
	if errno != 0 {
		return fmt.Errorf("DIOCNATLOOK: %w", errno)
	}
	return nil
}

func (d *Device) Close() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.fd < 0 {
		return nil
	}
	err := unix.Close(d.fd)
	d.fd = -1
	return err
}

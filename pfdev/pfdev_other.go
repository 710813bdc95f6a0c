//go:build !darwin

package pfdev

import (
	"context"
)

func Open(path string) (*Device, error) {
	return nil, ErrUnsupported
}

func (d *Device) NatLook(ctx context.Context, image []byte) error {
	return ErrUnsupported
}

func (d *Device) Close() error {
	return nil
}

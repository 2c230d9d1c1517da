//go:build !linux

package i2c

import (
	"context"
	"errors"

	"github.com/mklimuk/rtcbus"
)

func (b *Bus) Submit(ctx context.Context, tx rtcbus.Transaction) (int, error) {
	return 0, rtcbus.Unavailable(errors.ErrUnsupported)
}

func (b *Bus) Functionality() (uint64, error) {
	return 0, rtcbus.Unavailable(errors.ErrUnsupported)
}

func (b *Bus) SupportsCombined() (bool, error) {
	return false, rtcbus.Unavailable(errors.ErrUnsupported)
}

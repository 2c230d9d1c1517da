//go:build linux

package i2c

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/mklimuk/rtcbus"
)

func tempBus(t *testing.T) (*Bus, *os.File) {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "i2c-")
	require.NoError(t, err)
	return NewBus(f), f
}

func TestBus_NotAnAdapter(t *testing.T) {
	bus, _ := tempBus(t)
	defer func() { _ = bus.Close() }()

	_, err := rtcbus.ReadRegister(context.Background(), bus, 0x34, 2)
	assert.ErrorIs(t, err, rtcbus.ErrDeviceUnavailable)
	assert.ErrorIs(t, err, unix.ENOTTY)

	_, err = bus.SupportsCombined()
	assert.ErrorIs(t, err, rtcbus.ErrDeviceUnavailable)
}

func TestBus_ClosedDescriptor(t *testing.T) {
	bus, f := tempBus(t)
	require.NoError(t, f.Close())

	val, err := rtcbus.ReadRegister(context.Background(), bus, 0x34, 2)
	assert.ErrorIs(t, err, rtcbus.ErrDeviceUnavailable)
	assert.ErrorIs(t, err, unix.EBADF)
	assert.Zero(t, val)
}

func TestBus_ClosedHandle(t *testing.T) {
	bus, _ := tempBus(t)
	require.NoError(t, bus.Close())
	assert.Error(t, bus.Close())

	_, err := rtcbus.ReadRegister(context.Background(), bus, 0x34, 2)
	assert.ErrorIs(t, err, rtcbus.ErrDeviceUnavailable)
}

func TestBus_InvalidTransaction(t *testing.T) {
	bus, _ := tempBus(t)
	defer func() { _ = bus.Close() }()
	_, err := bus.Submit(context.Background(), rtcbus.Transaction{})
	assert.ErrorIs(t, err, rtcbus.ErrInvalidRequest)

	// rejected before the ioctl, so no ENOTTY from the temp file
	tx := rtcbus.Transaction{rtcbus.WriteMessage(0x34, []byte{0x00}), rtcbus.ReadMessage(0x34, maxMsgLen+1)}
	done, err := bus.Submit(context.Background(), tx)
	assert.ErrorIs(t, err, rtcbus.ErrInvalidRequest)
	assert.NotErrorIs(t, err, unix.ENOTTY)
	assert.Zero(t, done)

	_, err = bus.Submit(context.Background(), rtcbus.Transaction{rtcbus.ReadMessage(0x34, maxMsgLen)})
	assert.ErrorIs(t, err, unix.ENOTTY)
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "i2c-9"))
	assert.ErrorIs(t, err, rtcbus.ErrDeviceUnavailable)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestClassifyErrno(t *testing.T) {
	tests := []struct {
		errno unix.Errno
		kind  error
	}{
		{unix.EBADF, rtcbus.ErrDeviceUnavailable},
		{unix.ENODEV, rtcbus.ErrDeviceUnavailable},
		{unix.EACCES, rtcbus.ErrDeviceUnavailable},
		{unix.EBUSY, rtcbus.ErrDeviceUnavailable},
		{unix.ENOTTY, rtcbus.ErrDeviceUnavailable},
		{unix.EREMOTEIO, rtcbus.ErrTransferFailed},
		{unix.ENXIO, rtcbus.ErrTransferFailed},
		{unix.EAGAIN, rtcbus.ErrTransferFailed},
		{unix.ETIMEDOUT, rtcbus.ErrTransferFailed},
		{unix.EIO, rtcbus.ErrTransferFailed},
	}
	for _, tt := range tests {
		t.Run(tt.errno.Error(), func(t *testing.T) {
			err := classifyErrno(tt.errno)
			assert.ErrorIs(t, err, tt.kind)
			assert.ErrorIs(t, err, tt.errno)
		})
	}
}

func TestDevicePath(t *testing.T) {
	assert.Equal(t, "/dev/i2c-0", DevicePath(0))
	assert.Equal(t, "/dev/i2c-1", DevicePath(1))
}

//go:build linux

package i2c

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/mklimuk/rtcbus"
	"github.com/mklimuk/rtcbus/busctx"
)

// from linux/i2c-dev.h and linux/i2c.h
const (
	ioctlFuncs = 0x0705
	ioctlRdwr  = 0x0707

	msgRead = 0x0001

	// maxMsgLen is the i2c-dev limit per message; longer ones get EINVAL.
	maxMsgLen = 8192

	// FuncI2C is the functionality bit of adapters that execute plain I2C
	// message lists, which combined transfers require.
	FuncI2C = 0x00000001
)

// kernelMsg mirrors struct i2c_msg.
type kernelMsg struct {
	addr  uint16
	flags uint16
	len   uint16
	buf   uintptr
}

// kernelRdwr mirrors struct i2c_rdwr_ioctl_data.
type kernelRdwr struct {
	msgs  uintptr
	nmsgs uint32
}

func (b *Bus) Submit(ctx context.Context, tx rtcbus.Transaction) (int, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	for i, m := range tx {
		if len(m.Buf) > maxMsgLen {
			return 0, fmt.Errorf("%w: message %d is %d bytes, i2c-dev takes at most %d", rtcbus.ErrInvalidRequest, i, len(m.Buf), maxMsgLen)
		}
	}
	b.mx.Lock()
	defer b.mx.Unlock()
	if b.f == nil {
		return 0, rtcbus.Unavailable(fs.ErrClosed)
	}
	if busctx.IsVerbose(ctx) {
		slog.Debug("submitting i2c transaction", "bus", b.path, "messages", len(tx), "dump", rtcbus.Dump(tx))
	}

	var pinner runtime.Pinner
	defer pinner.Unpin()
	msgs := make([]kernelMsg, len(tx))
	for i, m := range tx {
		pinner.Pin(&m.Buf[0])
		msgs[i] = kernelMsg{
			addr: uint16(m.Addr),
			len:  uint16(len(m.Buf)),
			buf:  uintptr(unsafe.Pointer(&m.Buf[0])),
		}
		if m.Dir == rtcbus.Read {
			msgs[i].flags = msgRead
		}
	}
	pinner.Pin(&msgs[0])
	data := kernelRdwr{
		msgs:  uintptr(unsafe.Pointer(&msgs[0])),
		nmsgs: uint32(len(msgs)),
	}
	n, _, errno := unix.Syscall(unix.SYS_IOCTL, b.f.Fd(), ioctlRdwr, uintptr(unsafe.Pointer(&data)))
	if errno != 0 {
		return 0, classifyErrno(errno)
	}
	return int(n), nil
}

// Functionality returns the adapter's I2C_FUNC_* bits.
func (b *Bus) Functionality() (uint64, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	if b.f == nil {
		return 0, rtcbus.Unavailable(fs.ErrClosed)
	}
	var funcs uint64
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, b.f.Fd(), ioctlFuncs, uintptr(unsafe.Pointer(&funcs)))
	if errno != 0 {
		return 0, classifyErrno(errno)
	}
	return funcs, nil
}

// SupportsCombined reports whether the adapter accepts I2C_RDWR message lists.
func (b *Bus) SupportsCombined() (bool, error) {
	funcs, err := b.Functionality()
	if err != nil {
		return false, err
	}
	return funcs&FuncI2C != 0, nil
}

// classifyErrno separates a dead or wrong handle from a transaction the
// controller aborted. NACKs usually come back as EREMOTEIO or ENXIO,
// arbitration loss as EAGAIN.
func classifyErrno(errno unix.Errno) error {
	switch errno {
	case unix.EBADF, unix.ENODEV, unix.ENOENT, unix.EACCES, unix.EPERM, unix.EBUSY:
		return rtcbus.Unavailable(errno)
	case unix.ENOTTY:
		return rtcbus.Unavailable(fmt.Errorf("not an i2c adapter: %w", errno))
	default:
		return rtcbus.Failed(errno)
	}
}

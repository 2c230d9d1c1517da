package rtcbus

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrDeviceUnavailable means the bus handle could not be used: it was
	// closed, the device node is gone or access was denied.
	ErrDeviceUnavailable = errors.New("device unavailable")
	// ErrTransferFailed means the controller rejected or aborted the
	// transaction (NACK, arbitration loss, bus error, timeout).
	ErrTransferFailed = errors.New("transfer failed")
	// ErrPartialTransfer is reported together with ErrTransferFailed when the
	// controller completed fewer messages than were submitted.
	ErrPartialTransfer = errors.New("partial transfer")

	ErrInvalidAddress = errors.New("invalid device address")
	ErrInvalidRequest = errors.New("invalid transaction")
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

// Submitter executes a transaction as one atomic bus operation, with no
// STOP condition between its messages. It returns the number of messages
// the controller completed. Read buffers are filled in place.
type Submitter interface {
	Submit(ctx context.Context, tx Transaction) (int, error)
}

// SubmitCloser is a bus handle owned by the caller.
type SubmitCloser interface {
	Submitter
	Close() error
}

// TransferError describes a failed register access.
type TransferError struct {
	// Kind is ErrDeviceUnavailable or ErrTransferFailed.
	Kind     error
	Addr     DeviceAddress
	Register []byte
	Err      error
}

func (e *TransferError) Error() string {
	if errors.Is(e.Err, e.Kind) {
		return fmt.Sprintf("read register %#x on device %s: %v", e.Register, e.Addr, e.Err)
	}
	return fmt.Sprintf("read register %#x on device %s: %v: %v", e.Register, e.Addr, e.Kind, e.Err)
}

func (e *TransferError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Unavailable marks err as a handle failure.
func Unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
}

// Failed marks err as a controller failure.
func Failed(err error) error {
	return fmt.Errorf("%w: %w", ErrTransferFailed, err)
}

// classify picks the error kind for a submission failure. Submitters that
// know the cause mark it themselves; anything unmarked that looks like a
// dead handle is unavailable and the rest is a failed transfer.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrDeviceUnavailable):
		return ErrDeviceUnavailable
	case errors.Is(err, ErrTransferFailed):
		return ErrTransferFailed
	case errors.Is(err, fs.ErrClosed),
		errors.Is(err, fs.ErrPermission),
		errors.Is(err, fs.ErrNotExist),
		errors.Is(err, fs.ErrInvalid):
		return ErrDeviceUnavailable
	default:
		return ErrTransferFailed
	}
}

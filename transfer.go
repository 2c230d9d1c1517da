package rtcbus

import (
	"bytes"
	"context"
	"fmt"
)

// ReadRegister selects register reg on the device at addr and reads its
// value back in one combined transaction.
//
// The call blocks until the controller finishes. Either both phases
// complete and the byte is returned, or a *TransferError wrapping
// ErrDeviceUnavailable or ErrTransferFailed is returned with a zero byte.
// The context is only checked before submission.
func ReadRegister(ctx context.Context, bus Submitter, addr DeviceAddress, reg byte) (byte, error) {
	return ReadRegisterAt(ctx, bus, addr, []byte{reg})
}

// ReadRegisterAt is ReadRegister for devices with multi-byte register
// indexes, sent in the order given.
func ReadRegisterAt(ctx context.Context, bus Submitter, addr DeviceAddress, index []byte) (byte, error) {
	tx, err := SubmitRegisterRead(ctx, bus, addr, index)
	if err != nil {
		return 0, err
	}
	return tx[1].Buf[0], nil
}

// SubmitRegisterRead runs the register read and returns the transaction as
// it was submitted, with the read buffer filled. The transaction is
// returned on transfer errors too, nil when nothing reached the bus.
func SubmitRegisterRead(ctx context.Context, bus Submitter, addr DeviceAddress, index []byte) (Transaction, error) {
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	if len(index) == 0 {
		return nil, fmt.Errorf("%w: empty register index", ErrInvalidRequest)
	}
	reg := bytes.Clone(index)
	if bus == nil {
		return nil, &TransferError{Kind: ErrDeviceUnavailable, Addr: addr, Register: reg, Err: fmt.Errorf("no bus handle")}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tx := NewRegisterRead(addr, reg, 1)
	done, err := bus.Submit(ctx, tx)
	if err != nil {
		return tx, &TransferError{Kind: classify(err), Addr: addr, Register: reg, Err: err}
	}
	if done != len(tx) {
		return tx, &TransferError{
			Kind:     ErrTransferFailed,
			Addr:     addr,
			Register: reg,
			Err:      fmt.Errorf("%w: %d of %d messages completed", ErrPartialTransfer, done, len(tx)),
		}
	}
	return tx, nil
}

package sim

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/mklimuk/rtcbus"
)

var ErrNack = errors.New("no acknowledgment from peripheral")

var _ rtcbus.SubmitCloser = &Bus{}

// Phase is a message as the bus executed it.
type Phase struct {
	Addr  rtcbus.DeviceAddress
	Dir   rtcbus.Direction
	Data  []byte
	Acked bool
}

// Bus executes transactions against attached devices. Messages of one
// transaction are joined by repeated STARTs and a single STOP is issued at
// the end, after a NACK included.
type Bus struct {
	mx      sync.Mutex
	devices map[rtcbus.DeviceAddress]*Device
	phases  []Phase
	closed  bool
	partial int
}

type BusOpt func(*Bus)

func WithDevice(addr rtcbus.DeviceAddress, dev *Device) BusOpt {
	return func(b *Bus) {
		b.devices[addr] = dev
	}
}

// WithPartialCompletion makes Submit report at most n completed messages
// without an error, like a driver that stops early and still returns
// success.
func WithPartialCompletion(n int) BusOpt {
	return func(b *Bus) {
		b.partial = n
	}
}

func NewBus(opts ...BusOpt) *Bus {
	b := &Bus{
		devices: map[rtcbus.DeviceAddress]*Device{},
		partial: -1,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bus) Attach(addr rtcbus.DeviceAddress, dev *Device) {
	b.mx.Lock()
	defer b.mx.Unlock()
	b.devices[addr] = dev
}

func (b *Bus) Submit(ctx context.Context, tx rtcbus.Transaction) (int, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	if b.closed {
		return 0, fs.ErrClosed
	}
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	defer b.stop()
	for i, m := range tx {
		dev := b.devices[m.Addr]
		acked := false
		if dev != nil {
			switch m.Dir {
			case rtcbus.Write:
				acked = dev.write(m.Buf)
			case rtcbus.Read:
				acked = dev.read(m.Buf)
			}
		}
		b.record(m, acked)
		if !acked {
			return i, rtcbus.Failed(fmt.Errorf("message %d (%s %s): %w", i, m.Dir, m.Addr, ErrNack))
		}
	}
	if b.partial >= 0 && b.partial < len(tx) {
		return b.partial, nil
	}
	return len(tx), nil
}

func (b *Bus) record(m rtcbus.Message, acked bool) {
	data := make([]byte, len(m.Buf))
	copy(data, m.Buf)
	b.phases = append(b.phases, Phase{Addr: m.Addr, Dir: m.Dir, Data: data, Acked: acked})
}

func (b *Bus) stop() {
	for _, dev := range b.devices {
		dev.stop()
	}
}

// Phases returns every message executed so far, in bus order.
func (b *Bus) Phases() []Phase {
	b.mx.Lock()
	defer b.mx.Unlock()
	res := make([]Phase, len(b.phases))
	copy(res, b.phases)
	return res
}

func (b *Bus) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	if b.closed {
		return fs.ErrClosed
	}
	b.closed = true
	return nil
}

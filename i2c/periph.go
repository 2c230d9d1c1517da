package i2c

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/mklimuk/rtcbus"
)

var _ rtcbus.SubmitCloser = &PeriphBus{}

// PeriphBus submits transactions through a periph.io bus. periph executes
// Tx(addr, w, r) as one combined transfer, so it can carry a register-select
// write followed by a read, both to the same device.
type PeriphBus struct {
	mx  sync.Mutex
	bus i2c.BusCloser
}

// OpenPeriph initializes the periph host drivers and opens the bus by name
// ("1", "I2C1", "/dev/i2c-1"); an empty name picks the first bus found.
func OpenPeriph(name string) (*PeriphBus, error) {
	state, err := host.Init()
	if err != nil {
		return nil, rtcbus.Unavailable(fmt.Errorf("could not init host: %w", err))
	}
	for _, driver := range state.Loaded {
		slog.Debug("periph driver loaded", "driver", driver.String())
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, rtcbus.Unavailable(fmt.Errorf("could not open i2c bus: %w", err))
	}
	return NewPeriphBus(bus), nil
}

func NewPeriphBus(bus i2c.BusCloser) *PeriphBus {
	return &PeriphBus{bus: bus}
}

func (b *PeriphBus) Submit(ctx context.Context, tx rtcbus.Transaction) (int, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	addr, w, r, err := splitTx(tx)
	if err != nil {
		return 0, err
	}
	b.mx.Lock()
	defer b.mx.Unlock()
	if b.bus == nil {
		return 0, rtcbus.Unavailable(fs.ErrClosed)
	}
	err = b.bus.Tx(uint16(addr), w, r)
	if err != nil {
		return 0, rtcbus.Failed(fmt.Errorf("could not transfer on i2c bus %s: %w", addr, err))
	}
	return len(tx), nil
}

func (b *PeriphBus) String() string {
	b.mx.Lock()
	defer b.mx.Unlock()
	if b.bus == nil {
		return "closed"
	}
	return b.bus.String()
}

func (b *PeriphBus) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	if b.bus == nil {
		return fs.ErrClosed
	}
	err := b.bus.Close()
	b.bus = nil
	return err
}

// splitTx maps a transaction onto a single write/read pair. Only one write,
// one read, or a write followed by a read to the same device fit that shape.
func splitTx(tx rtcbus.Transaction) (rtcbus.DeviceAddress, []byte, []byte, error) {
	addr := tx[0].Addr
	switch {
	case len(tx) == 1 && tx[0].Dir == rtcbus.Write:
		return addr, tx[0].Buf, nil, nil
	case len(tx) == 1 && tx[0].Dir == rtcbus.Read:
		return addr, nil, tx[0].Buf, nil
	case len(tx) == 2 && tx[0].Dir == rtcbus.Write && tx[1].Dir == rtcbus.Read && tx[1].Addr == addr:
		return addr, tx[0].Buf, tx[1].Buf, nil
	}
	return 0, nil, nil, fmt.Errorf("%w: only write, read or write-then-read to one device is supported", rtcbus.ErrInvalidRequest)
}

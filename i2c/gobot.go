package i2c

import (
	"context"
	"fmt"
	"io/fs"
	"sync"

	gobot "gobot.io/x/gobot/v2/drivers/i2c"

	"github.com/mklimuk/rtcbus"
)

var _ rtcbus.SubmitCloser = &GobotBus{}

// GobotBus submits register reads through a gobot I2C connector. Only the
// one-byte register read shape is supported: it maps onto SMBus read byte
// data, which the kernel runs as a write and a read joined by a repeated
// START.
type GobotBus struct {
	mx        sync.Mutex
	connector gobot.Connector
	busNr     int
	conns     map[rtcbus.DeviceAddress]gobot.Connection
	closed    bool
}

// NewGobotBus uses bus number busNr of the connector; a negative busNr
// picks the connector's default bus.
func NewGobotBus(connector gobot.Connector, busNr int) *GobotBus {
	if busNr < 0 {
		busNr = connector.DefaultI2cBus()
	}
	return &GobotBus{
		connector: connector,
		busNr:     busNr,
		conns:     map[rtcbus.DeviceAddress]gobot.Connection{},
	}
}

func (b *GobotBus) Submit(ctx context.Context, tx rtcbus.Transaction) (int, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	if len(tx) != 2 || tx[0].Dir != rtcbus.Write || tx[1].Dir != rtcbus.Read ||
		len(tx[0].Buf) != 1 || len(tx[1].Buf) != 1 || tx[0].Addr != tx[1].Addr {
		return 0, fmt.Errorf("%w: gobot bus only supports single byte register reads", rtcbus.ErrInvalidRequest)
	}
	b.mx.Lock()
	defer b.mx.Unlock()
	if b.closed {
		return 0, rtcbus.Unavailable(fs.ErrClosed)
	}
	conn, err := b.connection(tx[0].Addr)
	if err != nil {
		return 0, err
	}
	val, err := conn.ReadByteData(tx[0].Buf[0])
	if err != nil {
		return 0, rtcbus.Failed(fmt.Errorf("read byte data from %s: %w", tx[0].Addr, err))
	}
	tx[1].Buf[0] = val
	return len(tx), nil
}

func (b *GobotBus) connection(addr rtcbus.DeviceAddress) (gobot.Connection, error) {
	if conn, ok := b.conns[addr]; ok {
		return conn, nil
	}
	conn, err := b.connector.GetI2cConnection(int(addr), b.busNr)
	if err != nil {
		return nil, rtcbus.Unavailable(fmt.Errorf("could not get connection to %s on bus %d: %w", addr, b.busNr, err))
	}
	b.conns[addr] = conn
	return conn, nil
}

// Close closes the device connections opened so far. The connector itself
// belongs to the caller.
func (b *GobotBus) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	if b.closed {
		return fs.ErrClosed
	}
	b.closed = true
	var firstErr error
	for addr, conn := range b.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("could not close connection to %s: %w", addr, err)
		}
	}
	b.conns = nil
	return firstErr
}

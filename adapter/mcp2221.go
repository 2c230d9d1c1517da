package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"github.com/karalabe/hid"

	"github.com/mklimuk/rtcbus"
	"github.com/mklimuk/rtcbus/busctx"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

// HID report commands
const (
	cmdStatus            = 0x10
	cmdGetI2CData        = 0x40
	cmdWriteData         = 0x90
	cmdReadData          = 0x91
	cmdReadDataRepStart  = 0x93
	cmdWriteDataNoStop   = 0x94
	statusCancelTransfer = 0x10
)

// I2C engine states reported in byte 8 of the status response
const (
	stateAddrNack     = 0x25
	stateStartTimeout = 0x12
	stateRStartTout   = 0x17
	stateWrAddrTout   = 0x23
	stateWrDataTout   = 0x44
	stateRdDataTout   = 0x52
	stateStopTimeout  = 0x62
)

const reportSize = 64

// maxPayload is the largest data block one HID report carries.
const maxPayload = 60

var ErrCommandFailed = errors.New("command failed")
var ErrNack = errors.New("address not acknowledged")

type hidDevice interface {
	io.ReadWriteCloser
}

// MCP2221 is a Microchip MCP2221 USB-to-I2C bridge. Transactions are
// executed with "write data no STOP" and "read data repeated START" so the
// bus is held between the messages.
type MCP2221 struct {
	mx           sync.Mutex
	request      []byte
	response     []byte
	responseWait time.Duration
	open         func(ctx context.Context) (hidDevice, error)
	closed       bool
}

type MCP2221Status struct {
	I2CState               int    `yaml:"i2c_state"`
	I2CDataBufferCounter   int    `yaml:"i2c_data_buffer_counter"`
	I2CSpeedDivider        int    `yaml:"i2c_speed_divider"`
	I2CTimeout             int    `yaml:"i2c_timeout"`
	CurrentAddress         string `yaml:"current_address"`
	LastWriteRequestedSize uint16 `yaml:"last_write_requested_size"`
	LastWriteSentSize      uint16 `yaml:"last_write_sent_size"`
	ReadPending            int    `yaml:"read_pending"`
}

type MCP2221Opt func(*MCP2221)

// WithResponseWait sets how long to wait between sending a report and
// reading the answer.
func WithResponseWait(wait time.Duration) MCP2221Opt {
	return func(d *MCP2221) {
		d.responseWait = wait
	}
}

func withOpener(open func(ctx context.Context) (hidDevice, error)) MCP2221Opt {
	return func(d *MCP2221) {
		d.open = open
	}
}

func NewMCP2221(opts ...MCP2221Opt) *MCP2221 {
	d := &MCP2221{
		request:      make([]byte, reportSize),
		response:     make([]byte, reportSize),
		responseWait: 50 * time.Millisecond,
		open:         openHID,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Init checks that the adapter is plugged in.
func (d *MCP2221) Init() error {
	if len(hid.Enumerate(VendorID, ProductID)) == 0 {
		return rtcbus.Unavailable(fmt.Errorf("MCP2221 device not found"))
	}
	return nil
}

func (d *MCP2221) Submit(ctx context.Context, tx rtcbus.Transaction) (int, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	for i, m := range tx {
		if len(m.Buf) > maxPayload {
			return 0, fmt.Errorf("%w: message %d exceeds %d bytes", rtcbus.ErrInvalidRequest, i, maxPayload)
		}
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.closed {
		return 0, rtcbus.Unavailable(fs.ErrClosed)
	}
	for i, m := range tx {
		last := i == len(tx)-1
		var err error
		switch m.Dir {
		case rtcbus.Write:
			err = d.write(ctx, m, last)
		case rtcbus.Read:
			err = d.read(ctx, m, i > 0)
		}
		if err != nil {
			return i, err
		}
	}
	return len(tx), nil
}

func (d *MCP2221) write(ctx context.Context, m rtcbus.Message, last bool) error {
	d.resetBuffers()
	d.request[0] = cmdWriteDataNoStop
	if last {
		d.request[0] = cmdWriteData
	}
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(m.Buf)))
	d.request[3] = byte(m.Addr) << 1
	copy(d.request[4:], m.Buf)
	err := d.send(ctx)
	if err != nil {
		return fmt.Errorf("write to %s failed: %w", m.Addr, err)
	}
	if d.response[1] != 0x00 {
		return rtcbus.Failed(rtcbus.ErrBusBusy)
	}
	return d.checkState(ctx, m.Addr)
}

func (d *MCP2221) read(ctx context.Context, m rtcbus.Message, repeatedStart bool) error {
	d.resetBuffers()
	d.request[0] = cmdReadData
	if repeatedStart {
		d.request[0] = cmdReadDataRepStart
	}
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(m.Buf)))
	d.request[3] = byte(m.Addr)<<1 | 0x01
	err := d.send(ctx)
	if err != nil {
		return fmt.Errorf("bus read from %s failed: %w", m.Addr, err)
	}
	if d.response[1] != 0x00 {
		// a preceding write without STOP still holds the bus
		if repeatedStart {
			d.cancel(ctx)
		}
		return rtcbus.Failed(rtcbus.ErrBusBusy)
	}
	d.resetBuffers()
	d.request[0] = cmdGetI2CData
	err = d.send(ctx)
	if err != nil {
		return fmt.Errorf("error getting read data from adapter: %w", err)
	}
	if d.response[1] != 0x00 || d.response[3] == 127 {
		d.cancel(ctx)
		return rtcbus.Failed(fmt.Errorf("%w: error reading data of %s from the I2C engine", ErrNack, m.Addr))
	}
	if int(d.response[3]) != len(m.Buf) {
		return rtcbus.Failed(fmt.Errorf("invalid data size byte; expected %d, got %d", len(m.Buf), d.response[3]))
	}
	copy(m.Buf, d.response[4:4+len(m.Buf)])
	return nil
}

// checkState reads the engine state after a write and frees the bus when
// the device did not answer.
func (d *MCP2221) checkState(ctx context.Context, addr rtcbus.DeviceAddress) error {
	d.resetBuffers()
	d.request[0] = cmdStatus
	err := d.send(ctx)
	if err != nil {
		return fmt.Errorf("status request failed: %w", err)
	}
	switch state := d.response[8]; state {
	case stateAddrNack:
		d.cancel(ctx)
		return rtcbus.Failed(fmt.Errorf("%w: %s", ErrNack, addr))
	case stateStartTimeout, stateRStartTout, stateWrAddrTout, stateWrDataTout, stateRdDataTout, stateStopTimeout:
		d.cancel(ctx)
		return rtcbus.Failed(fmt.Errorf("I2C engine timeout (state %#x)", state))
	}
	return nil
}

func (d *MCP2221) cancel(ctx context.Context) {
	if _, err := d.releaseBus(ctx); err != nil {
		slog.Debug("could not cancel I2C transfer", "error", err)
	}
}

func (d *MCP2221) Status(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	err := d.send(ctx)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func bufferToStatus(buffer []byte) *MCP2221Status {
	/*
		8: I2C engine state
		9-10: requested I2C transfer length
		11-12: already transferred number of bytes
		13: internal I2C data buffer counter
		14: I2C communication speed divider
		15: I2C timeout value
		16-17: I2C address being used
		25: read pending
	*/
	return &MCP2221Status{
		I2CState:               int(buffer[8]),
		I2CDataBufferCounter:   int(buffer[13]),
		I2CSpeedDivider:        int(buffer[14]),
		I2CTimeout:             int(buffer[15]),
		ReadPending:            int(buffer[25]),
		CurrentAddress:         hex.EncodeToString(buffer[16:18]),
		LastWriteRequestedSize: binary.LittleEndian.Uint16(buffer[9:11]),
		LastWriteSentSize:      binary.LittleEndian.Uint16(buffer[11:13]),
	}
}

// ReleaseBus cancels the current transfer and returns the bus to idle.
func (d *MCP2221) ReleaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.releaseBus(ctx)
}

func (d *MCP2221) releaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.resetBuffers()
	d.request[0] = cmdStatus
	d.request[2] = statusCancelTransfer
	err := d.send(ctx)
	if err != nil {
		return nil, fmt.Errorf("cancel request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

// Close makes further submissions fail. The HID device is only held open
// for the duration of a single report exchange.
func (d *MCP2221) Close() error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.closed {
		return fs.ErrClosed
	}
	d.closed = true
	return nil
}

func (d *MCP2221) send(ctx context.Context) error {
	dev, err := d.open(ctx)
	if err != nil {
		return rtcbus.Unavailable(err)
	}
	defer func() {
		if err := dev.Close(); err != nil {
			slog.Debug("could not close HID device", "error", err)
		}
	}()
	verbose := busctx.IsVerbose(ctx)
	if verbose {
		slog.Debug("sending message to adapter", "report", hex.Dump(d.request))
	}
	n, err := dev.Write(d.request)
	if err != nil {
		return rtcbus.Unavailable(fmt.Errorf("could not write request: %w", err))
	}
	if n != reportSize {
		return fmt.Errorf("short write: %d", n)
	}
	if d.responseWait > 0 {
		time.Sleep(d.responseWait)
	}
	n, err = dev.Read(d.response)
	if err != nil {
		return rtcbus.Unavailable(fmt.Errorf("could not read response: %w", err))
	}
	if n != reportSize {
		return fmt.Errorf("short read: %d", n)
	}
	if d.response[0] != d.request[0] {
		return fmt.Errorf("%w: response to %#x echoes %#x", ErrCommandFailed, d.request[0], d.response[0])
	}
	if verbose {
		slog.Debug("read message from adapter", "report", hex.Dump(d.response))
	}
	return nil
}

func openHID(ctx context.Context) (hidDevice, error) {
	devs := hid.Enumerate(VendorID, ProductID)
	id, selected := busctx.DeviceID(ctx)
	switch {
	case len(devs) == 0:
		return nil, fmt.Errorf("MCP2221 device not found")
	case len(devs) > 1 && !selected:
		return nil, fmt.Errorf("ambiguous device identification")
	case !selected:
		id = 0
	case id < 0 || id >= len(devs):
		return nil, fmt.Errorf("no device with id %d", id)
	}
	dev, err := devs[id].Open()
	if err != nil {
		return nil, fmt.Errorf("error opening device: %w", err)
	}
	return dev, nil
}

func (d *MCP2221) resetBuffers() {
	clear(d.request)
	clear(d.response)
}

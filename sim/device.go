// Package sim provides an in-memory I2C bus and register device that
// behave like a real RTC on a Linux i2c-dev controller.
package sim

import (
	"sync"
)

// Device is a peripheral with 256 8-bit registers and an auto-incrementing
// register pointer. The first byte of every write sets the pointer, further
// bytes are stored from there on. Reads return bytes from the pointer.
type Device struct {
	mx          sync.Mutex
	regs        [256]byte
	pointer     byte
	resetOnStop bool
	nackAddress bool
	nackRead    bool
	nackRegs    map[byte]bool
}

type DeviceOpt func(*Device)

func WithRegister(index, value byte) DeviceOpt {
	return func(d *Device) {
		d.regs[index] = value
	}
}

func WithRegisters(values map[byte]byte) DeviceOpt {
	return func(d *Device) {
		for index, value := range values {
			d.regs[index] = value
		}
	}
}

// WithResetOnStop makes the device move its pointer back to 0 on every
// STOP condition, like parts that lose the pointer when the bus is released.
func WithResetOnStop() DeviceOpt {
	return func(d *Device) {
		d.resetOnStop = true
	}
}

// WithNackOnAddress makes the device ignore its address entirely.
func WithNackOnAddress() DeviceOpt {
	return func(d *Device) {
		d.nackAddress = true
	}
}

// WithNackOnRegister makes the device refuse index as a register pointer.
func WithNackOnRegister(index byte) DeviceOpt {
	return func(d *Device) {
		d.nackRegs[index] = true
	}
}

// WithNackOnRead makes the device refuse its read address while still
// accepting writes.
func WithNackOnRead() DeviceOpt {
	return func(d *Device) {
		d.nackRead = true
	}
}

func NewDevice(opts ...DeviceOpt) *Device {
	d := &Device{nackRegs: map[byte]bool{}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Device) Register(index byte) byte {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.regs[index]
}

func (d *Device) SetRegister(index, value byte) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.regs[index] = value
}

func (d *Device) Pointer() byte {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.pointer
}

// SetPointer moves the register pointer as a previous transaction would have.
func (d *Device) SetPointer(index byte) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.pointer = index
}

// write handles a write phase addressed to the device and reports whether
// every byte was acknowledged.
func (d *Device) write(data []byte) bool {
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.nackAddress {
		return false
	}
	if len(data) == 0 {
		return true
	}
	if d.nackRegs[data[0]] {
		return false
	}
	d.pointer = data[0]
	for _, b := range data[1:] {
		d.regs[d.pointer] = b
		d.pointer++
	}
	return true
}

func (d *Device) read(buf []byte) bool {
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.nackAddress || d.nackRead {
		return false
	}
	for i := range buf {
		buf[i] = d.regs[d.pointer]
		d.pointer++
	}
	return true
}

func (d *Device) stop() {
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.resetOnStop {
		d.pointer = 0
	}
}

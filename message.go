package rtcbus

import (
	"fmt"
)

// DefaultAddress is the bus address of the RTC.
const DefaultAddress DeviceAddress = 0x34

// MaxMessages is the largest number of messages the Linux i2c-dev driver
// accepts in one I2C_RDWR call.
const MaxMessages = 42

const maxMessageLen = 1<<16 - 1

// DeviceAddress is a 7-bit I2C peripheral address.
type DeviceAddress uint16

func (a DeviceAddress) String() string {
	return fmt.Sprintf("0x%02x", uint16(a))
}

func (a DeviceAddress) Validate() error {
	if a == 0 || a > 0x7F {
		return fmt.Errorf("%w: %s", ErrInvalidAddress, a)
	}
	return nil
}

type Direction byte

const (
	Write Direction = iota
	Read
)

func (d Direction) String() string {
	switch d {
	case Write:
		return "W"
	case Read:
		return "R"
	default:
		return "?"
	}
}

// Message is one phase of a transaction. For writes the controller reads
// Buf during submission; for reads it fills Buf in place.
type Message struct {
	Addr DeviceAddress
	Dir  Direction
	Buf  []byte
}

func WriteMessage(addr DeviceAddress, data []byte) Message {
	buf := make([]byte, len(data))
	copy(buf, data)
	return Message{Addr: addr, Dir: Write, Buf: buf}
}

func ReadMessage(addr DeviceAddress, n int) Message {
	return Message{Addr: addr, Dir: Read, Buf: make([]byte, n)}
}

// Transaction is an ordered list of messages executed as one bus
// transaction: a single START, repeated STARTs between messages and one
// STOP at the end.
type Transaction []Message

// NewRegisterRead builds the register-select write followed by an n-byte
// read from the same device.
func NewRegisterRead(addr DeviceAddress, index []byte, n int) Transaction {
	return Transaction{
		WriteMessage(addr, index),
		ReadMessage(addr, n),
	}
}

// Validate checks the transaction against what every submitter can execute.
func (tx Transaction) Validate() error {
	if len(tx) == 0 {
		return fmt.Errorf("%w: no messages", ErrInvalidRequest)
	}
	if len(tx) > MaxMessages {
		return fmt.Errorf("%w: %d messages, at most %d allowed", ErrInvalidRequest, len(tx), MaxMessages)
	}
	for i, m := range tx {
		if err := m.Addr.Validate(); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
		if m.Dir != Write && m.Dir != Read {
			return fmt.Errorf("%w: message %d has unknown direction %d", ErrInvalidRequest, i, m.Dir)
		}
		if len(m.Buf) == 0 {
			return fmt.Errorf("%w: message %d is empty", ErrInvalidRequest, i)
		}
		if len(m.Buf) > maxMessageLen {
			return fmt.Errorf("%w: message %d is %d bytes long", ErrInvalidRequest, i, len(m.Buf))
		}
	}
	return nil
}

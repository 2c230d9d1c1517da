package i2c

import (
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/mklimuk/rtcbus"
)

var _ rtcbus.SubmitCloser = &Bus{}

// Bus is an open Linux i2c-dev character device (/dev/i2c-N). Every
// Submit is a single I2C_RDWR call, so the controller keeps the bus between
// the messages of a transaction. Submissions on one Bus are serialized.
type Bus struct {
	mx   sync.Mutex
	f    *os.File
	path string
}

func Open(path string) (*Bus, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, rtcbus.Unavailable(fmt.Errorf("could not open i2c bus: %w", err))
	}
	return &Bus{f: f, path: path}, nil
}

func OpenIndex(index int) (*Bus, error) {
	return Open(DevicePath(index))
}

// NewBus wraps a file that is already open. The Bus takes ownership of f.
func NewBus(f *os.File) *Bus {
	return &Bus{f: f, path: f.Name()}
}

func DevicePath(index int) string {
	return fmt.Sprintf("/dev/i2c-%d", index)
}

func (b *Bus) String() string {
	return b.path
}

func (b *Bus) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	if b.f == nil {
		return fs.ErrClosed
	}
	err := b.f.Close()
	b.f = nil
	return err
}

//go:build integration && linux

package i2c

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/rtcbus"
)

// RTCBUS_DEVICE selects the bus node, /dev/i2c-0 by default. The RTC is
// expected at the default address.
func TestBus_ReadRegisterHardware(t *testing.T) {
	path := os.Getenv("RTCBUS_DEVICE")
	if path == "" {
		path = DevicePath(0)
	}
	if _, err := os.Stat(path); err != nil {
		t.Skipf("no i2c bus at %s", path)
	}
	bus, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = bus.Close() }()

	ok, err := bus.SupportsCombined()
	require.NoError(t, err)
	require.True(t, ok)

	ctx := context.Background()
	first, err := rtcbus.ReadRegister(ctx, bus, rtcbus.DefaultAddress, 0x02)
	require.NoError(t, err)
	// the control register holds still between two reads
	second, err := rtcbus.ReadRegister(ctx, bus, rtcbus.DefaultAddress, 0x02)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = rtcbus.ReadRegister(ctx, bus, 0x7F, 0x02)
	assert.ErrorIs(t, err, rtcbus.ErrTransferFailed)
}

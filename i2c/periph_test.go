package i2c

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/mklimuk/rtcbus"
)

func TestPeriphBus_ReadRegister(t *testing.T) {
	playback := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x34, W: []byte{0x02}, R: []byte{0x1E}},
			{Addr: 0x34, W: []byte{0x02}, R: []byte{0x1E}},
		},
		DontPanic: true,
	}
	bus := NewPeriphBus(playback)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		val, err := rtcbus.ReadRegister(ctx, bus, 0x34, 2)
		require.NoError(t, err)
		assert.Equal(t, byte(0x1E), val)
	}
	require.NoError(t, bus.Close())
}

func TestPeriphBus_TxError(t *testing.T) {
	playback := &i2ctest.Playback{
		Ops:       []i2ctest.IO{{Addr: 0x34, W: []byte{0x03}, R: []byte{0x00}}},
		DontPanic: true,
	}
	bus := NewPeriphBus(playback)

	val, err := rtcbus.ReadRegister(context.Background(), bus, 0x34, 2)
	assert.ErrorIs(t, err, rtcbus.ErrTransferFailed)
	assert.Zero(t, val)
}

func TestPeriphBus_Closed(t *testing.T) {
	bus := NewPeriphBus(&i2ctest.Playback{DontPanic: true})
	require.NoError(t, bus.Close())
	assert.Equal(t, "closed", bus.String())

	_, err := rtcbus.ReadRegister(context.Background(), bus, 0x34, 2)
	assert.ErrorIs(t, err, rtcbus.ErrDeviceUnavailable)
}

func TestSplitTx(t *testing.T) {
	tests := []struct {
		name string
		tx   rtcbus.Transaction
		w, r int
		ok   bool
	}{
		{"write", rtcbus.Transaction{rtcbus.WriteMessage(0x34, []byte{1, 2})}, 2, 0, true},
		{"read", rtcbus.Transaction{rtcbus.ReadMessage(0x34, 3)}, 0, 3, true},
		{"register read", rtcbus.NewRegisterRead(0x34, []byte{2}, 1), 1, 1, true},
		{"read then write", rtcbus.Transaction{rtcbus.ReadMessage(0x34, 1), rtcbus.WriteMessage(0x34, []byte{1})}, 0, 0, false},
		{"two devices", rtcbus.Transaction{rtcbus.WriteMessage(0x34, []byte{1}), rtcbus.ReadMessage(0x35, 1)}, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, w, r, err := splitTx(tt.tx)
			if !tt.ok {
				assert.ErrorIs(t, err, rtcbus.ErrInvalidRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, rtcbus.DeviceAddress(0x34), addr)
			assert.Len(t, w, tt.w)
			assert.Len(t, r, tt.r)
		})
	}
}

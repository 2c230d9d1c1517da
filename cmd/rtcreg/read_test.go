package main

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/rtcbus"
	"github.com/mklimuk/rtcbus/cmd/rtcreg/console"
	"github.com/mklimuk/rtcbus/sim"
)

func TestExitCode(t *testing.T) {
	closed := sim.NewBus(sim.WithDevice(0x34, sim.NewDevice()))
	require.NoError(t, closed.Close())

	tests := []struct {
		name string
		bus  rtcbus.Submitter
		code int
	}{
		{"register nack", sim.NewBus(sim.WithDevice(0x34, sim.NewDevice(sim.WithNackOnRegister(2)))), 3},
		{"no device", sim.NewBus(), 3},
		{"closed bus", closed, 2},
		{"no bus", nil, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rtcbus.ReadRegister(context.Background(), tt.bus, 0x34, 2)
			require.Error(t, err)
			assert.Equal(t, tt.code, exitCode(err))
		})
	}
	assert.Equal(t, 1, exitCode(errors.New("unknown adapter")))
}

func TestShell_Sim(t *testing.T) {
	console.SetInput(io.NopCloser(strings.NewReader("0x02\n5\n0x100\nq\n")))
	t.Cleanup(func() { console.SetInput(nil) })

	code, out, errOut := runCLI(t, "shell", "--adapter", "sim")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Index 2: 0x1E\n")
	assert.Contains(t, out, "Index 5: 0x10\n")
	assert.Contains(t, errOut, "does not fit in a byte")
}

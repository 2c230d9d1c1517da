package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/nanopi"

	"github.com/mklimuk/rtcbus"
	"github.com/mklimuk/rtcbus/adapter"
	"github.com/mklimuk/rtcbus/busctx"
	"github.com/mklimuk/rtcbus/cmd/rtcreg/console"
	"github.com/mklimuk/rtcbus/config"
	"github.com/mklimuk/rtcbus/i2c"
	"github.com/mklimuk/rtcbus/sim"
)

// snapshot is the register file of the simulated RTC.
var snapshot = map[byte]byte{
	0x00: 0x45,
	0x01: 0x30,
	0x02: 0x1E,
	0x03: 0x02,
	0x04: 0x16,
	0x05: 0x10,
	0x06: 0x26,
	0x0E: 0x1C,
}

var busFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "adapter",
		Aliases: []string{"a"},
		Usage:   "bus adapter: dev, periph, gobot, mcp2221 or sim",
	},
	&cli.StringFlag{
		Name:    "device",
		Aliases: []string{"d"},
		Usage:   "i2c character device (dev and periph adapters)",
	},
	&cli.IntFlag{
		Name:  "bus",
		Usage: "i2c bus number (gobot adapter)",
	},
	&cli.IntFlag{
		Name:  "usb-id",
		Usage: "index of the MCP2221 to use when more than one is connected",
		Value: -1,
	},
	&cli.StringFlag{
		Name:  "addr",
		Usage: "7-bit device address",
	},
	&cli.StringFlag{
		Name:    "reg",
		Aliases: []string{"r"},
		Usage:   "register index",
	},
}

// settings merges the command line over the loaded configuration.
func settings(c *cli.Context) (config.Config, error) {
	res := cfg
	if c.IsSet("adapter") {
		res.Adapter = c.String("adapter")
	}
	if c.IsSet("device") {
		res.Device = c.String("device")
	}
	if c.IsSet("bus") {
		res.Bus = c.Int("bus")
	}
	if c.IsSet("addr") {
		v, err := config.ParseHexNumber(c.String("addr"))
		if err != nil {
			return res, fmt.Errorf("invalid address: %w", err)
		}
		res.Address = v
	}
	if c.IsSet("reg") {
		v, err := config.ParseHexNumber(c.String("reg"))
		if err != nil {
			return res, fmt.Errorf("invalid register: %w", err)
		}
		res.Register = v
	}
	if c.IsSet("output") {
		res.Output = c.String("output")
	}
	return res, res.Validate()
}

func commandContext(c *cli.Context) context.Context {
	ctx := busctx.SetVerbose(c.Context, c.Bool("verbose"))
	if id := c.Int("usb-id"); id >= 0 {
		ctx = busctx.SetDeviceID(ctx, id)
	}
	return ctx
}

// openBus returns the handle selected by s. The caller owns it and must
// close it on every path.
func openBus(s config.Config) (rtcbus.SubmitCloser, error) {
	switch s.Adapter {
	case config.AdapterDev:
		bus, err := i2c.Open(s.Device)
		if err != nil {
			return nil, err
		}
		if ok, err := bus.SupportsCombined(); err == nil && !ok {
			slog.Warn("adapter does not report plain I2C support, combined transfers may be rejected", "device", s.Device)
		}
		return bus, nil
	case config.AdapterPeriph:
		return i2c.OpenPeriph(s.Device)
	case config.AdapterGobot:
		npi := nanopi.NewNeoAdaptor()
		if err := npi.I2cBusAdaptor.Connect(); err != nil {
			return nil, rtcbus.Unavailable(fmt.Errorf("adaptor connect error: %w", err))
		}
		return &gobotCloser{GobotBus: i2c.NewGobotBus(npi, s.Bus), finalize: npi.I2cBusAdaptor.Finalize}, nil
	case config.AdapterMCP2221:
		a := adapter.NewMCP2221()
		if err := a.Init(); err != nil {
			return nil, err
		}
		return a, nil
	case config.AdapterSim:
		return sim.NewBus(sim.WithDevice(rtcbus.DeviceAddress(s.Address), sim.NewDevice(sim.WithRegisters(snapshot)))), nil
	}
	return nil, fmt.Errorf("unknown adapter %q", s.Adapter)
}

type gobotCloser struct {
	*i2c.GobotBus
	finalize func() error
}

func (g *gobotCloser) Close() error {
	return errors.Join(g.GobotBus.Close(), g.finalize())
}

func closeBus(bus rtcbus.SubmitCloser) {
	if err := bus.Close(); err != nil {
		console.Errorf("error closing bus: %s", console.Red(err))
	}
}

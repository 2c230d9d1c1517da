package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/rtcbus"
	"github.com/mklimuk/rtcbus/cmd/rtcreg/console"
	"github.com/mklimuk/rtcbus/config"
)

type readResult struct {
	Device      string                  `yaml:"device"`
	Address     string                  `yaml:"address"`
	Register    string                  `yaml:"register"`
	Value       string                  `yaml:"value"`
	Transaction []rtcbus.MessageSummary `yaml:"transaction,omitempty"`
}

var readCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"rd"},
	Usage:   "read one register with a combined write/read transaction",
	Flags: append([]cli.Flag{
		&cli.BoolFlag{
			Name:  "dump",
			Usage: "print the submitted transaction",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: text or yaml",
		},
	}, busFlags...),
	Action: func(c *cli.Context) error {
		s, err := settings(c)
		if err != nil {
			return console.Exit(1, "", err)
		}
		bus, err := openBus(s)
		if err != nil {
			return console.Exit(1, "adapter initialization error", err)
		}
		defer closeBus(bus)

		addr := rtcbus.DeviceAddress(s.Address)
		reg := byte(s.Register)
		tx, err := rtcbus.SubmitRegisterRead(commandContext(c), bus, addr, []byte{reg})
		if err != nil {
			return console.Exit(exitCode(err), "error reading register", err)
		}
		val := tx[1].Buf[0]
		if !c.Bool("dump") {
			tx = nil
		}
		return printValue(s, reg, val, tx)
	},
}

var dumpCmd = cli.Command{
	Name:  "dump",
	Usage: "print the transaction read would submit, without touching the bus",
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: text or yaml",
		},
	}, busFlags...),
	Action: func(c *cli.Context) error {
		s, err := settings(c)
		if err != nil {
			return console.Exit(1, "", err)
		}
		tx := rtcbus.NewRegisterRead(rtcbus.DeviceAddress(s.Address), []byte{byte(s.Register)}, 1)
		if s.Output == config.OutputYAML {
			return encodeYAML(tx.Summary())
		}
		console.Printf("%s", rtcbus.Dump(tx))
		return nil
	},
}

func printValue(s config.Config, reg byte, val byte, tx rtcbus.Transaction) error {
	if s.Output == config.OutputYAML {
		res := readResult{
			Device:   s.Device,
			Address:  rtcbus.DeviceAddress(s.Address).String(),
			Register: fmt.Sprintf("0x%02x", reg),
			Value:    fmt.Sprintf("0x%02x", val),
		}
		if tx != nil {
			res.Transaction = tx.Summary()
		}
		return encodeYAML(res)
	}
	console.Printf("Index %d: %s\n", reg, console.Byte(val))
	if tx != nil {
		console.Printf("%s", rtcbus.Dump(tx))
	}
	return nil
}

func encodeYAML(v interface{}) error {
	enc := yaml.NewEncoder(console.Writer())
	defer func() { _ = enc.Close() }()
	if err := enc.Encode(v); err != nil {
		return console.Exit(1, "encoding error", err)
	}
	return nil
}

// exitCode tells a dead handle (2) apart from a failed transfer (3).
func exitCode(err error) int {
	switch {
	case errors.Is(err, rtcbus.ErrDeviceUnavailable):
		return 2
	case errors.Is(err, rtcbus.ErrTransferFailed):
		return 3
	default:
		return 1
	}
}

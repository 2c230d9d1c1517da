package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/rtcbus"
	"github.com/mklimuk/rtcbus/cmd/rtcreg/console"
	"github.com/mklimuk/rtcbus/config"
)

var shellCmd = cli.Command{
	Name:  "shell",
	Usage: "read registers interactively, one index per line",
	Flags: busFlags,
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

		ctx := commandContext(c)
		addr := rtcbus.DeviceAddress(s.Address)
		console.Printf("%s reading from %s on %s, type q to quit\n", console.PictoClock, console.White(addr), console.White(s.Adapter))
		err = console.Shell(fmt.Sprintf("%s> ", addr), func(line string) error {
			reg, err := config.ParseHexNumber(line)
			if err != nil {
				return err
			}
			if reg > 0xFF {
				return fmt.Errorf("register %s does not fit in a byte", reg)
			}
			val, err := rtcbus.ReadRegister(ctx, bus, addr, byte(reg))
			if err != nil {
				return err
			}
			console.Printf("Index %d: %s\n", byte(reg), console.Byte(val))
			return nil
		})
		if err != nil {
			return console.Exit(1, "shell error", err)
		}
		return nil
	},
}

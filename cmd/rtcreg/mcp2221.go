package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/rtcbus/adapter"
	"github.com/mklimuk/rtcbus/cmd/rtcreg/console"
)

var mcp2221Cmd = cli.Command{
	Name:  "mcp2221",
	Usage: "inspect the MCP2221 USB bridge",
	Subcommands: []*cli.Command{
		&mcp2221StatusCmd,
		&mcp2221ReleaseCmd,
	},
}

var mcp2221StatusCmd = cli.Command{
	Name: "status",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "usb-id", Value: -1},
	},
	Action: func(c *cli.Context) error {
		status, err := adapter.NewMCP2221().Status(commandContext(c))
		if err != nil {
			return console.Exit(1, "adapter communication error", err)
		}
		return encodeYAML(status)
	},
}

var mcp2221ReleaseCmd = cli.Command{
	Name:  "release",
	Usage: "cancel a pending transfer and release the bus",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "usb-id", Value: -1},
	},
	Action: func(c *cli.Context) error {
		status, err := adapter.NewMCP2221().ReleaseBus(commandContext(c))
		if err != nil {
			return console.Exit(1, "adapter communication error", err)
		}
		return encodeYAML(status)
	},
}

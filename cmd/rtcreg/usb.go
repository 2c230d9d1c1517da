package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/karalabe/hid"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/rtcbus/adapter"
	"github.com/mklimuk/rtcbus/cmd/rtcreg/console"
)

var usbCmd = cli.Command{
	Name:  "usb",
	Usage: "list USB HID devices",
	Subcommands: []*cli.Command{
		&usbLsCmd,
		&usbDetectCmd,
	},
}

var usbLsCmd = cli.Command{
	Name: "ls",
	Action: func(c *cli.Context) error {
		w := tabwriter.NewWriter(console.Writer(), 24, 0, 1, ' ', 0)
		_, _ = fmt.Fprintf(w, "PATH\tSERIAL\tVENDOR\tPRODUCT ID\tMANUFACTURER\tPRODUCT\n")
		for _, dev := range hid.Enumerate(0, 0) {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%#x\t%#x\t%s\t%s\n",
				dev.Path, dev.Serial, dev.VendorID, dev.ProductID, dev.Manufacturer, dev.Product)
		}
		return w.Flush()
	},
}

var usbDetectCmd = cli.Command{
	Name:  "detect",
	Usage: "list connected MCP2221 bridges with the id to pass as --usb-id",
	Action: func(c *cli.Context) error {
		w := tabwriter.NewWriter(console.Writer(), 12, 0, 1, ' ', 0)
		_, _ = fmt.Fprintf(w, "ID\tVENDOR\tPRODUCT\tSERIAL\tPATH\n")
		for i, dev := range hid.Enumerate(adapter.VendorID, adapter.ProductID) {
			_, _ = fmt.Fprintf(w, "%d\t%#x\t%#x\t%s\t%s\n", i, dev.VendorID, dev.ProductID, dev.Serial, dev.Path)
		}
		return w.Flush()
	},
}

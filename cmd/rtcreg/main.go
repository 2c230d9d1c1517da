package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/rtcbus/cmd/rtcreg/console"
	"github.com/mklimuk/rtcbus/config"
)

var cfg = config.Default()

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	app := cli.NewApp()
	app.Name = "rtcreg"
	app.EnableBashCompletion = true
	app.Version = config.Version
	app.Usage = "read RTC registers over I2C"
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable verbose logging and bus dumps",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "path to a YAML configuration file",
			Value: "rtcreg.yaml",
		},
	}
	app.Before = func(c *cli.Context) error {
		console.SetupLogging(c.Bool("verbose"))
		loaded, err := config.Load(c.String("config"))
		if err != nil {
			return console.Exit(1, "configuration error", err)
		}
		cfg = loaded
		slog.Debug("configuration loaded", "adapter", cfg.Adapter, "device", cfg.Device, "address", cfg.Address, "register", cfg.Register)
		return nil
	}
	// exit codes are handled below instead of inside the app
	app.ExitErrHandler = func(c *cli.Context, err error) {}
	app.Commands = cli.Commands{
		&readCmd,
		&dumpCmd,
		&shellCmd,
		&mcp2221Cmd,
		&usbCmd,
	}
	err := app.Run(args)
	if err != nil {
		var exerr cli.ExitCoder
		console.Errorf("%s", err)
		if errors.As(err, &exerr) {
			return exerr.ExitCode()
		}
		return 1
	}
	return 0
}

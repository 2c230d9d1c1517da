// Package config holds the rtcreg settings shared by every command.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/rtcbus"
)

// Version is injected at build time.
var Version = "dev"

const (
	AdapterDev     = "dev"
	AdapterPeriph  = "periph"
	AdapterGobot   = "gobot"
	AdapterMCP2221 = "mcp2221"
	AdapterSim     = "sim"

	OutputText = "text"
	OutputYAML = "yaml"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	// Adapter selects the bus handle implementation.
	Adapter string `yaml:"adapter"`
	// Device is the character device used by the dev and periph adapters.
	Device string `yaml:"device"`
	// Bus is the bus number used by the gobot adapter.
	Bus      int       `yaml:"bus"`
	Address  HexNumber `yaml:"address"`
	Register HexNumber `yaml:"register"`
	Output   string    `yaml:"output"`
}

func Default() Config {
	return Config{
		Adapter:  AdapterDev,
		Device:   "/dev/i2c-0",
		Bus:      0,
		Address:  HexNumber(rtcbus.DefaultAddress),
		Register: 0x02,
		Output:   OutputText,
	}
}

// Load reads a YAML file over the defaults. A missing file yields the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("could not read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("could not parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Adapter {
	case AdapterDev, AdapterPeriph, AdapterGobot, AdapterMCP2221, AdapterSim:
	default:
		return fmt.Errorf("%w: unknown adapter %q", ErrInvalidConfig, c.Adapter)
	}
	switch c.Output {
	case OutputText, OutputYAML:
	default:
		return fmt.Errorf("%w: unknown output %q", ErrInvalidConfig, c.Output)
	}
	if err := rtcbus.DeviceAddress(c.Address).Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Register > 0xFF {
		return fmt.Errorf("%w: register %#x does not fit in a byte", ErrInvalidConfig, uint16(c.Register))
	}
	return nil
}

// HexNumber accepts 0x-prefixed hex, 0b binary, 0o octal or decimal.
type HexNumber uint16

func ParseHexNumber(s string) (HexNumber, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("could not parse %q: %w", s, err)
	}
	return HexNumber(v), nil
}

func (h HexNumber) String() string {
	return fmt.Sprintf("0x%02x", uint16(h))
}

func (h HexNumber) MarshalYAML() (interface{}, error) {
	return h.String(), nil
}

func (h *HexNumber) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseHexNumber(node.Value)
	if err != nil {
		return err
	}
	*h = v
	return nil
}

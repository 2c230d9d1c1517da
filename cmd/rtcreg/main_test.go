package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/mklimuk/rtcbus/cmd/rtcreg/console"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	color.NoColor = true
	var out, errOut bytes.Buffer
	console.SetOutput(&out, &errOut)
	t.Cleanup(func() { console.SetOutput(os.Stdout, os.Stderr) })
	cfgPath := filepath.Join(t.TempDir(), "none.yaml")
	code := run(append([]string{"rtcreg", "--config", cfgPath}, args...))
	return code, out.String(), errOut.String()
}

func TestRead_Sim(t *testing.T) {
	code, out, _ := runCLI(t, "read", "--adapter", "sim")
	assert.Equal(t, 0, code)
	assert.Equal(t, "Index 2: 0x1E\n", out)
}

func TestRead_SimRegister(t *testing.T) {
	code, out, _ := runCLI(t, "read", "--adapter", "sim", "--reg", "0x05")
	assert.Equal(t, 0, code)
	assert.Equal(t, "Index 5: 0x10\n", out)
}

func TestRead_SimOtherAddress(t *testing.T) {
	code, out, _ := runCLI(t, "read", "-a", "sim", "--addr", "0x68", "-r", "1", "--dump")
	assert.Equal(t, 0, code)
	assert.Equal(t, "Index 1: 0x30\n#0 W 0x68 len=1 01\n#1 R 0x68 len=1 30\n", out)
}

func TestRead_YAML(t *testing.T) {
	code, out, _ := runCLI(t, "read", "--adapter", "sim", "--output", "yaml", "--dump")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "value:")
	assert.Contains(t, out, "0x1e")
	assert.Contains(t, out, "direction: R")
}

func TestRead_MissingDevice(t *testing.T) {
	code, out, errOut := runCLI(t, "read", "--adapter", "dev", "--device", filepath.Join(t.TempDir(), "i2c-7"))
	assert.Equal(t, 1, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "device unavailable")
}

func TestRead_InvalidAddress(t *testing.T) {
	code, _, errOut := runCLI(t, "read", "--adapter", "sim", "--addr", "0x80")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "invalid device address")
}

func TestDump(t *testing.T) {
	code, out, _ := runCLI(t, "dump")
	assert.Equal(t, 0, code)
	assert.Equal(t, "#0 W 0x34 len=1 02\n#1 R 0x34 len=1 00\n", out)
}

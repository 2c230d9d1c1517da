package console

import (
	"fmt"

	"github.com/fatih/color"
)

// rtcreg palette: errors red, warnings yellow, register values bright white
var (
	Red    = color.New(color.FgRed).SprintFunc()
	Yellow = color.New(color.FgYellow).SprintFunc()
	White  = color.New(color.FgHiWhite).SprintFunc()
)

// Byte renders a register value the way every command prints it.
func Byte(v byte) string {
	return White(fmt.Sprintf("0x%02X", v))
}

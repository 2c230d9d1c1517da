package console

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// Exit ends a command with code, printing err in red after what
// failed, when given.
func Exit(code int, what string, err error) cli.ExitCoder {
	if what == "" {
		return cli.Exit(Red(err), code)
	}
	return cli.Exit(fmt.Sprintf("%s: %s", what, Red(err)), code)
}

package console

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	chlog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

const PictoClock = "🕒"

var writer io.Writer = os.Stdout
var errWriter io.Writer = os.Stderr

func SetOutput(w, errw io.Writer) {
	writer = w
	errWriter = errw
}

func Writer() io.Writer {
	return writer
}

// SetupLogging installs the charm handler as the default slog logger. Logs
// go to stderr so command output stays clean.
func SetupLogging(verbose bool) {
	charm := chlog.NewWithOptions(errWriter, chlog.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Prefix:          "rtcreg",
	})
	charm.SetColorProfile(termenv.TrueColor)
	charm.SetLevel(chlog.InfoLevel)
	if verbose {
		charm.SetLevel(chlog.DebugLevel)
	}
	slog.SetDefault(slog.New(charm))
}

func Errorf(msg string, args ...interface{}) {
	_, _ = fmt.Fprintf(errWriter, "%s: %s\n", Red("ERROR"), fmt.Sprintf(msg, args...))
}

func Warnf(msg string, args ...interface{}) {
	_, _ = fmt.Fprintf(errWriter, "%s: %s\n", Yellow("WARN"), fmt.Sprintf(msg, args...))
}

func Printf(msg string, args ...interface{}) {
	_, _ = fmt.Fprintf(writer, msg, args...)
}

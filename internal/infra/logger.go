package infra

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the process-wide logger for one of the two binaries.
// Production emits JSON to stdout at info level; development switches to the
// console writer and debug level. The service field separates api and worker
// lines in shared log streams.
func NewLogger(appEnv, service string) zerolog.Logger {
	out := io.Writer(os.Stdout)
	level := zerolog.InfoLevel
	if appEnv == "development" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
		level = zerolog.DebugLevel
	}
	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}

// Logger aliases zerolog.Logger so packages outside infra depend on the
// logging contract without importing the module directly.
type Logger = zerolog.Logger

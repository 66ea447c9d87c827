package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// serviceName tags every log line so shipped logs from the backend, the
// migrate CLI, and the snapshot worker can be told apart downstream.
const serviceName = "kelaskode-backend"

// Setup configures the process-wide zerolog settings and returns the root
// logger every component derives from. format "pretty" selects the console
// writer for development; anything else emits JSON for log shipping.
func Setup(level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.DurationFieldUnit = time.Millisecond

	log := zerolog.New(writerFor(format)).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()

	// Caller frames cost an allocation per event; only pay for them when
	// the process is already running at debug verbosity.
	if lvl <= zerolog.DebugLevel {
		log = log.With().Caller().Logger()
	}

	return log
}

func writerFor(format string) io.Writer {
	if format == "pretty" {
		return zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}
	return os.Stdout
}

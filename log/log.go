// Package log provides a thin wrapper around zerolog with a console writer
// suited to a single-shot CLI. The level can be overridden with the
// ZKUTIL_LOG_LEVEL environment variable so it also applies when running tests.
package log

import (
	"fmt"
	"io"
	"os"
	"path"
	"sync"

	"github.com/rs/zerolog"
)

const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"

	// like time.RFC3339Nano but with 3 fixed-width decimals
	rfc3339milli = "2006-01-02T15:04:05.000Z07:00"
)

var (
	log   zerolog.Logger
	logMu sync.RWMutex
)

func init() {
	Init(knownLevel(os.Getenv("ZKUTIL_LOG_LEVEL")), os.Stderr)
}

// knownLevel maps unrecognized or empty values to LevelError, so a bad
// environment variable cannot crash startup before flag validation runs.
func knownLevel(level string) string {
	switch level {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return level
	}
	return LevelError
}

// Logger returns the global logger.
func Logger() *zerolog.Logger {
	logMu.RLock()
	defer logMu.RUnlock()
	l := log
	return &l
}

// Init configures the global logger with the given level, writing to out.
// The level must be one of the Level constants.
func Init(level string, out io.Writer) {
	logger := zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: rfc3339milli,
	}).With().Timestamp().Caller().Logger()
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	zerolog.CallerSkipFrameCount = 3
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		return fmt.Sprintf("%s/%s:%d", path.Base(path.Dir(file)), path.Base(file), line)
	}

	switch level {
	case LevelDebug:
		logger = logger.Level(zerolog.DebugLevel)
	case LevelInfo:
		logger = logger.Level(zerolog.InfoLevel)
	case LevelWarn:
		logger = logger.Level(zerolog.WarnLevel)
	case LevelError:
		logger = logger.Level(zerolog.ErrorLevel)
	default:
		panic(fmt.Sprintf("invalid log level: %q", level))
	}

	logMu.Lock()
	log = logger
	logMu.Unlock()
}

// Info sends an info level log message.
func Info(args ...any) {
	Logger().Info().Msg(fmt.Sprint(args...))
}

// Debugw sends a debug level log message with key-value pairs.
func Debugw(msg string, keyvalues ...any) {
	Logger().Debug().Fields(keyvalues).Msg(msg)
}

// Infow sends an info level log message with key-value pairs.
func Infow(msg string, keyvalues ...any) {
	Logger().Info().Fields(keyvalues).Msg(msg)
}

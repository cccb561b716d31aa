package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger defines a standard interface for logging, kept printf-style so
// every component can be constructed with a plain injected dependency
// instead of a global.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})

	// With returns a logger carrying an additional structured field,
	// attached to every subsequent line.
	With(key, value string) Logger
}

// ZeroLogger is a Logger backed by zerolog.
type ZeroLogger struct {
	log zerolog.Logger
}

// NewLogger creates a new logger instance based on the specified level.
func NewLogger(level string) Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	l := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(parseLevel(level))
	return &ZeroLogger{log: l}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *ZeroLogger) Debugf(format string, v ...interface{}) { l.log.Debug().Msgf(format, v...) }
func (l *ZeroLogger) Infof(format string, v ...interface{})  { l.log.Info().Msgf(format, v...) }
func (l *ZeroLogger) Warnf(format string, v ...interface{})  { l.log.Warn().Msgf(format, v...) }
func (l *ZeroLogger) Errorf(format string, v ...interface{}) { l.log.Error().Msgf(format, v...) }

func (l *ZeroLogger) With(key, value string) Logger {
	return &ZeroLogger{log: l.log.With().Str(key, value).Logger()}
}

// SetDebug raises or lowers the log level at runtime, backing the
// config's `debug` toggle.
func SetDebug(l Logger, debug bool) Logger {
	zl, ok := l.(*ZeroLogger)
	if !ok {
		return l
	}
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return &ZeroLogger{log: zl.log.Level(level)}
}

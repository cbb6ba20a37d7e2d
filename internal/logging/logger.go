// Package logging is the structured logging facade of fibdrv. The device,
// the HTTP server and the bench runner log through the Logger interface;
// zerolog is the production backend and the standard library logger is
// kept for tools that already hold a *log.Logger.
package logging

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the logging interface shared by the fibdrv components.
type Logger interface {
	// Info logs an informational message.
	Info(msg string, fields ...Field)

	// Warn logs a condition that is handled but worth noticing, such as a
	// busy device.
	Warn(msg string, fields ...Field)

	// Error logs an error message with the associated error.
	Error(msg string, err error, fields ...Field)

	// Debug logs a debug message.
	Debug(msg string, fields ...Field)

	// Printf provides compatibility with log.Logger, as used by
	// http.Server.ErrorLog adapters.
	Printf(format string, args ...any)
}

// Field is a key-value pair attached to a log event.
type Field struct {
	Key   string
	Value any
}

// String creates a string field.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an integer field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 creates an int64 field, used for device offsets.
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Uint64 creates a uint64 field, used for Fibonacci indices.
func Uint64(key string, value uint64) Field {
	return Field{Key: key, Value: value}
}

// Float64 creates a float64 field.
func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

// Duration creates a duration field.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Err creates an error field.
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

// SetLevel parses a zerolog level name ("debug", "info", "warn", ...) and
// makes it the global level.
func SetLevel(name string) error {
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}
	zerolog.SetGlobalLevel(level)
	return nil
}

// ZerologAdapter implements Logger on top of a zerolog.Logger.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter wraps logger.
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

// NewDefaultLogger returns a timestamped logger writing JSON to stderr.
func NewDefaultLogger() *ZerologAdapter {
	return NewZerologAdapter(
		zerolog.New(os.Stderr).With().Timestamp().Logger(),
	)
}

// NewLogger returns a logger writing to w, tagging every event with the
// given component name.
func NewLogger(w io.Writer, component string) *ZerologAdapter {
	return NewZerologAdapter(
		zerolog.New(w).With().Str("component", component).Timestamp().Logger(),
	)
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *ZerologAdapter {
	return NewZerologAdapter(zerolog.Nop())
}

func (z *ZerologAdapter) applyFields(event *zerolog.Event, fields []Field) *zerolog.Event {
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			event = event.Str(f.Key, v)
		case int:
			event = event.Int(f.Key, v)
		case int64:
			event = event.Int64(f.Key, v)
		case uint64:
			event = event.Uint64(f.Key, v)
		case float64:
			event = event.Float64(f.Key, v)
		case time.Duration:
			event = event.Dur(f.Key, v)
		case error:
			event = event.AnErr(f.Key, v)
		case bool:
			event = event.Bool(f.Key, v)
		default:
			event = event.Interface(f.Key, v)
		}
	}
	return event
}

// Info logs an informational message.
func (z *ZerologAdapter) Info(msg string, fields ...Field) {
	z.applyFields(z.logger.Info(), fields).Msg(msg)
}

// Warn logs a warning.
func (z *ZerologAdapter) Warn(msg string, fields ...Field) {
	z.applyFields(z.logger.Warn(), fields).Msg(msg)
}

// Error logs an error message.
func (z *ZerologAdapter) Error(msg string, err error, fields ...Field) {
	z.applyFields(z.logger.Error().Err(err), fields).Msg(msg)
}

// Debug logs a debug message.
func (z *ZerologAdapter) Debug(msg string, fields ...Field) {
	z.applyFields(z.logger.Debug(), fields).Msg(msg)
}

// Printf logs a formatted informational message.
func (z *ZerologAdapter) Printf(format string, args ...any) {
	z.logger.Info().Msgf(format, args...)
}

// StdLoggerAdapter implements Logger on a standard *log.Logger, printing
// fields as key=value pairs.
type StdLoggerAdapter struct {
	logger *stdlog.Logger
}

// NewStdLoggerAdapter wraps logger.
func NewStdLoggerAdapter(logger *stdlog.Logger) *StdLoggerAdapter {
	return &StdLoggerAdapter{logger: logger}
}

func (s *StdLoggerAdapter) print(level, msg string, err error, fields []Field) {
	line := "[" + level + "] " + msg
	if err != nil {
		line += ": " + err.Error()
	}
	for _, f := range fields {
		line += fmt.Sprintf(" %s=%v", f.Key, f.Value)
	}
	s.logger.Println(line)
}

// Info logs an informational message.
func (s *StdLoggerAdapter) Info(msg string, fields ...Field) {
	s.print("INFO", msg, nil, fields)
}

// Warn logs a warning.
func (s *StdLoggerAdapter) Warn(msg string, fields ...Field) {
	s.print("WARN", msg, nil, fields)
}

// Error logs an error message.
func (s *StdLoggerAdapter) Error(msg string, err error, fields ...Field) {
	s.print("ERROR", msg, err, fields)
}

// Debug logs a debug message.
func (s *StdLoggerAdapter) Debug(msg string, fields ...Field) {
	s.print("DEBUG", msg, nil, fields)
}

// Printf logs a formatted message.
func (s *StdLoggerAdapter) Printf(format string, args ...any) {
	s.logger.Printf(format, args...)
}

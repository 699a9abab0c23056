// Package logger wraps zap with the named-component convention the
// service uses: every package obtains its own sub-logger via Named, and
// structured fields come from the small set of constructors below.
// Console output colors the level and pads component names into a fixed
// column; json output is plain zap for log shippers.
package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field is a structured log field.
type Field = zapcore.Field

// Field constructors, aliased so call sites never import zap directly.
var (
	String   = zap.String
	Int      = zap.Int
	Int64    = zap.Int64
	Duration = zap.Duration
	Error    = zap.Error
)

// Logger is the service logger.
type Logger struct {
	*zap.Logger
}

// Config selects the log level and output format.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

// nameWidth is the console column width for component names.
const nameWidth = 15

// New builds a logger writing to stdout. Caller locations are recorded
// only at debug level; stack traces attach to errors in every mode.
func New(cfg Config) (*Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	enc := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		FunctionKey:    zapcore.OmitKey,
		CallerKey:      zapcore.OmitKey,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
	if level == zapcore.DebugLevel {
		enc.CallerKey = "caller"
		enc.EncodeCaller = zapcore.ShortCallerEncoder
	}

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "json":
		encoder = zapcore.NewJSONEncoder(enc)
	case "console":
		enc.EncodeLevel = encodeLevelColor
		enc.EncodeName = encodeNameFixed
		encoder = zapcore.NewConsoleEncoder(enc)
	default:
		return nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}

	opts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if level == zapcore.DebugLevel {
		opts = append(opts, zap.AddCaller())
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level)
	return &Logger{Logger: zap.New(core, opts...)}, nil
}

func parseLevel(level string) (zapcore.Level, error) {
	switch level {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unsupported log level: %s", level)
	}
}

// encodeLevelColor renders the level with an ANSI color per severity.
func encodeLevelColor(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	var color string
	switch level {
	case zapcore.ErrorLevel:
		color = "\033[1;31m" // red
	case zapcore.WarnLevel:
		color = "\033[1;33m" // yellow
	case zapcore.InfoLevel:
		color = "\033[1;36m" // cyan
	case zapcore.DebugLevel:
		color = "\033[1;37m" // white
	default:
		enc.AppendString(level.String())
		return
	}
	enc.AppendString(color + level.String() + "\033[0m")
}

// encodeNameFixed truncates or pads the last component of the logger
// name so console columns line up.
func encodeNameFixed(name string, enc zapcore.PrimitiveArrayEncoder) {
	parts := strings.Split(name, ".")
	display := parts[len(parts)-1]
	if len(display) > nameWidth {
		display = display[:nameWidth]
	} else {
		display += strings.Repeat(" ", nameWidth-len(display))
	}
	enc.AppendString(display)
}

// With returns a logger carrying the given fields.
func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...)}
}

// Named returns a sub-logger for a component.
func (l *Logger) Named(name string) *Logger {
	return &Logger{Logger: l.Logger.Named(name)}
}

// WithError returns a logger carrying the error field.
func (l *Logger) WithError(err error) *Logger {
	return l.With(Error(err))
}

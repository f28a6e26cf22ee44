package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger = zerolog.Nop()
	once   sync.Once
)

type LoggerOption func(*LoggerConfig)

type LoggerConfig struct {
	fileName string
	console  bool
	level    zerolog.Level
	writer   io.Writer
}

// WithFileLogger writes logs to a size-rotated file.
func WithFileLogger(fileName string) LoggerOption {
	return func(l *LoggerConfig) {
		l.fileName = fileName
	}
}

func WithConsoleLogger() LoggerOption {
	return func(l *LoggerConfig) {
		l.console = true
	}
}

// WithLevel parses a level name ("debug", "info", ...). Unknown names keep the default.
func WithLevel(level string) LoggerOption {
	return func(l *LoggerConfig) {
		if lvl, err := zerolog.ParseLevel(level); err == nil && level != "" {
			l.level = lvl
		}
	}
}

func WithWriter(w io.Writer) LoggerOption {
	return func(l *LoggerConfig) {
		l.writer = w
	}
}

// Init builds the process logger. Only the first call has any effect.
func Init(serviceName string, opts ...LoggerOption) {
	once.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano
		logger = New(serviceName, opts...)
	})
}

// New builds a standalone logger without touching the process logger.
func New(serviceName string, opts ...LoggerOption) zerolog.Logger {
	l := &LoggerConfig{level: zerolog.InfoLevel}
	for _, opt := range opts {
		opt(l)
	}

	output := make([]io.Writer, 0, 3)
	if l.console {
		output = append(output, zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}
	if l.fileName != "" {
		output = append(output, &lumberjack.Logger{
			Filename:   l.fileName,
			MaxSize:    5,
			MaxBackups: 10,
			MaxAge:     14,
			Compress:   true,
		})
	}
	if l.writer != nil {
		output = append(output, l.writer)
	}
	if len(output) == 0 {
		output = append(output, os.Stdout)
	}

	return zerolog.New(zerolog.MultiLevelWriter(output...)).
		Level(l.level).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

func GetLogger() zerolog.Logger {
	return logger
}

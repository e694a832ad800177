package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config controls log output
type Config struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error fatal panic"`
	Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	// Dir receives daily JSON log files. Empty disables file output.
	Dir        string `yaml:"dir" default:"logs"`
	FilePrefix string `yaml:"file_prefix" default:"bot"`
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds the process logger. Console or JSON output goes to stderr; when
// Dir is set every event is also written as JSON to a daily file. The
// returned closer releases the file.
func New(cfg Config) (zerolog.Logger, io.Closer, error) {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg Config, stderr io.Writer) (zerolog.Logger, io.Closer, error) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("invalid log level: %w", err)
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	var console io.Writer = stderr
	if cfg.Format != "json" {
		console = zerolog.ConsoleWriter{Out: stderr, TimeFormat: "2006-01-02 15:04:05"}
	}

	writers := []io.Writer{console}
	var closer io.Closer = nopCloser{}
	if cfg.Dir != "" {
		prefix := cfg.FilePrefix
		if prefix == "" {
			prefix = "bot"
		}
		file, err := NewDailyFile(cfg.Dir, prefix)
		if err != nil {
			return zerolog.Nop(), nil, err
		}
		writers = append(writers, file)
		closer = file
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()

	return logger, closer, nil
}

package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the level, encoding and destinations of the logger.
type Config struct {
	Level      string   `json:"level" yaml:"level"`                                 // debug, info, warn, error
	Format     string   `json:"format" yaml:"format"`                               // json or console
	Outputs    []string `json:"outputs" yaml:"outputs"`                             // stdout, stderr, file
	OutputFile string   `json:"output_file,omitempty" yaml:"output_file,omitempty"` // used by the file output
}

func DefaultConfig() Config {
	return Config{
		Level:   "info",
		Format:  "console",
		Outputs: []string{"stderr"},
	}
}

// Validate checks the level, format and outputs without opening anything.
func (c Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.level()); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	switch c.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid log format %q (json or console)", c.Format)
	}
	for _, out := range c.Outputs {
		switch out {
		case "stdout", "stderr":
		case "file":
			if c.OutputFile == "" {
				return fmt.Errorf("log output_file required for the file output")
			}
		default:
			return fmt.Errorf("invalid log output %q", out)
		}
	}
	return nil
}

func (c Config) level() string {
	if c.Level == "" {
		return "info"
	}
	return c.Level
}

// New builds a zap logger. With no outputs configured it logs nothing.
func New(cfg Config) (*zap.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, _ := zapcore.ParseLevel(cfg.level())

	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	newEncoder := func() zapcore.Encoder {
		if cfg.Format == "console" {
			return zapcore.NewConsoleEncoder(encoderConfig)
		}
		return zapcore.NewJSONEncoder(encoderConfig)
	}

	var cores []zapcore.Core
	for _, out := range cfg.Outputs {
		switch out {
		case "stdout":
			cores = append(cores, zapcore.NewCore(newEncoder(), zapcore.Lock(os.Stdout), level))
		case "stderr":
			cores = append(cores, zapcore.NewCore(newEncoder(), zapcore.Lock(os.Stderr), level))
		case "file":
			f, err := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
			if err != nil {
				return nil, fmt.Errorf("open log file: %w", err)
			}
			cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(f), level))
		}
	}
	if len(cores) == 0 {
		return zap.NewNop(), nil
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

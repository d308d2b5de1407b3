// Package logging builds the process-wide zap.Logger from a
// BrokerConfig, grounded on the teacher's services/logging service
// (which configures a zap core from Config{File, Level, Encoding}),
// adapted to the modern go.uber.org/zap API.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tiagodeliberali/logstreamer/internal/config"
)

// New builds a zap.Logger writing to stderr at the level and
// encoding named in cfg.
func New(cfg config.BrokerConfig) (*zap.Logger, error) {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	encoder, err := newEncoder(cfg.LogEncoding)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)
	return zap.New(core), nil
}

func parseLevel(name string) (zapcore.Level, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return level, fmt.Errorf("logging: unknown log level %q: %w", name, err)
	}
	return level, nil
}

func newEncoder(name string) (zapcore.Encoder, error) {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	switch name {
	case "", "logfmt", "console":
		return zapcore.NewConsoleEncoder(cfg), nil
	case "json":
		return zapcore.NewJSONEncoder(cfg), nil
	default:
		return nil, fmt.Errorf("logging: unknown log encoding %q", name)
	}
}

// Package logging builds the zap loggers used by the lox CLI.
package logging

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel maps a level name (case-insensitive) to a zap level.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return zap.DebugLevel, nil
	case "INFO":
		return zap.InfoLevel, nil
	case "", "WARN", "WARNING":
		return zap.WarnLevel, nil
	case "ERROR":
		return zap.ErrorLevel, nil
	case "FATAL":
		return zap.FatalLevel, nil
	}
	return zap.WarnLevel, errors.Errorf("unknown log level %q", level)
}

// New creates a console logger writing to w at the given level and installs
// it as the global logger. The returned AtomicLevel can change the level later.
func New(level string, w io.Writer) (*zap.Logger, zap.AtomicLevel, error) {
	lvl, err := ParseLevel(level)
	al := zap.NewAtomicLevelAt(lvl)
	ec := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.Lock(zapcore.AddSync(w)), al)
	logger := zap.New(core)
	zap.ReplaceGlobals(logger)
	return logger, al, err
}

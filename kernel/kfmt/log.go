// Package kfmt builds the kernel logger and the buffers that retain its
// output.
package kfmt

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel converts a configured level name to a zap level.
func ParseLevel(name string) (zapcore.Level, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(name)))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", name)
	}
	return lvl, nil
}

// NewLogger returns a console-encoded logger that writes every entry at or
// above level to dmesg and, if not nil, to sink.
func NewLogger(level zapcore.Level, dmesg *RingBuffer, sink io.Writer) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	encCfg.CallerKey = ""
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	enc := zapcore.NewConsoleEncoder(encCfg)

	cores := make([]zapcore.Core, 0, 2)
	if dmesg != nil {
		cores = append(cores, zapcore.NewCore(enc, dmesg, level))
	}
	if sink != nil {
		cores = append(cores, zapcore.NewCore(enc.Clone(), zapcore.AddSync(sink), level))
	}

	return zap.New(zapcore.NewTee(cores...))
}

// PrintPanic writes the kernel panic banner for err to logger.
func PrintPanic(logger *zap.Logger, module, message string) {
	logger.Error("-----------------------------------")
	logger.Error("unrecoverable error",
		zap.String("module", module),
		zap.String("err", message),
	)
	logger.Error("*** kernel panic: system halted ***")
	logger.Error("-----------------------------------")
}

// Package logging builds the zap loggers used by the package checker.
//
// Core packages never log. Only the checking service and the CLI do, and they
// always write diagnostics to a separate stream from the report.
package logging

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Encodings
const (
	Console = "console"
	JSON    = "json"
)

// Encodings lists the supported log encodings
var Encodings = []string{Console, JSON}

// NewWithEncoding returns a logger writing to w with the named encoding. Info
// and above are enabled, or Debug and above when verbose is set.
func NewWithEncoding(w io.Writer, encoding string, verbose bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder

	var enc zapcore.Encoder
	switch encoding {
	case Console:
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(cfg)
	case JSON:
		enc = zapcore.NewJSONEncoder(cfg)
	default:
		return nil, fmt.Errorf("unknown log encoding: %s", encoding)
	}

	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), zap.NewAtomicLevelAt(level))
	return zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel)).Named("pkgcheck").Sugar(), nil
}

package kit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultLogMaxSizeMB  = 100
	defaultLogMaxBackups = 7
	defaultLogMaxAgeDays = 30
)

// LogOptions controls where and how verbosely a service logs.
// An empty Dir keeps output on stdout.
type LogOptions struct {
	Mode       string
	Dir        string
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

func NewLogger(service string, opts LogOptions) *zap.Logger {
	debug := strings.EqualFold(strings.TrimSpace(opts.Mode), "debug")

	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if debug {
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "time"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeDuration = zapcore.MillisDurationEncoder

	var encoder zapcore.Encoder
	if debug {
		encoder = zapcore.NewConsoleEncoder(enc)
	} else {
		encoder = zapcore.NewJSONEncoder(enc)
	}

	sink := zapcore.AddSync(os.Stdout)
	if !debug && strings.TrimSpace(opts.Dir) != "" {
		w, err := fileSink(opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file unavailable, using stdout: %v\n", err)
		} else {
			sink = w
		}
	}

	core := zapcore.NewCore(encoder, sink, level)
	return zap.New(core, zap.AddCaller()).With(zap.String("service", service))
}

func fileSink(opts LogOptions) (zapcore.WriteSyncer, error) {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	name := strings.TrimSpace(opts.Filename)
	if name == "" {
		name = "storefront.log"
	}

	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, name),
		MaxSize:    positiveOr(opts.MaxSizeMB, defaultLogMaxSizeMB),
		MaxBackups: positiveOr(opts.MaxBackups, defaultLogMaxBackups),
		MaxAge:     positiveOr(opts.MaxAgeDays, defaultLogMaxAgeDays),
		Compress:   opts.Compress,
	}), nil
}

func positiveOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

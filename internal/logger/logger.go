package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EncoderConfig is the layout shared by every environment. Production writes
// it as JSON, development as colored console lines.
func EncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// New returns the service logger. Entries go to stdout so the container
// runtime collects them.
func New(env, level string) (*zap.Logger, error) {
	var encoder zapcore.Encoder
	if env == "production" {
		encoder = zapcore.NewJSONEncoder(EncoderConfig())
	} else {
		cfg := EncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(cfg)
	}

	sink, _, err := zap.Open("stdout")
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(encoder, sink, parseLevel(level))
	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.ErrorOutput(zapcore.Lock(os.Stderr)),
	).Named("butcher-shop"), nil
}

// NewJSON builds a JSON logger writing to w
func NewJSON(w io.Writer, level string) *zap.Logger {
	core := zapcore.NewCore(zapcore.NewJSONEncoder(EncoderConfig()), zapcore.AddSync(w), parseLevel(level))
	return zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel))
}

func parseLevel(level string) zapcore.Level {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return parsed
}

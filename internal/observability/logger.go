package observability

import (
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Fields map[string]any

type Logger struct {
	zl *zap.Logger
}

func NewLogger(service, level string) *Logger {
	atomic := zap.NewAtomicLevel()
	if err := atomic.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		atomic.SetLevel(zapcore.InfoLevel)
	}

	cfg := zap.Config{
		Level:    atomic,
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:     "ts",
			LevelKey:    "level",
			MessageKey:  "msg",
			EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
			EncodeLevel: zapcore.LowercaseLevelEncoder,
		},
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     true,
		DisableStacktrace: true,
	}

	zl, err := cfg.Build()
	if err != nil {
		zl = zap.NewNop()
	}
	return &Logger{zl: zl.With(zap.String("service", strings.TrimSpace(service)))}
}

func NewNopLogger() *Logger {
	return &Logger{zl: zap.NewNop()}
}

// FromZap wraps an existing zap logger, mainly for tests using zaptest/observer.
func FromZap(zl *zap.Logger) *Logger {
	if zl == nil {
		zl = zap.NewNop()
	}
	return &Logger{zl: zl}
}

func (l *Logger) Info(msg string, fields Fields) {
	l.log(zapcore.InfoLevel, msg, fields)
}

func (l *Logger) Warn(msg string, fields Fields) {
	l.log(zapcore.WarnLevel, msg, fields)
}

func (l *Logger) Error(msg string, fields Fields) {
	l.log(zapcore.ErrorLevel, msg, fields)
}

func (l *Logger) Sync() {
	if l == nil || l.zl == nil {
		return
	}
	_ = l.zl.Sync()
}

func (l *Logger) log(level zapcore.Level, msg string, fields Fields) {
	if l == nil || l.zl == nil {
		return
	}
	if ce := l.zl.Check(level, strings.TrimSpace(msg)); ce != nil {
		ce.Write(zapFields(fields)...)
	}
}

// Blank keys, nil values and blank strings are dropped.
func zapFields(fields Fields) []zap.Field {
	keys := make([]string, 0, len(fields))
	for key, value := range fields {
		if strings.TrimSpace(key) == "" || value == nil {
			continue
		}
		if stringValue, ok := value.(string); ok && strings.TrimSpace(stringValue) == "" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys))
	for _, key := range keys {
		out = append(out, zap.Any(strings.TrimSpace(key), fields[key]))
	}
	return out
}

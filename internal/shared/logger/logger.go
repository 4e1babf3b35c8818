package logger

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log  *zap.Logger
	once sync.Once
)

// Entry is a captured log line kept for the /api/logs endpoint.
type Entry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

const ringSize = 500

var (
	ringMu  sync.Mutex
	ring    []Entry
	ringPos int
)

// Init configures the global logger. Calling it again with debug=true
// raises the level without recreating the capture ring.
func Init(debug bool) {
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	built, err := cfg.Build(zap.AddCallerSkip(1), zap.Hooks(captureHook))
	if err != nil {
		panic(err)
	}
	log = built

	once.Do(func() {
		ring = make([]Entry, 0, ringSize)
	})
}

func captureHook(e zapcore.Entry) error {
	ringMu.Lock()
	defer ringMu.Unlock()

	entry := Entry{Time: e.Time, Level: e.Level.String(), Message: e.Message}
	if len(ring) < ringSize {
		ring = append(ring, entry)
	} else {
		ring[ringPos] = entry
		ringPos = (ringPos + 1) % ringSize
	}
	return nil
}

// RecentEntries returns captured log entries, oldest first.
func RecentEntries() []Entry {
	ringMu.Lock()
	defer ringMu.Unlock()

	out := make([]Entry, 0, len(ring))
	if len(ring) == ringSize {
		out = append(out, ring[ringPos:]...)
		out = append(out, ring[:ringPos]...)
		return out
	}
	return append(out, ring...)
}

// ClearEntries drops all captured log entries.
func ClearEntries() {
	ringMu.Lock()
	defer ringMu.Unlock()
	ring = ring[:0]
	ringPos = 0
}

func ensure() *zap.Logger {
	if log == nil {
		Init(false)
	}
	return log
}

func Debug(msg string, fields ...zap.Field) { ensure().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { ensure().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { ensure().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { ensure().Error(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { ensure().Fatal(msg, fields...) }

// Sync flushes any buffered log entries.
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}

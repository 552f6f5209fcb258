package logging

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu     sync.RWMutex
	logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
)

// InitLogger configures the global logger. Output goes to stdout and, when
// file is set, to a size-rotated log file as well.
func InitLogger(file string, maxSizeMB, maxBackups, maxAgeDays int, compress bool, level string) {
	var out io.Writer = os.Stdout
	if file != "" {
		out = zerolog.MultiLevelWriter(os.Stdout, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   compress,
		})
	}

	mu.Lock()
	logger = zerolog.New(out).With().Timestamp().Logger().Level(parseLevel(level))
	mu.Unlock()
}

// SetLoggerForTest replaces the global logger.
func SetLoggerForTest(l zerolog.Logger) {
	mu.Lock()
	logger = l
	mu.Unlock()
}

// SetLogLevel changes the minimum level; unknown names fall back to info.
func SetLogLevel(level string) {
	mu.Lock()
	logger = logger.Level(parseLevel(level))
	mu.Unlock()
}

// IsDebug reports whether debug messages are emitted.
func IsDebug() bool {
	mu.RLock()
	defer mu.RUnlock()
	return logger.GetLevel() <= zerolog.DebugLevel
}

// NormalizeLevel maps zerolog names, Python logging names (WARNING,
// CRITICAL) and numeric Python levels (10, 20, ...) to a zerolog level name.
func NormalizeLevel(level string) (string, bool) {
	l := strings.ToLower(strings.TrimSpace(level))
	if n, err := strconv.Atoi(l); err == nil {
		switch {
		case n <= 10:
			return "debug", true
		case n <= 20:
			return "info", true
		case n <= 30:
			return "warn", true
		case n <= 40:
			return "error", true
		default:
			return "fatal", true
		}
	}
	switch l {
	case "warning":
		return "warn", true
	case "critical":
		return "fatal", true
	}
	if _, err := zerolog.ParseLevel(l); err != nil || l == "" {
		return "", false
	}
	return l, true
}

func parseLevel(level string) zerolog.Level {
	name, ok := NormalizeLevel(level)
	if !ok {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func withFields(e *zerolog.Event, kv []interface{}) *zerolog.Event {
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		if i+1 >= len(kv) {
			e = e.Interface(key, nil)
			break
		}
		switch v := kv[i+1].(type) {
		case error:
			e = e.AnErr(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	return e
}

// Debug logs a message with key/value pairs at debug level.
func Debug(msg string, kv ...interface{}) {
	l := current()
	withFields(l.Debug(), kv).Msg(msg)
}

// Info logs a message with key/value pairs at info level.
func Info(msg string, kv ...interface{}) {
	l := current()
	withFields(l.Info(), kv).Msg(msg)
}

// Warn logs a message with key/value pairs at warn level.
func Warn(msg string, kv ...interface{}) {
	l := current()
	withFields(l.Warn(), kv).Msg(msg)
}

// Error logs a message with key/value pairs at error level.
func Error(msg string, kv ...interface{}) {
	l := current()
	withFields(l.Error(), kv).Msg(msg)
}

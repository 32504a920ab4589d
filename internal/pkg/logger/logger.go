// Package logger emits structured JSON log lines to stderr. Field values
// are masked before they are written; nothing in this codebase logs a raw
// recipient address.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
)

func (l level) String() string {
	switch l {
	case levelDebug:
		return "DEBUG"
	case levelWarn:
		return "WARN"
	case levelError:
		return "ERROR"
	}
	return "INFO"
}

var (
	mu       sync.Mutex
	out      io.Writer = os.Stderr
	minLevel           = levelFromEnv()
)

// levelFromEnv reads LOG_LEVEL; anything unrecognized means INFO.
func levelFromEnv() level {
	switch strings.ToUpper(os.Getenv("LOG_LEVEL")) {
	case "DEBUG":
		return levelDebug
	case "WARN":
		return levelWarn
	case "ERROR":
		return levelError
	}
	return levelInfo
}

// SetOutput redirects log lines, for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	out = w
	mu.Unlock()
}

// Debug logs at DEBUG level. kv is alternating keys and values.
func Debug(msg string, kv ...any) { emit(levelDebug, msg, kv) }

// Info logs at INFO level.
func Info(msg string, kv ...any) { emit(levelInfo, msg, kv) }

// Warn logs at WARN level.
func Warn(msg string, kv ...any) { emit(levelWarn, msg, kv) }

// Error logs at ERROR level.
func Error(msg string, kv ...any) { emit(levelError, msg, kv) }

func emit(lv level, msg string, kv []any) {
	if lv < minLevel {
		return
	}

	entry := make(map[string]string, len(kv)/2+3)
	entry["time"] = time.Now().UTC().Format(time.RFC3339)
	entry["level"] = lv.String()
	entry["msg"] = msg
	for i := 0; i+1 < len(kv); i += 2 {
		k := fmt.Sprint(kv[i])
		entry[k] = mask(k, fmt.Sprint(kv[i+1]))
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return
	}
	mu.Lock()
	fmt.Fprintln(out, string(line))
	mu.Unlock()
}

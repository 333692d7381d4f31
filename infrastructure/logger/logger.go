package logger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"
)

var logger = log.New()

type requestIDKey struct{}

func init() {
	logger.Out = os.Stdout
	// LOG_TO_FILE=true writes to logs/<date><env>.log instead of stdout.
	if os.Getenv("LOG_TO_FILE") == "true" {
		if f, err := openLogFile(os.Getenv("ENV")); err != nil {
			log.Warnf("Failed to open log file: %v, falling back to stdout", err)
		} else {
			logger.Out = f
		}
	}

	logger.Formatter = &log.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
	}
	logger.SetLevel(log.DebugLevel)
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		SetLevel(v)
	}
}

func openLogFile(env string) (*os.File, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	logsDir := filepath.Join(cwd, "logs")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, err
	}
	filePath := filepath.Join(logsDir, fmt.Sprintf("%s%s.log", time.Now().Format("2006-01-02"), env))
	return os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
}

// SetLevel changes the level of the shared logger. Unknown levels are ignored.
func SetLevel(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		logger.WithField("level", level).Warn("Unknown log level, keeping current")
		return
	}
	logger.SetLevel(lvl)
}

func GetLogger() *log.Entry {
	return withCaller(logger.WithFields(log.Fields{}), 2)
}

// FromContext is GetLogger plus the request id stored by WithRequestID.
func FromContext(ctx context.Context) *log.Entry {
	entry := withCaller(logger.WithFields(log.Fields{}), 2)
	if ctx == nil {
		return entry
	}
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		entry = entry.WithField("requestId", id)
	}
	return entry
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func withCaller(entry *log.Entry, skip int) *log.Entry {
	function, file, line, ok := runtime.Caller(skip)
	if !ok {
		return entry
	}
	name := ""
	if fn := runtime.FuncForPC(function); fn != nil {
		name = fn.Name()
	}
	return entry.WithFields(log.Fields{
		"function": name,
		"file":     file,
		"line":     line,
	})
}

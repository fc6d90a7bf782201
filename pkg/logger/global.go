package logger

import (
	"os"
	"sync"
)

var (
	globalLogger *Logger
	globalMu     sync.RWMutex
)

// GetLogger returns the global logger, creating a default JSON logger on first use.
// LOG_LEVEL and DEBUG=true override the default level.
func GetLogger() *Logger {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l != nil {
		return l
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		level := "info"
		if os.Getenv("DEBUG") == "true" {
			level = "debug"
		} else if env := os.Getenv("LOG_LEVEL"); env != "" {
			level = env
		}
		globalLogger = New(Config{
			Level:  level,
			Format: "json",
			Output: "stdout",
		})
	}
	return globalLogger
}

// SetLogger replaces the global logger instance
func SetLogger(l *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// Configure builds a logger from cfg and installs it globally
func Configure(cfg Config) *Logger {
	l := New(cfg)
	SetGlobalLogger(l)
	return l
}

func Debug(msg string) {
	GetLogger().Debug(msg)
}

func Info(msg string) {
	GetLogger().Info(msg)
}

func Warn(msg string) {
	GetLogger().Warn(msg)
}

func Error(msg string) {
	GetLogger().Error(msg)
}

// WithField adds a field to the global logger
func WithField(key string, value interface{}) *Logger {
	return GetLogger().WithField(key, value)
}

// WithFields adds multiple fields to the global logger
func WithFields(fields map[string]interface{}) *Logger {
	return GetLogger().WithFields(fields)
}

// WithError adds an error to the global logger
func WithError(err error) *Logger {
	return GetLogger().WithError(err)
}

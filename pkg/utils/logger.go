package utils

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/jmorrell-dev/sidekick/pkg/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger writes operational logs to a rotating file under the sidekick state
// directory. Library packages log here instead of stdout so the chat surface
// stays clean.
type Logger struct {
	logger   *log.Logger
	jsonMode bool
}

var (
	globalLogger *Logger
	once         sync.Once
)

// GetLogger returns the singleton logger, initializing the rotating file
// handler on first use. If the state directory is unavailable the logger
// falls back to stderr rather than failing.
func GetLogger() *Logger {
	once.Do(func() {
		var writer = log.New(os.Stderr, "", log.LstdFlags)
		if dir, err := config.GetConfigDir(); err == nil {
			logFile := &lumberjack.Logger{
				Filename:   filepath.Join(dir, "sidekick.log"),
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
				Compress:   true,
			}
			writer = log.New(logFile, "", log.LstdFlags)
		}
		globalLogger = &Logger{logger: writer}
		if os.Getenv("SIDEKICK_JSON_LOGS") == "1" {
			globalLogger.jsonMode = true
		}
	})
	return globalLogger
}

// Close flushes and closes the underlying log file, if any.
func (l *Logger) Close() error {
	if logFile, ok := l.logger.Writer().(*lumberjack.Logger); ok {
		return logFile.Close()
	}
	return nil
}

// Log writes a general message to the log file.
func (l *Logger) Log(message string) {
	if l.jsonMode {
		_ = json.NewEncoder(l.logger.Writer()).Encode(map[string]any{"level": "info", "msg": message})
		return
	}
	l.logger.Print(message)
}

// Logf writes a formatted message to the log file.
func (l *Logger) Logf(format string, v ...interface{}) {
	if l.jsonMode {
		l.Log(fmt.Sprintf(format, v...))
		return
	}
	l.logger.Printf(format, v...)
}

// LogError records an error with a short operation label.
func (l *Logger) LogError(operation string, err error) {
	if err == nil {
		return
	}
	l.Logf("Error during %s: %v", operation, err)
}

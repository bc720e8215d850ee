// Package logger provides structured logging for the pet server.
// Every state change the engine makes should be traceable through this.
package logger

import (
	"fmt"
	"log"
	"os"
)

// Logger provides leveled logging with context.
type Logger struct {
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
}

// NewLogger creates a new logger instance.
func NewLogger() *Logger {
	return &Logger{
		infoLogger:  log.New(os.Stdout, "[PET-INFO] ", log.Ldate|log.Ltime|log.Lshortfile),
		warnLogger:  log.New(os.Stdout, "[PET-WARN] ", log.Ldate|log.Ltime|log.Lshortfile),
		errorLogger: log.New(os.Stderr, "[PET-ERROR] ", log.Ldate|log.Ltime|log.Lshortfile),
	}
}

// Info logs informational messages.
func (l *Logger) Info(format string, args ...interface{}) {
	l.infoLogger.Output(2, fmt.Sprintf(format, args...))
}

// Warn logs warning messages.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.warnLogger.Output(2, fmt.Sprintf(format, args...))
}

// Error logs error messages.
func (l *Logger) Error(format string, args ...interface{}) {
	l.errorLogger.Output(2, fmt.Sprintf(format, args...))
}

// Event logs a specific engine event for audit.
func (l *Logger) Event(eventType string, owner string, details string) {
	l.infoLogger.Printf("[EVENT:%s] Owner:%s | %s", eventType, owner, details)
}

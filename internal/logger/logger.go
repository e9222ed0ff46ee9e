// Package logger provides leveled structured logging.
package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Level represents a logging level.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func parseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

type leveledLogger struct {
	level  Level
	logger *log.Logger
}

var defaultLogger *leveledLogger

// Init initializes the default logger with the specified level and format.
func Init(level string, format string) {
	flags := log.LstdFlags | log.Lmicroseconds
	if strings.ToLower(format) == "text" {
		flags |= log.Lshortfile
	}

	defaultLogger = &leveledLogger{
		level:  parseLevel(level),
		logger: log.New(os.Stderr, "", flags),
	}
}

func output(l Level, tag, format string, args ...any) {
	if defaultLogger == nil || defaultLogger.level > l {
		return
	}
	_ = defaultLogger.logger.Output(3, fmt.Sprintf(tag+format, args...))
}

func Debug(format string, args ...any) {
	output(DebugLevel, "[DEBUG] ", format, args...)
}

func Info(format string, args ...any) {
	output(InfoLevel, "[INFO] ", format, args...)
}

func Warn(format string, args ...any) {
	output(WarnLevel, "[WARN] ", format, args...)
}

func Error(format string, args ...any) {
	output(ErrorLevel, "[ERROR] ", format, args...)
}

func Fatal(format string, args ...any) {
	if defaultLogger != nil {
		_ = defaultLogger.logger.Output(2, fmt.Sprintf("[FATAL] "+format, args...))
	}
	os.Exit(1)
}

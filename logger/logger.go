package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"irrigation_audit/config"
)

var (
	// Global logger instances
	InfoLogger   *log.Logger
	ErrorLogger  *log.Logger
	DebugLogger  *log.Logger
	WarnLogger   *log.Logger
	logFile      *os.File
	logLevel     = INFO
	logToConsole bool
)

// LogLevel constants
const (
	DEBUG = "debug"
	INFO  = "info"
	WARN  = "warn"
	ERROR = "error"
)

// Init initializes the logging system using configuration.
// Console output goes to stderr so the report on stdout stays clean.
func Init(cfg config.LoggingConfig) error {
	logToConsole = cfg.LogToConsole
	logLevel = strings.ToLower(cfg.LogLevel)

	var sinks []io.Writer
	if logToConsole {
		sinks = append(sinks, os.Stderr)
	}

	logPath := ""
	if cfg.LogFile != "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current working directory: %w", err)
		}
		logPath = cfg.LogFile
		if !filepath.IsAbs(logPath) {
			logPath = filepath.Join(cwd, logPath)
		}

		logFile, err = os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", logPath, err)
		}
		sinks = append(sinks, logFile)
	}

	var out io.Writer = io.Discard
	if len(sinks) > 0 {
		out = io.MultiWriter(sinks...)
	}
	SetOutput(out)

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	InfoLogger.Printf("=== Session started at %s ===\n", timestamp)
	if logPath != "" {
		InfoLogger.Printf("Log file: %s\n", logPath)
	}
	InfoLogger.Printf("Log level: %s\n", logLevel)
	LogDivider()

	return nil
}

// SetOutput points every level at w
func SetOutput(w io.Writer) {
	InfoLogger = log.New(w, "", 0)
	ErrorLogger = log.New(w, "", 0)
	DebugLogger = log.New(w, "", 0)
	WarnLogger = log.New(w, "", 0)
}

// SetLevel changes the active log level
func SetLevel(level string) {
	logLevel = strings.ToLower(level)
}

// Close closes the log file
func Close() error {
	if InfoLogger != nil {
		timestamp := time.Now().Format("2006-01-02 15:04:05")
		LogDivider()
		InfoLogger.Printf("=== Session ended at %s ===\n\n", timestamp)
	}
	if logFile != nil {
		err := logFile.Close()
		logFile = nil
		return err
	}
	return nil
}

// shouldLog determines if a message should be logged based on log level
func shouldLog(messageLevel string) bool {
	levels := map[string]int{
		DEBUG: 0,
		INFO:  1,
		WARN:  2,
		ERROR: 3,
	}

	currentLevel, exists := levels[logLevel]
	if !exists {
		currentLevel = levels[INFO]
	}

	messageLogLevel, exists := levels[messageLevel]
	if !exists {
		return true
	}

	return messageLogLevel >= currentLevel
}

// Printf prints formatted text to log (respects log level)
func Printf(format string, v ...interface{}) {
	if !shouldLog(INFO) {
		return
	}
	if InfoLogger != nil {
		InfoLogger.Printf(format, v...)
	} else {
		fmt.Fprintf(os.Stderr, format, v...)
	}
}

// Println prints a line to log (respects log level)
func Println(v ...interface{}) {
	if !shouldLog(INFO) {
		return
	}
	if InfoLogger != nil {
		InfoLogger.Println(v...)
	} else {
		fmt.Fprintln(os.Stderr, v...)
	}
}

// Debugf prints formatted debug text
func Debugf(format string, v ...interface{}) {
	if !shouldLog(DEBUG) {
		return
	}
	if DebugLogger != nil {
		DebugLogger.Printf("DEBUG: "+format, v...)
	} else {
		fmt.Fprintf(os.Stderr, "DEBUG: "+format, v...)
	}
}

// Warnf prints formatted warning text
func Warnf(format string, v ...interface{}) {
	if !shouldLog(WARN) {
		return
	}
	if WarnLogger != nil {
		WarnLogger.Printf("WARN: "+format, v...)
	} else {
		fmt.Fprintf(os.Stderr, "WARN: "+format, v...)
	}
}

// Errorf prints formatted error text (always logged regardless of level)
func Errorf(format string, v ...interface{}) {
	if ErrorLogger != nil {
		ErrorLogger.Printf("ERROR: "+format, v...)
	} else {
		fmt.Fprintf(os.Stderr, "ERROR: "+format, v...)
	}
}

// Fatalf prints formatted fatal error and exits (always logged)
func Fatalf(format string, v ...interface{}) {
	msg := fmt.Sprintf("FATAL: "+format, v...)
	if ErrorLogger != nil {
		ErrorLogger.Print(msg)
	}
	// the user must see fatal errors even when console logging is off
	if !logToConsole {
		fmt.Fprint(os.Stderr, msg)
		if !strings.HasSuffix(msg, "\n") {
			fmt.Fprintln(os.Stderr)
		}
	}
	Close()
	os.Exit(1)
}

// LogCommand logs the command being executed
func LogCommand(command string, args []string) {
	if len(args) > 1 {
		Printf("Command executed: %s %v\n", command, args[1:])
		return
	}
	Printf("Command executed: %s\n", command)
}

// LogDivider prints a divider line for better log organization
func LogDivider() {
	Println(strings.Repeat("-", 60))
}

// LogResult logs a result with status
func LogResult(operation string, success bool, details string) {
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	if details != "" {
		Printf("%s: %s - %s\n", operation, status, details)
		return
	}
	Printf("%s: %s\n", operation, status)
}

// LogProgress logs progress information
func LogProgress(current, total int, item string) {
	Printf("Progress: [%d/%d] %s\n", current, total, item)
}

package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const logDayFormat = "2006-01-02"

// dailyFile is an io.Writer that appends to <dir>/YYYY-MM-DD.log and
// switches files when the day changes.
type dailyFile struct {
	mu         sync.Mutex
	dir        string
	file       *os.File
	currentDay string
	now        func() time.Time
}

func (d *dailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.rotate(); err != nil {
		return 0, err
	}
	return d.file.Write(p)
}

// rotate opens today's file if it is not already open. Caller holds mu.
func (d *dailyFile) rotate() error {
	today := d.now().Format(logDayFormat)
	if d.currentDay == today && d.file != nil {
		return nil
	}
	if d.file != nil {
		d.file.Close()
	}

	path := filepath.Join(d.dir, today+".log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		d.file = nil
		return fmt.Errorf("failed to open log file: %w", err)
	}
	d.file = file
	d.currentDay = today
	return nil
}

func (d *dailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

// LoggerService handles application logging: human readable lines on the
// console and JSON lines in a daily log file.
type LoggerService struct {
	logDir string
	file   *dailyFile
	logger zerolog.Logger
}

// NewLoggerService creates the log directory and a logger writing to it and
// to console (os.Stdout when nil). When the directory cannot be used the
// service logs to the console only.
func NewLoggerService(logDir, level string, console io.Writer) *LoggerService {
	if console == nil {
		console = os.Stdout
	}
	consoleWriter := zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339, NoColor: console != os.Stdout}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	s := &LoggerService{logDir: logDir}
	file := &dailyFile{dir: logDir, now: time.Now}

	var fileErr error
	if err := os.MkdirAll(logDir, 0755); err != nil {
		fileErr = err
	} else {
		file.mu.Lock()
		fileErr = file.rotate()
		file.mu.Unlock()
	}

	if fileErr != nil {
		s.logger = zerolog.New(consoleWriter).Level(lvl).With().Timestamp().Logger()
		s.logger.Warn().Err(fileErr).Msg("Could not create log file, logging to console only")
		return s
	}

	s.file = file
	s.logger = zerolog.New(zerolog.MultiLevelWriter(consoleWriter, file)).Level(lvl).With().Timestamp().Logger()
	s.logger.Info().Str("log_dir", logDir).Msg("Logger initialized")
	return s
}

// Logger returns the structured logger for services to use directly.
func (s *LoggerService) Logger() *zerolog.Logger {
	return &s.logger
}

// LogInfo logs an informational message
func (s *LoggerService) LogInfo(message string, details ...string) {
	withDetails(s.logger.Info(), details).Msg(message)
}

// LogWarning logs a warning message
func (s *LoggerService) LogWarning(message string, details ...string) {
	withDetails(s.logger.Warn(), details).Msg(message)
}

// LogError logs an error message
func (s *LoggerService) LogError(message string, err error, details ...string) {
	withDetails(s.logger.Error().Err(err), details).Msg(message)
}

// LogPanic logs a recovered panic with the stack trace
func (s *LoggerService) LogPanic(recovered interface{}) {
	s.logger.Error().
		Interface("panic", recovered).
		Str("stack", string(debug.Stack())).
		Msg("Recovered from panic")
}

// RecoverPanic is deferred at the top of goroutines and bound methods.
func (s *LoggerService) RecoverPanic() {
	if r := recover(); r != nil {
		s.LogPanic(r)
	}
}

// LogFrontendError logs errors reported by the frontend (Wails binding)
func (s *LoggerService) LogFrontendError(message string, stack string, componentInfo string) {
	event := s.logger.Error().Str("source", "frontend")
	if componentInfo != "" {
		event = event.Str("component", componentInfo)
	}
	if stack != "" {
		event = event.Str("stack", stack)
	}
	event.Msg(message)
}

func withDetails(event *zerolog.Event, details []string) *zerolog.Event {
	if len(details) > 0 && details[0] != "" {
		event = event.Str("details", strings.Join(details, " | "))
	}
	return event
}

// GetLogDirectory returns the directory where logs are stored
func (s *LoggerService) GetLogDirectory() string {
	return s.logDir
}

// GetTodayLogPath returns the path to today's log file
func (s *LoggerService) GetTodayLogPath() string {
	return filepath.Join(s.logDir, time.Now().Format(logDayFormat)+".log")
}

// CleanOldLogs removes log files whose day is older than daysToKeep.
func (s *LoggerService) CleanOldLogs(daysToKeep int) error {
	entries, err := os.ReadDir(s.logDir)
	if err != nil {
		return err
	}

	cutoff := time.Now().AddDate(0, 0, -daysToKeep).Format(logDayFormat)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".log" {
			continue
		}
		day := strings.TrimSuffix(name, ".log")
		if _, err := time.Parse(logDayFormat, day); err != nil {
			continue
		}
		if day < cutoff {
			path := filepath.Join(s.logDir, name)
			s.LogInfo("Deleting old log file", path)
			if err := os.Remove(path); err != nil {
				s.LogWarning("Could not delete old log file", err.Error())
			}
		}
	}
	return nil
}

// Close closes the log file
func (s *LoggerService) Close() {
	if s.file != nil {
		s.file.Close()
	}
}

// loggerOrNop returns the structured logger of s, or a disabled one when s is nil.
func loggerOrNop(s *LoggerService) zerolog.Logger {
	if s == nil {
		return zerolog.Nop()
	}
	return s.logger
}

// Package logging configures the global slog logger: text output on the
// console plus a weekly-rotating JSON file under the log directory.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LoggingService wraps the configured logger so callers can share one instance.
type LoggingService struct {
	Logger *slog.Logger
}

var DefaultLoggingService *LoggingService

// InitLogger initializes the global logger instance and installs it as the
// slog default.
func InitLogger(logDir, level string) {
	DefaultLoggingService = &LoggingService{
		Logger: SetupLogger(logDir, parseLevel(level)),
	}
	slog.SetDefault(DefaultLoggingService.Logger)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger builds a logger writing text to stdout and JSON to a rotating
// weekly file. Falls back to console-only if the log directory is unusable.
func SetupLogger(logDir string, level slog.Level) *slog.Logger {
	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})

	if err := os.MkdirAll(logDir, 0755); err != nil {
		logger := slog.New(consoleHandler)
		logger.Error("Failed to create logs directory, logging to console only", "error", err)
		return logger
	}

	fileHandler := slog.NewJSONHandler(newWeeklyWriter(logDir), &slog.HandlerOptions{Level: level})

	return slog.New(&multiHandler{handlers: []slog.Handler{consoleHandler, fileHandler}})
}

// weeklyWriter appends to app-YYYY-Www.log and switches files when the ISO
// week changes. Files older than the retention window are removed on rotation.
type weeklyWriter struct {
	dir       string
	retention time.Duration
	mu        sync.Mutex
	file      *os.File
	week      string
}

func newWeeklyWriter(dir string) *weeklyWriter {
	return &weeklyWriter{
		dir:       dir,
		retention: 4 * 7 * 24 * time.Hour,
	}
}

func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func (w *weeklyWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	current := weekKey(time.Now())
	if w.file == nil || w.week != current {
		if err := w.rotate(current); err != nil {
			return 0, err
		}
	}

	return w.file.Write(p)
}

// rotate is called with the mutex held.
func (w *weeklyWriter) rotate(week string) error {
	if w.file != nil {
		_ = w.file.Close()
	}

	path := filepath.Join(w.dir, fmt.Sprintf("app-%s.log", week))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	w.file = file
	w.week = week
	w.removeExpired()

	return nil
}

func (w *weeklyWriter) removeExpired() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return
	}

	cutoff := time.Now().Add(-w.retention)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "app-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(w.dir, name))
		}
	}
}

// multiHandler fans a record out to every underlying handler.
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: newHandlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: newHandlers}
}

// Package-level functions for direct access. They fall back to a stderr
// logger when InitLogger has not run, so early startup paths can still log.

func logWith(level slog.Level, msg string, args ...any) {
	if DefaultLoggingService != nil && DefaultLoggingService.Logger != nil {
		DefaultLoggingService.Logger.Log(context.Background(), level, msg, args...)
		return
	}
	fallback := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	fallback.Log(context.Background(), level, msg, args...)
}

func Info(msg string, args ...any) {
	logWith(slog.LevelInfo, msg, args...)
}

func Warn(msg string, args ...any) {
	logWith(slog.LevelWarn, msg, args...)
}

func Error(msg string, args ...any) {
	logWith(slog.LevelError, msg, args...)
}

func Debug(msg string, args ...any) {
	logWith(slog.LevelDebug, msg, args...)
}

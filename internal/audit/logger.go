package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kaiser-net/nodefw/internal/nodelog"
)

// Logger defines the interface for audit logging backends.
type Logger interface {
	Log(event *Event) error
	Query(filter Filter) ([]*Event, error)
	Close() error
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    int64 // max file size in bytes before rotation
	MaxBackups int   // max number of old files to retain
}

const rotationTimeFormat = "20060102-150405"

// FileLogger logs audit events to a JSON-lines file. It tracks the current
// file's size itself rather than calling Stat before every write, since a
// node can emit an event per sensor reading or command and this file is
// written far more often than it's read.
type FileLogger struct {
	path     string
	file     *os.File
	written  int64
	mu       sync.RWMutex
	rotation RotationConfig
}

// NewFileLogger creates a file-based audit logger at path, creating parent
// directories as needed.
func NewFileLogger(path string, rotation RotationConfig) (*FileLogger, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating audit log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}

	var written int64
	if info, err := file.Stat(); err == nil {
		written = info.Size()
	}

	return &FileLogger{path: path, file: file, written: written, rotation: rotation}, nil
}

// Log appends event as one JSON line, rotating first if the write would
// push the file past MaxSize.
func (l *FileLogger) Log(event *Event) error {
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding audit event: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.rotation.MaxSize > 0 && l.written+int64(len(line)) > l.rotation.MaxSize {
		if err := l.rotate(); err != nil {
			return fmt.Errorf("rotating audit log: %w", err)
		}
	}

	n, err := l.file.Write(line)
	l.written += int64(n)
	return err
}

// Query scans the log file for events matching filter, most recent match
// last; filter.Limit trims to the most recent matches when positive.
func (l *FileLogger) Query(filter Filter) ([]*Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []*Event{}, nil
		}
		return nil, err
	}
	defer file.Close()

	var events []*Event
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		var event Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			nodelog.Logger.WithField("line", line).Warn("audit: skipping malformed log entry")
			continue
		}
		if matches(&event, filter) {
			events = append(events, &event)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if filter.Limit > 0 && filter.Limit < len(events) {
		events = events[len(events)-filter.Limit:]
	}
	return events, nil
}

// Close closes the underlying file.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func matches(event *Event, filter Filter) bool {
	switch {
	case filter.NodeID != "" && event.NodeID != filter.NodeID:
		return false
	case filter.Kind != "" && event.Kind != filter.Kind:
		return false
	case filter.Source != "" && event.Source != filter.Source:
		return false
	case filter.Pin != nil && event.Pin != *filter.Pin:
		return false
	case !filter.StartTime.IsZero() && event.Timestamp.Before(filter.StartTime):
		return false
	case !filter.EndTime.IsZero() && event.Timestamp.After(filter.EndTime):
		return false
	case filter.SuccessOnly && !event.Success:
		return false
	case filter.FailureOnly && event.Success:
		return false
	default:
		return true
	}
}

func (l *FileLogger) rotate() error {
	if err := l.file.Close(); err != nil {
		return err
	}

	rotatedPath := l.path + "." + time.Now().Format(rotationTimeFormat)
	if err := os.Rename(l.path, rotatedPath); err != nil {
		return err
	}

	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	l.file = file
	l.written = 0

	if l.rotation.MaxBackups > 0 {
		l.cleanupOldFiles()
	}
	return nil
}

// cleanupOldFiles removes rotated backups beyond MaxBackups, oldest first.
// Age is read from each backup's rotation timestamp suffix rather than the
// filesystem's mtime, since a copied or restored backup can carry an mtime
// that no longer reflects when it was actually rotated out.
func (l *FileLogger) cleanupOldFiles() {
	dir := filepath.Dir(l.path)
	base := filepath.Base(l.path)

	candidates, err := filepath.Glob(filepath.Join(dir, base+".*"))
	if err != nil {
		return
	}

	type backup struct {
		path      string
		rotatedAt time.Time
	}
	var backups []backup
	for _, path := range candidates {
		suffix := strings.TrimPrefix(filepath.Base(path), base+".")
		rotatedAt, err := time.Parse(rotationTimeFormat, suffix)
		if err != nil {
			continue // not one of our rotated backups
		}
		backups = append(backups, backup{path: path, rotatedAt: rotatedAt})
	}
	if len(backups) <= l.rotation.MaxBackups {
		return
	}

	sort.Slice(backups, func(i, j int) bool { return backups[i].rotatedAt.Before(backups[j].rotatedAt) })
	for _, b := range backups[:len(backups)-l.rotation.MaxBackups] {
		os.Remove(b.path)
	}
}

type loggerHolder struct{ logger Logger }

var defaultLogger atomic.Value

// SetDefaultLogger installs the logger used by the package-level Log/Query.
func SetDefaultLogger(logger Logger) {
	defaultLogger.Store(loggerHolder{logger: logger})
}

func getDefaultLogger() Logger {
	v := defaultLogger.Load()
	if v == nil {
		return nil
	}
	return v.(loggerHolder).logger
}

// Log records event via the default logger; a no-op if none is configured.
func Log(event *Event) error {
	l := getDefaultLogger()
	if l == nil {
		return nil
	}
	return l.Log(event)
}

// Query reads events via the default logger.
func Query(filter Filter) ([]*Event, error) {
	l := getDefaultLogger()
	if l == nil {
		return []*Event{}, nil
	}
	return l.Query(filter)
}

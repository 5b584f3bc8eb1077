package builder

import (
	"fmt"
	"time"
)

// Level classifies a build log entry.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Entry is a single timestamped build log line.
type Entry struct {
	Time    time.Time `json:"time"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
}

// Log accumulates build output for a single pipeline invocation. Every
// stage of the pipeline writes progress and warnings here so the full
// transcript can be returned to the caller alongside the build result.
// A Log belongs to exactly one invocation and is not safe for
// concurrent use.
type Log struct {
	entries []Entry
	now     func() time.Time
}

// NewLog returns an empty build log.
func NewLog() *Log {
	return &Log{now: time.Now}
}

func (l *Log) append(level Level, format string, args ...any) {
	l.entries = append(l.entries, Entry{
		Time:    l.now(),
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})
}

// Infof records an informational entry.
func (l *Log) Infof(format string, args ...any) {
	l.append(LevelInfo, format, args...)
}

// Warnf records a non-fatal problem. Warnings never abort a build.
func (l *Log) Warnf(format string, args ...any) {
	l.append(LevelWarn, format, args...)
}

// Errorf records a fatal problem. The caller is still responsible for
// returning the error through the normal path.
func (l *Log) Errorf(format string, args ...any) {
	l.append(LevelError, format, args...)
}

// Entries returns the accumulated entries in insertion order.
func (l *Log) Entries() []Entry {
	return l.entries
}

// Lines renders the transcript as human-readable strings, one per
// entry, suitable for inclusion in an API response.
func (l *Log) Lines() []string {
	lines := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", e.Time.Format("15:04:05"), e.Level, e.Message))
	}
	return lines
}

// Len reports the number of accumulated entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// Package logger implements a logging adapter using log/slog.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/bake/internal/ui/style"
	"go.trai.ch/zerr"
)

// Format selects the log encoding.
type Format string

const (
	// FormatPretty renders coloured human-readable lines.
	FormatPretty Format = "pretty"
	// FormatJSON renders one JSON object per record.
	FormatJSON Format = "json"
)

var _ ports.Logger = (*Logger)(nil)

// Logger implements ports.Logger using log/slog.
type Logger struct {
	mu     sync.RWMutex
	logger *slog.Logger
	format Format
	output io.Writer
	level  *slog.LevelVar
}

// New creates a Logger writing pretty lines to stderr.
func New() *Logger {
	l := &Logger{format: FormatPretty, output: os.Stderr, level: &slog.LevelVar{}}
	l.rebuild()
	return l
}

// SetOutput updates the logger's output destination. A nil writer selects stderr.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	l.output = w
	l.rebuild()
}

// SetFormat switches between pretty and JSON logging, keeping the output destination.
func (l *Logger) SetFormat(format Format) error {
	if format != FormatPretty && format != FormatJSON {
		return zerr.With(zerr.New("unknown log format"), "format", string(format))
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.format = format
	l.rebuild()
	return nil
}

// SetQuiet suppresses informational messages.
func (l *Logger) SetQuiet(quiet bool) {
	if quiet {
		l.level.Set(slog.LevelWarn)
		return
	}
	l.level.Set(slog.LevelInfo)
}

// rebuild replaces the slog handler. Callers hold mu.
func (l *Logger) rebuild() {
	opts := &slog.HandlerOptions{Level: l.level}
	var handler slog.Handler
	if l.format == FormatJSON {
		handler = slog.NewJSONHandler(l.output, opts)
	} else {
		handler = NewPrettyHandler(l.output, opts)
	}
	l.logger = slog.New(handler)
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Info(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Warn(msg)
}

// Error logs an error with its cause chain.
// Pretty output lists each cause on its own line; JSON output carries metadata as fields.
func (l *Logger) Error(err error) {
	if err == nil {
		return
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.format == FormatJSON {
		zerr.Log(context.Background(), l.logger, err)
		return
	}
	l.logger.Error(formatErrorEntries(collectErrorEntries(err)))
}

type errorEntry struct {
	message  string
	metadata map[string]any
}

// collectErrorEntries walks the zerr chain. A foreign error ends the walk with its full message.
func collectErrorEntries(err error) []errorEntry {
	var entries []errorEntry
	for current := err; current != nil; {
		zErr, ok := current.(*zerr.Error)
		if !ok {
			entries = append(entries, errorEntry{message: current.Error()})
			break
		}
		entries = append(entries, errorEntry{message: zErr.Message(), metadata: zErr.Metadata()})
		current = zErr.Unwrap()
	}
	return entries
}

func formatErrorEntries(entries []errorEntry) string {
	var lines []string
	for i, entry := range entries {
		msg := entry.message + formatMetadata(entry.metadata)
		parts := strings.Split(msg, "\n")
		switch i {
		case 0:
			lines = append(lines, "Error: "+parts[0])
			for _, line := range parts[1:] {
				lines = append(lines, "       "+line)
			}
		default:
			if i == 1 {
				lines = append(lines, "", "  Caused by:")
			}
			lines = append(lines, "    "+style.Arrow+" "+parts[0])
			for _, line := range parts[1:] {
				lines = append(lines, "      "+line)
			}
		}
	}
	return strings.Join(lines, "\n")
}

func formatMetadata(md map[string]any) string {
	if len(md) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(" (")
	for i, k := range slices.Sorted(maps.Keys(md)) {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", k, md[k])
	}
	b.WriteString(")")
	return b.String()
}

package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffaa00"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))
	debugStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
)

// DefaultLogger writes one line per entry to a single writer, stderr by
// default. Warn and Error lines are colored when useColors is set.
type DefaultLogger struct {
	out       *log.Logger
	level     Level
	fields    Fields
	useColors bool
}

// NewDefaultLogger creates a logger on stderr, colored when stderr is a terminal.
func NewDefaultLogger() *DefaultLogger {
	return NewWriterLogger(os.Stderr, isTerminal(os.Stderr))
}

// NewWriterLogger creates a logger on w.
func NewWriterLogger(w io.Writer, colors bool) *DefaultLogger {
	return &DefaultLogger{
		out:       log.New(w, "", log.LstdFlags),
		level:     InfoLevel,
		fields:    make(Fields),
		useColors: colors,
	}
}

func isTerminal(f *os.File) bool {
	if fi, _ := f.Stat(); fi != nil {
		return (fi.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

func (d *DefaultLogger) formatMessage(level Level, err error, msg string, fields ...Fields) string {
	all := make(Fields)
	maps.Copy(all, d.fields)
	for _, f := range fields {
		maps.Copy(all, f)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", level, msg)
	if err != nil {
		fmt.Fprintf(&b, ": %v", err)
	}
	// sorted for stable output
	for _, k := range slices.Sorted(maps.Keys(all)) {
		fmt.Fprintf(&b, " %s=%v", k, all[k])
	}

	line := b.String()
	if !d.useColors {
		return line
	}
	switch level {
	case DebugLevel:
		return debugStyle.Render(line)
	case WarnLevel:
		return warnStyle.Render(line)
	case ErrorLevel:
		return errorStyle.Render(line)
	}
	return line
}

func (d *DefaultLogger) log(level Level, err error, msg string, fields ...Fields) {
	if level < d.level {
		return
	}
	d.out.Println(d.formatMessage(level, err, msg, fields...))
}

func (d *DefaultLogger) Debug(msg string, fields ...Fields) {
	d.log(DebugLevel, nil, msg, fields...)
}

func (d *DefaultLogger) Info(msg string, fields ...Fields) {
	d.log(InfoLevel, nil, msg, fields...)
}

func (d *DefaultLogger) Warn(msg string, fields ...Fields) {
	d.log(WarnLevel, nil, msg, fields...)
}

func (d *DefaultLogger) Error(err error, msg string, fields ...Fields) {
	d.log(ErrorLevel, err, msg, fields...)
}

func (d *DefaultLogger) WithFields(fields Fields) Logger {
	merged := make(Fields, len(d.fields)+len(fields))
	maps.Copy(merged, d.fields)
	maps.Copy(merged, fields)

	return &DefaultLogger{
		out:       d.out,
		level:     d.level,
		fields:    merged,
		useColors: d.useColors,
	}
}

func (d *DefaultLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := fieldsFromContext(ctx); ok {
		return d.WithFields(fields)
	}
	return d
}

func (d *DefaultLogger) SetLevel(level Level) {
	d.level = level
}

// NoOpLogger discards everything.
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, fields ...Fields)            {}
func (n *NoOpLogger) Info(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Warn(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Error(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) WithFields(fields Fields) Logger               { return n }
func (n *NoOpLogger) WithContext(ctx context.Context) Logger        { return n }
func (n *NoOpLogger) SetLevel(level Level)                          {}

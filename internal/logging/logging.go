// Package logging provides leveled, structured diagnostics for helios.
//
// Diagnostics go to stderr so they never mix with model output on stdout.
// The default level is Warn; --verbose lowers it to Debug, which also
// enables HTTP request tracing through Transport.
//
//	logging.Configure(cfg.Debug)
//	logging.Debug("context file loaded", logging.Fields{"path": p, "bytes": n})
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Level represents a logging level
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	// LevelNone disables all logging
	LevelNone
)

// String returns the string representation of the log level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a string into a Level. Unknown values map to Warn.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "NONE", "OFF":
		return LevelNone
	default:
		return LevelWarn
	}
}

// Format represents the output format
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// Fields is a map of structured log fields
type Fields map[string]any

// entry is a single JSON log line
type entry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Fields    Fields    `json:"fields,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Options configures the logger
type Options struct {
	Level  Level
	Format Format
	Output io.Writer
}

// Logger writes leveled entries. A Logger created by With shares the
// parent's writer and level.
type Logger struct {
	core   *core
	fields Fields
}

type core struct {
	mu     sync.Mutex
	level  Level
	format Format
	output io.Writer
	now    func() time.Time
}

var levelColors = map[Level]*color.Color{
	LevelDebug: color.New(color.FgHiBlack),
	LevelInfo:  color.New(color.FgCyan),
	LevelWarn:  color.New(color.FgYellow),
	LevelError: color.New(color.FgRed, color.Bold),
}

// DefaultLogger is the process-wide logger used by the package functions
var DefaultLogger = New(Options{Level: LevelWarn, Output: os.Stderr})

// New creates a new Logger with the given options
func New(opts Options) *Logger {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	return &Logger{core: &core{
		level:  opts.Level,
		format: opts.Format,
		output: opts.Output,
		now:    time.Now,
	}}
}

// SetLevel changes the log level
func (l *Logger) SetLevel(level Level) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	l.core.level = level
}

// SetFormat changes the output format
func (l *Logger) SetFormat(format Format) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	l.core.format = format
}

// SetOutput changes the output writer
func (l *Logger) SetOutput(w io.Writer) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	l.core.output = w
}

// Enabled reports whether messages at level would be written
func (l *Logger) Enabled(level Level) bool {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	return level >= l.core.level
}

// With returns a logger that adds fields to every entry
func (l *Logger) With(fields Fields) *Logger {
	return &Logger{core: l.core, fields: merge(l.fields, fields)}
}

func (l *Logger) Debug(msg string, fields ...Fields) { l.log(LevelDebug, msg, nil, fields) }
func (l *Logger) Info(msg string, fields ...Fields)  { l.log(LevelInfo, msg, nil, fields) }
func (l *Logger) Warn(msg string, fields ...Fields)  { l.log(LevelWarn, msg, nil, fields) }

// Error logs msg with err attached
func (l *Logger) Error(msg string, err error, fields ...Fields) {
	l.log(LevelError, msg, err, fields)
}

func (l *Logger) log(level Level, msg string, err error, extra []Fields) {
	c := l.core
	c.mu.Lock()
	defer c.mu.Unlock()

	if level < c.level {
		return
	}

	e := entry{
		Timestamp: c.now(),
		Level:     level.String(),
		Message:   msg,
		Fields:    merge(l.fields, extra...),
	}
	if err != nil {
		e.Error = err.Error()
	}

	if c.format == FormatJSON {
		data, mErr := json.Marshal(e)
		if mErr != nil {
			fmt.Fprintf(c.output, `{"level":"ERROR","message":"unencodable log entry: %s"}`+"\n", mErr)
			return
		}
		fmt.Fprintln(c.output, string(data))
		return
	}
	fmt.Fprintln(c.output, formatText(level, e))
}

// formatText renders "[time] LEVEL: msg error=... k=v" with keys sorted
func formatText(level Level, e entry) string {
	var sb strings.Builder
	label := e.Level
	if c, ok := levelColors[level]; ok {
		label = c.Sprint(e.Level)
	}
	fmt.Fprintf(&sb, "[%s] %s: %s", e.Timestamp.Format("15:04:05.000"), label, e.Message)

	if e.Error != "" {
		fmt.Fprintf(&sb, " error=%q", e.Error)
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, e.Fields[k])
	}
	return sb.String()
}

func merge(base Fields, extra ...Fields) Fields {
	n := len(base)
	for _, f := range extra {
		n += len(f)
	}
	if n == 0 {
		return nil
	}
	out := make(Fields, n)
	for k, v := range base {
		out[k] = v
	}
	for _, f := range extra {
		for k, v := range f {
			out[k] = v
		}
	}
	return out
}

// Configure sets the default logger for a CLI run: Debug when verbose,
// otherwise Warn.
func Configure(verbose bool) {
	if verbose {
		DefaultLogger.SetLevel(LevelDebug)
		return
	}
	DefaultLogger.SetLevel(LevelWarn)
}

// Debug logs a debug message using the default logger
func Debug(msg string, fields ...Fields) { DefaultLogger.Debug(msg, fields...) }

// Info logs an info message using the default logger
func Info(msg string, fields ...Fields) { DefaultLogger.Info(msg, fields...) }

// Warn logs a warning message using the default logger
func Warn(msg string, fields ...Fields) { DefaultLogger.Warn(msg, fields...) }

// Error logs an error message using the default logger
func Error(msg string, err error, fields ...Fields) { DefaultLogger.Error(msg, err, fields...) }

package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// LogLevel defines the severity of the log entry.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String makes LogLevel satisfy the fmt.Stringer interface.
func (l LogLevel) String() string {
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

func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo // Default to INFO for unknown
	}
}

// ParseLevel converts a configuration string (debug, info, warn, error) into a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// LogEntry is a structured log entry queued for the sink.
type LogEntry struct {
	Timestamp  time.Time
	Level      LogLevel
	Subsystem  string
	Message    string
	Err        error
	Attributes []slog.Attr
}

// Options configures the process-wide logger.
type Options struct {
	Level LogLevel
	// Output receives formatted records. Defaults to os.Stderr; stdout is
	// reserved for the stdio transport.
	Output io.Writer
	// Format is "text" (default) or "json".
	Format string
	// BufferSize bounds the number of queued entries. Entries beyond it are dropped.
	BufferSize int
}

const defaultBufferSize = 2048

// sink drains queued entries into a slog.Handler on a single goroutine.
type sink struct {
	handler slog.Handler
	entries chan LogEntry
	done    chan struct{}
	closed  atomic.Bool
}

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
	activeSink    *sink
	dropped       atomic.Uint64
)

// Init initializes the asynchronous logger. It should be called once at startup;
// calling it again closes the previous sink first.
func Init(opts Options) {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = defaultBufferSize
	}

	handlerOpts := &slog.HandlerOptions{
		Level: opts.Level.SlogLevel(),
	}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(opts.Output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(opts.Output, handlerOpts)
	}

	s := &sink{
		handler: handler,
		entries: make(chan LogEntry, opts.BufferSize),
		done:    make(chan struct{}),
	}

	mu.Lock()
	previous := activeSink
	activeSink = s
	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
	mu.Unlock()

	if previous != nil {
		previous.close()
	}

	go s.run()
}

// InitForCLI initializes logging for short-lived CLI commands.
func InitForCLI(filterLevel LogLevel, output io.Writer) {
	Init(Options{Level: filterLevel, Output: output})
}

// Close flushes queued entries and stops the sink. Safe to call more than once.
func Close() {
	mu.Lock()
	s := activeSink
	activeSink = nil
	mu.Unlock()

	if s != nil {
		s.close()
	}
}

// Dropped reports how many entries were discarded because the sink was full.
func Dropped() uint64 {
	return dropped.Load()
}

// Logger returns the slog logger backing the sink, for libraries that want a *slog.Logger.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if defaultLogger == nil {
		return slog.Default()
	}
	return defaultLogger
}

func (s *sink) run() {
	defer close(s.done)
	for entry := range s.entries {
		s.write(entry)
	}
}

// write never propagates a handler failure to the caller.
func (s *sink) write(entry LogEntry) {
	defer func() {
		_ = recover()
	}()

	ctx := context.Background()
	level := entry.Level.SlogLevel()
	if !s.handler.Enabled(ctx, level) {
		return
	}

	record := slog.NewRecord(entry.Timestamp, level, entry.Message, 0)
	record.AddAttrs(slog.String("subsystem", entry.Subsystem))
	if entry.Err != nil {
		record.AddAttrs(slog.String("error", entry.Err.Error()))
	}
	record.AddAttrs(entry.Attributes...)

	_ = s.handler.Handle(ctx, record)
}

func (s *sink) enqueue(entry LogEntry) {
	if s.closed.Load() {
		dropped.Add(1)
		return
	}
	defer func() {
		// Send on a channel closed concurrently by Close.
		if recover() != nil {
			dropped.Add(1)
		}
	}()

	select {
	case s.entries <- entry:
	default:
		dropped.Add(1)
	}
}

func (s *sink) close() {
	if s.closed.Swap(true) {
		<-s.done
		return
	}
	close(s.entries)
	<-s.done
}

func logInternal(level LogLevel, subsystem string, err error, attrs []slog.Attr, messageFmt string, args ...interface{}) {
	msg := messageFmt
	if len(args) > 0 {
		msg = fmt.Sprintf(messageFmt, args...)
	}

	now := time.Now()

	mu.RLock()
	s := activeSink
	mu.RUnlock()

	if s == nil {
		fmt.Fprintf(os.Stderr, "[LOGGING_ERROR] Logger not initialized. Log: %s [%s] %s\n", now.Format(time.RFC3339), level, msg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  Error: %v\n", err)
		}
		return
	}

	s.enqueue(LogEntry{
		Timestamp:  now,
		Level:      level,
		Subsystem:  subsystem,
		Message:    msg,
		Err:        err,
		Attributes: attrs,
	})
}

// Debug logs a debug message.
func Debug(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelDebug, subsystem, nil, nil, messageFmt, args...)
}

// Info logs an informational message.
func Info(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelInfo, subsystem, nil, nil, messageFmt, args...)
}

// Warn logs a warning message.
func Warn(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelWarn, subsystem, nil, nil, messageFmt, args...)
}

// Error logs an error message.
func Error(subsystem string, err error, messageFmt string, args ...interface{}) {
	logInternal(LevelError, subsystem, err, nil, messageFmt, args...)
}

// With returns a logger that attaches attrs to every entry, e.g. a request id.
func With(attrs ...slog.Attr) *Scoped {
	return &Scoped{attrs: attrs}
}

// Scoped carries attributes shared by a group of log entries.
type Scoped struct {
	attrs []slog.Attr
}

func (s *Scoped) Debug(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelDebug, subsystem, nil, s.attrs, messageFmt, args...)
}

func (s *Scoped) Info(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelInfo, subsystem, nil, s.attrs, messageFmt, args...)
}

func (s *Scoped) Warn(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelWarn, subsystem, nil, s.attrs, messageFmt, args...)
}

func (s *Scoped) Error(subsystem string, err error, messageFmt string, args ...interface{}) {
	logInternal(LevelError, subsystem, err, s.attrs, messageFmt, args...)
}

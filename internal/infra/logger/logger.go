package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

type Logger struct {
	mu            *sync.Mutex
	fileLogger    *log.Logger
	stdout        io.Writer
	level         Level
	includeStdout bool
	prefix        string
	closer        io.Closer
}

// New opens (or creates) filePath for appending. Info and above are echoed
// to stdout when includeStdout is set.
func New(filePath string, level Level, includeStdout bool) (*Logger, error) {
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	return &Logger{
		mu:            &sync.Mutex{},
		fileLogger:    log.New(f, "", 0),
		stdout:        os.Stdout,
		level:         level,
		includeStdout: includeStdout,
		closer:        f,
	}, nil
}

// NewWriter logs every level at or above level to w.
func NewWriter(w io.Writer, level Level) *Logger {
	return &Logger{
		mu:         &sync.Mutex{},
		fileLogger: log.New(w, "", 0),
		level:      level,
	}
}

// Nop discards everything.
func Nop() *Logger {
	return NewWriter(io.Discard, LevelFatal+1)
}

// With returns a logger sharing the same sinks whose messages are tagged
// with "[prefix]".
func (l *Logger) With(prefix string) *Logger {
	c := *l
	c.closer = nil
	if c.prefix != "" {
		c.prefix = c.prefix + " " + prefix
	} else {
		c.prefix = prefix
	}
	return &c
}

func (l *Logger) log(lvl Level, tag string, format string, v ...interface{}) {
	if lvl < l.level {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	msg := fmt.Sprintf(format, v...)
	fullMsg := fmt.Sprintf("%s [%s] %s", timestamp, tag, msg)
	if l.prefix != "" {
		fullMsg = fmt.Sprintf("%s [%s] [%s] %s", timestamp, tag, l.prefix, msg)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.fileLogger.Println(fullMsg)

	// Debug stays in the file so it doesn't interleave with printed articles
	if l.includeStdout && l.stdout != nil && lvl >= LevelInfo {
		fmt.Fprintln(l.stdout, fullMsg)
	}
}

func ParseLevel(lvl string) Level {
	switch strings.ToLower(lvl) {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l *Logger) Debug(f string, v ...any) { l.log(LevelDebug, "DEBUG", f, v...) }
func (l *Logger) Info(f string, v ...any)  { l.log(LevelInfo, "INFO", f, v...) }
func (l *Logger) Warn(f string, v ...any)  { l.log(LevelWarn, "WARN", f, v...) }
func (l *Logger) Error(f string, v ...any) { l.log(LevelError, "ERROR", f, v...) }
func (l *Logger) Fatal(f string, v ...any) { l.log(LevelFatal, "FATAL", f, v...); os.Exit(1) }

func (l *Logger) Write(p []byte) (n int, err error) {
	// Echo and other libraries often include a newline at the end
	msg := strings.TrimSpace(string(p))
	if msg != "" {
		l.Info("%s", msg)
	}
	return len(p), nil
}

// Close releases the log file opened by New. Derived loggers don't own it.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

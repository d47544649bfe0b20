// Package logging provides the ambient diagnostic logger used across
// the indexing and search pipeline. The MCP tool-invocation protocol
// requires clean stdio, so the logger writes to a file when running as
// an MCP server and to stderr otherwise.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"
)

// Logger is a minimal leveled wrapper around the standard library
// logger with secret masking applied to every line before it is
// written.
type Logger struct {
	mu       sync.Mutex
	file     *os.File
	logger   *log.Logger
	filePath string
}

// NewFileLogger creates a logger that writes timestamped lines to a
// file under dir (created if missing). Used in MCP mode to keep stdio
// clean for protocol framing.
func NewFileLogger(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory %s: %w", dir, err)
	}

	name := fmt.Sprintf("codectx-%s.log", time.Now().Format("2006-01-02T150405"))
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}

	l := &Logger{file: f, filePath: path}
	l.logger = log.New(&maskingWriter{w: f}, "[codectx] ", log.LstdFlags)
	return l, nil
}

// NewStderrLogger creates a logger that writes to stderr, for CLI mode
// where stdio is not reserved for protocol framing.
func NewStderrLogger() *Logger {
	l := &Logger{}
	l.logger = log.New(&maskingWriter{w: os.Stderr}, "[codectx] ", log.LstdFlags)
	return l
}

// NewDiscardLogger returns a logger that drops everything, used in
// tests that don't care about diagnostic output.
func NewDiscardLogger() *Logger {
	l := &Logger{}
	l.logger = log.New(io.Discard, "", 0)
	return l
}

func (l *Logger) Printf(format string, args ...interface{}) {
	if l == nil || l.logger == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Printf(format, args...)
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.Printf("DEBUG "+format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.Printf("WARN "+format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Printf("ERROR "+format, args...)
}

// Path returns the backing file path, or "" for stderr/discard loggers.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.filePath
}

func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// maskingWriter masks sensitive substrings — bearer tokens, api_key=
// and password= assignments — before delegating to the underlying
// writer, so no call site has to remember to redact.
type maskingWriter struct {
	w io.Writer
}

var maskPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(bearer\s+)\S+`),
	regexp.MustCompile(`(?i)(api_key\s*=\s*)\S+`),
	regexp.MustCompile(`(?i)(password\s*=\s*)\S+`),
	regexp.MustCompile(`(?i)(token\s*=\s*)\S+`),
}

func mask(line string) string {
	out := line
	for _, re := range maskPatterns {
		out = re.ReplaceAllString(out, "$1[REDACTED]")
	}
	return out
}

func (m *maskingWriter) Write(p []byte) (int, error) {
	masked := mask(string(p))
	if _, err := io.WriteString(m.w, masked); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Package cli holds the pieces of yunic that face the terminal: build
// information, the run logger, usage text and diagnostic rendering.
package cli

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yunilang/yuni/internal/astio"
)

// Version is the release of the yunic tool itself; the language version it
// accepts is astio.LanguageVersion
const Version = "0.1.0"

// Build describes the running yunic binary
type Build struct {
	Tool     string `json:"tool"`
	Version  string `json:"version"`
	Language string `json:"language"`
	Commit   string `json:"commit,omitempty"`
	Go       string `json:"go"`
	Target   string `json:"target"`
}

// CurrentBuild reads the commit from the embedded VCS stamp when the
// binary was built from a checkout
func CurrentBuild(tool string) Build {
	b := Build{
		Tool:     tool,
		Version:  Version,
		Language: astio.LanguageVersion,
		Go:       runtime.Version(),
		Target:   runtime.GOOS + "/" + runtime.GOARCH,
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		b.Commit = commitOf(info.Settings)
	}
	return b
}

func commitOf(settings []debug.BuildSetting) string {
	var rev string
	dirty := false
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if rev != "" && dirty {
		rev += "+dirty"
	}
	return rev
}

func (b Build) String() string {
	s := fmt.Sprintf("%s %s (language %s, %s %s", b.Tool, b.Version, b.Language, b.Go, b.Target)
	if b.Commit != "" {
		s += ", commit " + b.Commit
	}
	return s + ")"
}

// WriteVersion prints the build of tool as one line, or as JSON
func WriteVersion(w io.Writer, tool string, asJSON bool) error {
	b := CurrentBuild(tool)
	if asJSON {
		return WriteJSON(w, b)
	}
	_, err := fmt.Fprintln(w, b)
	return err
}

// ====== Logging ======

// Logger provides leveled logging for yunic. Every line carries the run id
// so that lines from functions analysed in parallel can be correlated.
// It is safe for concurrent use.
type Logger struct {
	Verbose   bool
	DebugMode bool
	RunID     string

	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

// NewLoggerTo creates a logger writing to w with a fresh run id
func NewLoggerTo(w io.Writer, verbose, debug bool) *Logger {
	return &Logger{
		Verbose:   verbose,
		DebugMode: debug,
		RunID:     uuid.NewString(),
		out:       w,
		now:       time.Now,
	}
}

func (l *Logger) log(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "[%s] %s %s: %s\n", level, l.now().Format("15:04:05"), l.shortID(), fmt.Sprintf(format, args...))
}

func (l *Logger) shortID() string {
	if len(l.RunID) >= 8 {
		return l.RunID[:8]
	}
	return l.RunID
}

// Info logs an info message when verbose
func (l *Logger) Info(format string, args ...interface{}) {
	if l.Verbose || l.DebugMode {
		l.log("INFO", format, args...)
	}
}

// Debug logs a debug message when debugging
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.DebugMode {
		l.log("DEBUG", format, args...)
	}
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log("WARN", format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log("ERROR", format, args...)
}

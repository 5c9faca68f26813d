package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

type level int

const (
	levelVerbose level = iota
	levelInfo
	levelWarn
	levelError
)

// ConsoleLogger writes one line per message. Level tags are colored when
// the writer is a color-capable terminal and plain otherwise.
type ConsoleLogger struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
	tags    map[level]string
}

// NewConsoleLogger logs to stderr. Verbose messages are dropped unless
// verbose is set.
func NewConsoleLogger(verbose bool) *ConsoleLogger {
	return NewConsoleLoggerTo(os.Stderr, verbose)
}

func NewConsoleLoggerTo(out io.Writer, verbose bool) *ConsoleLogger {
	r := lipgloss.NewRenderer(out)
	tag := func(text string, color lipgloss.Color) string {
		return r.NewStyle().Foreground(color).Render(text) + " "
	}
	return &ConsoleLogger{
		out:     out,
		verbose: verbose,
		tags: map[level]string{
			levelVerbose: tag("[VERBOSE]", lipgloss.Color("245")),
			levelInfo:    "",
			levelWarn:    tag("[WARN]", lipgloss.Color("214")),
			levelError:   tag("[ERROR]", lipgloss.Color("196")),
		},
	}
}

func (l *ConsoleLogger) Verbose(format string, args ...interface{}) {
	if l.verbose {
		l.log(levelVerbose, format, args)
	}
}

func (l *ConsoleLogger) Info(format string, args ...interface{}) {
	l.log(levelInfo, format, args)
}

func (l *ConsoleLogger) Warn(format string, args ...interface{}) {
	l.log(levelWarn, format, args)
}

func (l *ConsoleLogger) Error(format string, args ...interface{}) {
	l.log(levelError, format, args)
}

func (l *ConsoleLogger) log(lv level, format string, args []interface{}) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, l.tags[lv]+msg)
}

// Package logging builds the console logger shared by every feasible component.
//
// There is no package-level logger: callers construct one with New and pass it
// down as a logrus.FieldLogger.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/sirupsen/logrus"
)

// StatusField marks an Info entry as a success message.
const StatusField = "status"

// lineWidth is the column count used by Aligned.
const lineWidth = 80

// Options configures the logger.
type Options struct {
	// Quiet suppresses everything below error level.
	Quiet bool
	// Verbose enables debug output. Ignored when Quiet is set.
	Verbose bool
	// NoColor disables lipgloss styling.
	NoColor bool
	// Out receives debug, info and success lines. Defaults to os.Stdout.
	Out io.Writer
	// ErrOut receives warnings and errors. Defaults to os.Stderr.
	ErrOut io.Writer
}

// New creates a logger configured by opts.
func New(opts Options) *logrus.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	errOut := opts.ErrOut
	if errOut == nil {
		errOut = os.Stderr
	}

	level := logrus.InfoLevel
	switch {
	case opts.Quiet:
		level = logrus.ErrorLevel
	case opts.Verbose:
		level = logrus.DebugLevel
	}

	log := logrus.New()
	log.SetLevel(level)
	log.SetOutput(io.Discard)
	log.SetFormatter(&consoleFormatter{noColor: opts.NoColor})
	log.AddHook(&splitHook{out: out, errOut: errOut})
	return log
}

// Discard returns a logger that drops every entry. Useful in tests.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// Success logs msg as a success line.
func Success(log logrus.FieldLogger, msg string) {
	log.WithField(StatusField, "success").Info(msg)
}

// Aligned pads title and message with dots to the console width.
func Aligned(title, message string) string {
	fill := lineWidth - runewidth.StringWidth(title) - runewidth.StringWidth(message)
	if fill < 1 {
		fill = 1
	}
	return title + strings.Repeat(".", fill) + message
}

// splitHook writes formatted entries to stdout or stderr depending on level.
type splitHook struct {
	out    io.Writer
	errOut io.Writer
}

func (h *splitHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *splitHook) Fire(entry *logrus.Entry) error {
	line, err := entry.Logger.Formatter.Format(entry)
	if err != nil {
		return err
	}
	w := h.out
	if entry.Level <= logrus.WarnLevel {
		w = h.errOut
	}
	_, err = w.Write(line)
	return err
}

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	debugStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	fieldStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// consoleFormatter renders entries as plain console lines, coloured by level.
type consoleFormatter struct {
	noColor bool
}

func (f *consoleFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer

	msg := entry.Message
	style := lipgloss.NewStyle()
	switch {
	case entry.Level <= logrus.ErrorLevel:
		style = errorStyle
	case entry.Level == logrus.WarnLevel:
		style = warnStyle
	case entry.Level >= logrus.DebugLevel:
		style = debugStyle
	case entry.Data[StatusField] == "success":
		style = successStyle
	}
	if f.noColor {
		b.WriteString(msg)
	} else {
		b.WriteString(style.Render(msg))
	}

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if k == StatusField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		field := fmt.Sprintf(" %s=%v", k, entry.Data[k])
		if f.noColor {
			b.WriteString(field)
		} else {
			b.WriteString(fieldStyle.Render(field))
		}
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

// Package output provides formatted output utilities for the CLI.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Prefix marks lines printed by tsk itself, as opposed to task output.
const Prefix = "[tsk]"

// Writer handles CLI output formatting.
type Writer struct {
	out   io.Writer
	err   io.Writer
	color bool
	quiet bool
}

// New creates a new Writer with default settings.
func New() *Writer {
	return &Writer{
		out:   os.Stdout,
		err:   os.Stderr,
		color: isTerminal(os.Stdout),
	}
}

// NewWithWriters creates a Writer with custom io.Writers (for testing).
func NewWithWriters(out, err io.Writer, color bool) *Writer {
	return &Writer{
		out:   out,
		err:   err,
		color: color,
	}
}

// SetQuiet enables or disables quiet mode.
func (w *Writer) SetQuiet(quiet bool) {
	w.quiet = quiet
}

// Color reports whether output is colorized.
func (w *Writer) Color() bool {
	return w.color
}

// Println writes a line to stdout.
func (w *Writer) Println(format string, args ...any) {
	fmt.Fprintf(w.out, format+"\n", args...)
}

// Errorln writes a line to stderr.
func (w *Writer) Errorln(format string, args ...any) {
	fmt.Fprintf(w.err, format+"\n", args...)
}

// Warning prints a warning message to stderr.
func (w *Writer) Warning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	w.Errorln("%s %s", w.paint(warnColor, "warning:"), msg)
}

// ErrorPrefix prints an error message with the tsk prefix to stderr.
func (w *Writer) ErrorPrefix(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprint(w.err, w.prefixed(msg+"\n", errorColor))
}

// prefixed returns s with the tsk prefix at the start of every line.
func (w *Writer) prefixed(s string, c *color.Color) string {
	if s == "" {
		return ""
	}
	prefix := w.paint(c, Prefix)
	var b strings.Builder
	for _, line := range strings.SplitAfter(s, "\n") {
		if line == "" {
			continue
		}
		b.WriteString(prefix)
		b.WriteByte(' ')
		b.WriteString(line)
	}
	return b.String()
}

// Command announces a command about to run for task.
func (w *Writer) Command(task, line string) {
	if w.quiet {
		return
	}
	fmt.Fprint(w.out, w.prefixed(fmt.Sprintf("%s: %s\n", w.paint(taskColor, task), line), prefixColor))
}

// DryRun prints a command that would run for task. A non-empty script body
// is printed below it, indented.
func (w *Writer) DryRun(task, line, script string) {
	fmt.Fprint(w.out, w.prefixed(fmt.Sprintf("%s: %s\n", w.paint(taskColor, task), line), dryRunColor))
	if script == "" {
		return
	}
	for _, l := range strings.Split(strings.TrimRight(script, "\n"), "\n") {
		w.Println("    %s", w.paint(dimColor, l))
	}
}

// ConfigFile prints a config file path as a heading.
func (w *Writer) ConfigFile(path string, heading bool) {
	p := w.paint(pathColor, path)
	if heading {
		w.Println("%s:", p)
		return
	}
	w.Println("%s", p)
}

// TaskName prints a task name list item.
func (w *Writer) TaskName(name string, private bool) {
	if private {
		w.Println(" - %s %s", w.paint(taskColor, name), w.paint(errorColor, "(private)"))
		return
	}
	w.Println(" - %s", w.paint(taskColor, name))
}

// TaskHelp prints the help text of a task, indented under its name.
func (w *Writer) TaskHelp(help string) {
	const indent = "     "
	help = strings.TrimSpace(help)
	if help == "" {
		w.Println("%s%s", indent, w.paint(warnColor, "No help to display"))
		return
	}
	for _, line := range strings.Split(help, "\n") {
		w.Println("%s%s", indent, w.paint(successColor, line))
	}
}

// TaskDetail prints an indented task detail.
func (w *Writer) TaskDetail(label, value string) {
	w.Println("     %s %s", w.paint(dimColor, label+":"), value)
}

// Empty prints a placeholder line for an empty listing.
func (w *Writer) Empty(msg string) {
	w.Println("  %s", w.paint(errorColor, msg))
}

func (w *Writer) paint(c *color.Color, s string) string {
	if !w.color || c == nil {
		return s
	}
	return c.Sprint(s)
}

// isTerminal returns true if f is a terminal and NO_COLOR is unset.
func isTerminal(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Palette. Colors are forced on here; Writer.color decides whether to use them.
var (
	prefixColor  = enabled(color.FgCyan, color.Bold)
	dryRunColor  = enabled(color.FgYellow, color.Bold)
	taskColor    = enabled(color.FgGreen, color.Bold)
	pathColor    = enabled(color.FgBlue, color.Underline)
	warnColor    = enabled(color.FgYellow)
	errorColor   = enabled(color.FgRed)
	successColor = enabled(color.FgGreen)
	dimColor     = enabled(color.Faint)
)

func enabled(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	c.EnableColor()
	return c
}

// Package logx is the loader's ambient logging: the "log a warning and
// keep going" posture spec.md §7 requires for most failure modes. It
// wraps the standard log.Logger the teacher uses directly (go/cli.go,
// go/cmd/cmd.go) with leveled helpers and, when writing to a terminal,
// the same ANSI coloring idiom the teacher applies to register diffs in
// go/models/status.go.
package logx

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/mgutz/ansi"
)

// Level orders the four severities logx knows about, matching spec.md
// §7's taxonomy: Debug for trace-level detail, Info for the facade's
// milestones, Warn for recoverable skip/ignore decisions, Error for the
// few conditions spec.md treats as severe enough to still not abort.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

var names = map[Level]string{Debug: "DEBUG", Info: "INFO", Warn: "WARN", Error: "ERROR"}
var colors = map[Level]string{
	Debug: ansi.ColorCode("cyan"),
	Info:  ansi.ColorCode("green"),
	Warn:  ansi.ColorCode("yellow+b"),
	Error: ansi.ColorCode("red+b"),
}

// Logger is a leveled wrapper around a single underlying *log.Logger.
// Level gates what actually gets written, the way a verbose flag would in
// the teacher's CLI (go/cli.go's -v).
type Logger struct {
	min   Level
	color bool
	l     *log.Logger
}

// New builds a Logger writing to w at or above min severity. Color is
// only ever used when w looks like a terminal colorable knows how to
// wrap; anything else (a file, a pipe, a test's bytes.Buffer) gets plain
// text, matching the usual "don't put escape codes in a log file" rule.
func New(w io.Writer, min Level) *Logger {
	color := false
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		w = colorable.NewColorable(f)
		color = true
	}
	return &Logger{min: min, color: color, l: log.New(w, "", log.LstdFlags)}
}

// Default is the logger the loader facade uses when the caller doesn't
// supply one, writing to stderr at Info and above.
func Default() *Logger { return New(os.Stderr, Info) }

func (lg *Logger) log(lvl Level, format string, args ...interface{}) {
	if lvl < lg.min {
		return
	}
	tag := names[lvl]
	if lg.color {
		tag = colors[lvl] + tag + ansi.Reset
	}
	lg.l.Output(3, fmt.Sprintf("[%s] %s", tag, fmt.Sprintf(format, args...)))
}

func (lg *Logger) Debugf(format string, args ...interface{}) { lg.log(Debug, format, args...) }
func (lg *Logger) Infof(format string, args ...interface{})  { lg.log(Info, format, args...) }
func (lg *Logger) Warnf(format string, args ...interface{})  { lg.log(Warn, format, args...) }
func (lg *Logger) Errorf(format string, args ...interface{}) { lg.log(Error, format, args...) }

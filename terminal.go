package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Reporter receives the user-visible status events of a build. The
// scheduler calls Status when a job starts, then exactly one of Ok,
// Warning or Fail when it finishes. Print writes command output as is.
type Reporter interface {
	Info(message string)
	Print(text string)
	Status(message string)
	Ok()
	Warning(detail string)
	Fail(detail string)
}

const (
	SMILE  = ":)"
	NORMAL = `:\`
	FROWN  = ":("
)

const plainWidth = 79

type colors struct {
	message, ok, warning, fail, end string
}

var fancyColors = colors{
	message: "\033[44m\033[37m",
	ok:      "\033[42m\033[37m",
	warning: "\033[43m\033[30m",
	fail:    "\033[41m\033[37m",
	end:     "\033[0m",
}

// Terminal prints status lines padded to the terminal width with an
// outcome glyph at the end.
type Terminal struct {
	w             io.Writer
	width         int
	colors        colors
	messageLength int
}

// NewTerminal returns a plain terminal (no color, 79 columns) unless
// fancy is set and w is a tty, in which case the real width and ANSI
// colors are used.
func NewTerminal(w io.Writer, fancy bool) *Terminal {
	t := &Terminal{w: w, width: plainWidth}
	if !fancy {
		return t
	}
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return t
	}
	if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 3 {
		t.width = width
	}
	t.colors = fancyColors
	return t
}

func (t *Terminal) pad(length int, padChar string) string {
	i := t.width - 3
	if length > t.width-3 {
		i = t.width*(length/t.width+1) - 3
	}
	if i <= length {
		return ""
	}
	return strings.Repeat(padChar, i-length)
}

func (t *Terminal) Info(message string) {
	fmt.Fprintf(t.w, "%s%s%s\n", t.colors.message, message, t.colors.end)
	t.messageLength = 0
}

func (t *Terminal) Print(text string) {
	fmt.Fprintln(t.w, text)
}

func (t *Terminal) Status(message string) {
	message += " ..."
	t.messageLength = len(message)
	fmt.Fprint(t.w, message)
}

func (t *Terminal) Ok() {
	fmt.Fprintf(t.w, "%s%s%s%s\n", t.pad(t.messageLength, " "), t.colors.ok, SMILE, t.colors.end)
	t.messageLength = 0
}

func (t *Terminal) Warning(detail string) {
	t.finish(t.colors.warning, NORMAL, detail)
}

func (t *Terminal) Fail(detail string) {
	t.finish(t.colors.fail, FROWN, detail)
}

func (t *Terminal) finish(color, glyph, detail string) {
	msg := fmt.Sprintf("%s%s%s%s\n", t.pad(t.messageLength, "."), color, glyph, t.colors.end)
	if detail != "" {
		msg += detail + "\n"
	}
	t.messageLength = 0
	fmt.Fprint(t.w, msg)
}

// Exit prints the final fatal message.
func (t *Terminal) Exit(message string) {
	if t.messageLength > 0 {
		fmt.Fprintln(t.w)
		t.messageLength = 0
	}
	fmt.Fprintf(t.w, "%s%s Exiting ...%s\n", t.colors.fail, message, t.colors.end)
}

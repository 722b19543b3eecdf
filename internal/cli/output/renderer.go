// Package output renders command results for the leapdb CLI.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/term"
)

// Mode selects the result format.
type Mode string

// Output modes.
const (
	ModeTable    Mode = "table"
	ModeJSON     Mode = "json"
	ModeCSV      Mode = "csv"
	ModeMarkdown Mode = "md"
)

// Modes lists the accepted --output values.
func Modes() []string {
	return []string{string(ModeTable), string(ModeJSON), string(ModeCSV), string(ModeMarkdown)}
}

// ParseMode maps a user-supplied format name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table", "text":
		return ModeTable, nil
	case "json":
		return ModeJSON, nil
	case "csv":
		return ModeCSV, nil
	case "md", "markdown":
		return ModeMarkdown, nil
	}
	return "", errors.Newf("unknown output format %q (expected one of %s)", s, strings.Join(Modes(), ", "))
}

// Renderer writes results and messages in the selected mode.
type Renderer struct {
	w      io.Writer
	errW   io.Writer
	mode   Mode
	isTTY  bool
	styles *Styles
}

// NewRenderer creates a renderer. Styles are colored only when w is a
// terminal.
func NewRenderer(w, errW io.Writer, mode Mode) *Renderer {
	tty := IsTerminal(w)
	styles := PlainStyles()
	if tty {
		styles = DefaultStyles()
	}
	return &Renderer{w: w, errW: errW, mode: mode, isTTY: tty, styles: styles}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w any) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Mode returns the output mode.
func (r *Renderer) Mode() Mode { return r.mode }

// IsTTY reports whether output goes to a terminal.
func (r *Renderer) IsTTY() bool { return r.isTTY }

// Println writes a line to the result writer.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.w, a...)
}

// Printf writes formatted text to the result writer.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.w, format, a...)
}

// Success writes a success message.
func (r *Renderer) Success(msg string) {
	r.Println(r.styles.Success.Render(msg))
}

// Muted writes a low-emphasis message.
func (r *Renderer) Muted(msg string) {
	r.Println(r.styles.Muted.Render(msg))
}

// Header writes a section header.
func (r *Renderer) Header(level int, title string) {
	if r.mode == ModeMarkdown {
		r.Println(FormatHeader(level, title))
		return
	}
	style := r.styles.Header1
	if level > 1 {
		style = r.styles.Header2
	}
	r.Println(style.Render(title))
}

// Error writes an error message to the error writer.
func (r *Renderer) Error(err error) {
	_, _ = fmt.Fprintln(r.errW, r.styles.Error.Render("Error: ")+err.Error())
}

// Warning writes a warning to the error writer.
func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintln(r.errW, r.styles.Warning.Render("Warning: ")+msg)
}

// FormatHeader returns a markdown header.
func FormatHeader(level int, title string) string {
	return strings.Repeat("#", level) + " " + title
}

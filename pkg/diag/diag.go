// Package diag defines the compiler's error taxonomy and renders diagnostics
// anchored to a byte offset of the source text.
package diag

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/xplshn/toycc/pkg/config"
	"github.com/xplshn/toycc/pkg/token"
)

type Kind int

const (
	Tokenization Kind = iota
	UnexpectedToken
	InvalidAssignTarget
	DivisionByZero
	LiteralTooLarge
)

var kindNames = [...]string{
	Tokenization:        "tokenization error",
	UnexpectedToken:     "unexpected token",
	InvalidAssignTarget: "invalid assignment target",
	DivisionByZero:      "division by zero",
	LiteralTooLarge:     "literal too large",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a fatal diagnostic. Pos is the byte offset of the offending token
// and Len its length (0 for end of input).
type Error struct {
	Kind Kind
	Pos  int
	Len  int
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("offset %d: %s", e.Pos, e.Msg) }

// At builds an Error anchored at tok.
func At(tok token.Token, kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Pos: tok.Pos, Len: tok.Len, Msg: fmt.Sprintf(format, args...)}
}

// Warning is a non-fatal diagnostic tagged with the flag that controls it.
type Warning struct {
	Flag config.Warning
	Pos  int
	Len  int
	Msg  string
}

// Warnings collects warnings that are enabled in the configuration.
type Warnings struct {
	cfg  *config.Config
	List []Warning
}

func NewWarnings(cfg *config.Config) *Warnings { return &Warnings{cfg: cfg} }

// Warn records a warning unless its flag is disabled.
func (ws *Warnings) Warn(wt config.Warning, tok token.Token, format string, args ...any) {
	if ws == nil || !ws.cfg.IsWarningEnabled(wt) {
		return
	}
	ws.List = append(ws.List, Warning{Flag: wt, Pos: tok.Pos, Len: tok.Len, Msg: fmt.Sprintf(format, args...)})
}

// Source is the named program text diagnostics are rendered against.
type Source struct {
	Name string
	Text string
}

// LineCol converts a byte offset into 1-based line and column numbers.
func (s Source) LineCol(pos int) (line, col int) {
	if pos > len(s.Text) {
		pos = len(s.Text)
	}
	line = 1 + strings.Count(s.Text[:pos], "\n")
	col = pos - (strings.LastIndexByte(s.Text[:pos], '\n') + 1) + 1
	return line, col
}

// lineAt returns the full source line that contains pos.
func (s Source) lineAt(pos int) string {
	if pos > len(s.Text) {
		pos = len(s.Text)
	}
	start := strings.LastIndexByte(s.Text[:pos], '\n') + 1
	end := strings.IndexByte(s.Text[pos:], '\n')
	if end < 0 {
		return s.Text[start:]
	}
	return s.Text[start : pos+end]
}

// Printer writes diagnostics as "name:line:col: error: msg" followed by the
// offending source line and a caret under the offset.
type Printer struct {
	W     io.Writer
	Src   Source
	Color bool
}

// NewStderrPrinter colours its output when stderr is a terminal.
func NewStderrPrinter(src Source) *Printer {
	return &Printer{W: os.Stderr, Src: src, Color: term.IsTerminal(int(os.Stderr.Fd()))}
}

func (p *Printer) paint(code, s string) string {
	if !p.Color {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

func (p *Printer) header(pos int, label, color, msg string) {
	line, col := p.Src.LineCol(pos)
	fmt.Fprintf(p.W, "%s:%d:%d: %s %s\n", p.Src.Name, line, col, p.paint(color, label+":"), msg)
}

// caret keeps tabs from the line prefix so the marker lines up with the
// column however the terminal expands them.
func (p *Printer) caret(pos, length int) {
	_, col := p.Src.LineCol(pos)
	line := p.Src.lineAt(pos)
	fmt.Fprintf(p.W, "  %s\n", line)

	var pad strings.Builder
	for _, c := range []byte(line[:col-1]) {
		if c == '\t' {
			pad.WriteByte('\t')
		} else {
			pad.WriteByte(' ')
		}
	}
	marker := "^"
	if length > 1 {
		marker += strings.Repeat("~", length-1)
	}
	fmt.Fprintf(p.W, "  %s%s\n", pad.String(), p.paint("32", marker))
}

// Error renders err. Errors that do not carry a position print a bare header.
func (p *Printer) Error(err error) {
	var d *Error
	if !errors.As(err, &d) {
		fmt.Fprintf(p.W, "%s: %s %v\n", p.Src.Name, p.paint("31", "error:"), err)
		return
	}
	p.header(d.Pos, "error", "31", d.Msg)
	p.caret(d.Pos, d.Len)
}

func (p *Printer) Warning(w Warning, cfg *config.Config) {
	p.header(w.Pos, "warning", "33", fmt.Sprintf("%s [-W%s]", w.Msg, cfg.Warnings[w.Flag].Name))
	p.caret(w.Pos, w.Len)
}

// Render writes err against the named source text.
func Render(w io.Writer, name, src string, err error, color bool) {
	p := &Printer{W: w, Src: Source{Name: name, Text: src}, Color: color}
	p.Error(err)
}

// Package bufwriter accumulates rendered SQL as a sequence of statements and comments.
package bufwriter

import (
	"fmt"
	"strings"
)

type entry struct {
	text    string
	comment bool
}

// Writer collects statements without terminators so that they can be executed
// one at a time, and renders them as a script on demand.
type Writer struct {
	entries []entry
}

// Statementf appends one statement.
func (w *Writer) Statementf(format string, args ...any) {
	w.entries = append(w.entries, entry{text: strings.TrimSpace(fmt.Sprintf(format, args...))})
}

// Commentf appends a comment line. Comments appear in scripts only.
func (w *Writer) Commentf(format string, args ...any) {
	w.entries = append(w.entries, entry{text: fmt.Sprintf(format, args...), comment: true})
}

// Statements returns the statements written since the last Reset.
func (w *Writer) Statements() []string {
	stmts := make([]string, 0, len(w.entries))
	for _, e := range w.entries {
		if !e.comment {
			stmts = append(stmts, e.text)
		}
	}
	return stmts
}

// String renders the accumulated entries as a script.
func (w *Writer) String() string {
	var sb strings.Builder
	for _, e := range w.entries {
		if e.comment {
			sb.WriteString("-- ")
			sb.WriteString(e.text)
			sb.WriteString("\n")
			continue
		}
		sb.WriteString(e.text)
		sb.WriteString(";\n")
	}
	return sb.String()
}

// Reset discards everything written so far.
func (w *Writer) Reset() {
	w.entries = nil
}

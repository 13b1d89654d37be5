// Package logicalline fuses physical source lines into logical lines: the
// unit the block translator (pkg/block) consumes. Physical lines are joined
// whenever an expression bracket is left open, the line ends in a
// continuation operator, the next line opens with a continuation starter,
// or a braceless `for` header spans multiple lines (spec §4.2).
package logicalline

import "github.com/braceless-cpp/blcc/pkg/token"

// LogicalLine is a maximal run of consecutive physical lines fused by the
// continuation rules in Group.
type LogicalLine struct {
	// StartLine is the 1-based index of the first raw line.
	StartLine int
	// RawLines is the exact, contiguous, non-overlapping window of input
	// text (no line terminators) this logical line covers.
	RawLines []string
	// Tokens lists every token whose Line falls within the window, in
	// source order.
	Tokens []token.Token
	// MeaningfulTokens is Tokens with Comment tokens removed.
	MeaningfulTokens []token.Token
}

// EndLine is the 1-based index of the last raw line in the window.
func (l LogicalLine) EndLine() int {
	return l.StartLine + len(l.RawLines) - 1
}

// Indent is the visual column of the first non-blank byte of the first raw
// line, counting each tab as tabWidth columns (spec §3).
func (l LogicalLine) Indent(tabWidth int) int {
	if len(l.RawLines) == 0 {
		return 0
	}
	return VisualIndent(l.RawLines[0], tabWidth)
}

// VisualIndent computes the visual column of the first non-blank byte of a
// single raw line.
func VisualIndent(line string, tabWidth int) int {
	col := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case ' ':
			col++
		case '\t':
			col += tabWidth
		default:
			return col
		}
	}
	return col
}

// LeadingWhitespace returns the exact leading whitespace bytes of the first
// raw line (used verbatim when the translator emits a matching closing
// brace, per spec §3's whitespace_stack).
func (l LogicalLine) LeadingWhitespace() string {
	if len(l.RawLines) == 0 {
		return ""
	}
	return leadingWhitespace(l.RawLines[0])
}

func leadingWhitespace(line string) string {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return line[:i]
}

// IsBlank reports whether the logical line carries no tokens at all.
func (l LogicalLine) IsBlank() bool {
	return len(l.Tokens) == 0
}

// IsCommentOnly reports whether every token is a comment (tokens present,
// but MeaningfulTokens is empty).
func (l LogicalLine) IsCommentOnly() bool {
	return len(l.Tokens) > 0 && len(l.MeaningfulTokens) == 0
}

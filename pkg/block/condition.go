package block

import (
	"strings"

	"github.com/braceless-cpp/blcc/pkg/logicalline"
	"github.com/braceless-cpp/blcc/pkg/token"
)

// joinedText reassembles a logical line's raw lines into one string,
// preserving internal newlines and all original spacing exactly.
func joinedText(l logicalline.LogicalLine) string {
	return strings.Join(l.RawLines, "\n")
}

// offsetOf returns tok's byte offset into joinedText(l).
func offsetOf(l logicalline.LogicalLine, tok token.Token) int {
	off := 0
	for i := 0; i < tok.Line-l.StartLine; i++ {
		off += len(l.RawLines[i]) + 1 // +1 for the newline joinedText inserts
	}
	return off + tok.Column - 1
}

func endOffsetOf(l logicalline.LogicalLine, tok token.Token) int {
	return offsetOf(l, tok) + len(tok.Spelling)
}

// conditionKeywordCount reports how many leading meaningful tokens form the
// control keyword (1, or 2 for `else if`), and whether this line's keyword
// triggers condition wrapping at all (spec §4.3 "Condition wrapping").
func conditionKeywordCount(meaningful []token.Token) (count int, triggers bool) {
	if len(meaningful) == 0 {
		return 0, false
	}
	switch meaningful[0].Spelling {
	case "if", "for", "while", "switch":
		return 1, true
	case "else":
		if len(meaningful) > 1 && meaningful[1].Spelling == "if" {
			return 2, true
		}
	}
	return 0, false
}

// isFullyWrapped reports whether cond (the condition's meaningful tokens,
// bracketing punctuation included) is already wrapped in one matching pair
// of parens spanning its entire length: the first-opened, first-closed
// check of spec §4.3. `(a) && b` is not fully wrapped even though it
// starts with `(`, because that paren closes before the end.
func isFullyWrapped(cond []token.Token) bool {
	if len(cond) == 0 || cond[0].Spelling != "(" {
		return false
	}
	depth := 0
	for i, tk := range cond {
		switch tk.Spelling {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				return i == len(cond)-1
			}
		}
	}
	return false
}

// wrapHeader rewrites the joined text of l so the condition between the
// control keyword(s) (the first kwCount meaningful tokens) and endTok
// (exclusive) is parenthesized, inserting parens only if it isn't already
// fully wrapped. Everything outside that span, including endTok and
// whatever follows it, passes through untouched.
func wrapHeader(l logicalline.LogicalLine, meaningful []token.Token, kwCount int, endIdx int) string {
	joined := joinedText(l)
	cond := meaningful[kwCount:endIdx]
	if isFullyWrapped(cond) || len(cond) == 0 {
		return joined
	}
	kwEnd := endOffsetOf(l, meaningful[kwCount-1])
	condEnd := offsetOf(l, meaningful[endIdx])
	span := joined[kwEnd:condEnd]
	inner := strings.TrimSpace(span)
	trailing := span[len(strings.TrimRight(span, " \t\r\n")):]
	return joined[:kwEnd] + " (" + inner + ")" + trailing + joined[condEnd:]
}

// stripOuterParens removes one fully-matching outer paren pair, if s is
// wrapped by one, leaving the interior untouched otherwise.
func stripOuterParens(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return s
	}
	depth := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				if i == len(s)-1 {
					return strings.TrimSpace(s[1 : len(s)-1])
				}
				return s
			}
		}
	}
	return s
}

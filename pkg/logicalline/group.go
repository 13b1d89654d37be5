package logicalline

import (
	"strings"

	"github.com/braceless-cpp/blcc/pkg/token"
)

// continuationOperators are punctuators that, as the last meaningful token
// of a line, imply the expression continues on the next physical line.
// ++ and -- are deliberately excluded: they terminate an expression rather
// than continue one.
var continuationOperators = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"&": true, "|": true, "^": true, "=": true, "<": true, ">": true,
	",": true, "(": true, "[": true, ".": true, "::": true, "->": true,
	"&&": true, "||": true, "==": true, "!=": true, "<=": true, ">=": true,
	"+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"&=": true, "|=": true, "^=": true, "<<=": true, ">>=": true,
	"<<": true, ">>": true,
}

// continuationStarters are punctuators that, as the first meaningful token
// of the following line, pull that line into the current logical line (the
// expression clearly isn't finished yet even though nothing forced it).
var continuationStarters = map[string]bool{
	".": true, ",": true, ")": true, "]": true, "?": true, ":": true,
}

// Group partitions src into logical lines per the fusion rules of spec §4.2.
func Group(src []byte) []LogicalLine {
	lines := splitLines(src)
	toks := token.Lex(src)

	perLine := make([][]token.Token, len(lines)+1) // 1-based
	for _, tk := range toks {
		if tk.Line >= 1 && tk.Line <= len(lines) {
			perLine[tk.Line] = append(perLine[tk.Line], tk)
		}
	}

	var out []LogicalLine
	i := 1 // 1-based physical line cursor
	for i <= len(lines) {
		start := i
		var buf []token.Token
		buf = append(buf, perLine[i]...)
		j := i
		for {
			meaningful := meaningfulOf(buf)
			if isPreprocessorLine(meaningful) {
				break
			}
			fuse := false
			if parenBalance(buf) > 0 {
				fuse = true
			}
			if !fuse && len(meaningful) > 0 && continuationOperators[meaningful[len(meaningful)-1].Spelling] {
				fuse = true
			}
			if !fuse && j+1 <= len(lines) {
				if next := firstMeaningful(perLine[j+1]); next != nil {
					if continuationStarters[next.Spelling] || isStringLiteral(*next) {
						fuse = true
					}
				}
			}
			if !fuse && isUnbracedForHeader(meaningful) {
				fuse = true
			}
			if !fuse || j+1 > len(lines) {
				break
			}
			j++
			buf = append(buf, perLine[j]...)
		}
		out = append(out, LogicalLine{
			StartLine:        start,
			RawLines:         append([]string(nil), lines[start-1:j]...),
			Tokens:           buf,
			MeaningfulTokens: meaningfulOf(buf),
		})
		i = j + 1
	}
	return out
}

// isUnbracedForHeader implements spec §4.2's braceless `for` special case:
// a line opening with `for` whose header hasn't reached `(` yet (or closed
// with `:` / `{`) keeps pulling the next line in.
func isUnbracedForHeader(meaningful []token.Token) bool {
	if len(meaningful) == 0 || meaningful[0].Spelling != "for" {
		return false
	}
	if len(meaningful) >= 2 && meaningful[1].Spelling == "(" {
		return false
	}
	last := meaningful[len(meaningful)-1]
	return last.Spelling != ":" && last.Spelling != "{"
}

func isPreprocessorLine(meaningful []token.Token) bool {
	return len(meaningful) > 0 && meaningful[0].Spelling == "#"
}

func isStringLiteral(tk token.Token) bool {
	return tk.Kind == token.Literal && strings.HasPrefix(strings.TrimLeft(tk.Spelling, "LUuR8"), `"`)
}

func meaningfulOf(toks []token.Token) []token.Token {
	var out []token.Token
	for _, tk := range toks {
		if tk.Kind != token.Comment {
			out = append(out, tk)
		}
	}
	return out
}

func firstMeaningful(toks []token.Token) *token.Token {
	for i := range toks {
		if toks[i].Kind != token.Comment {
			return &toks[i]
		}
	}
	return nil
}

// parenBalance counts unmatched `(` and `[` across the buffer so far. Braces
// are excluded deliberately: brace balance is the block translator's job,
// not the logical-line grouper's (spec §4.2).
func parenBalance(toks []token.Token) int {
	balance := 0
	for _, tk := range toks {
		switch tk.Spelling {
		case "(", "[":
			balance++
		case ")", "]":
			balance--
		}
	}
	return balance
}

// splitLines splits src into raw lines with terminators stripped, matching
// the physical-line numbering the tokenizer reports.
func splitLines(src []byte) []string {
	text := string(src)
	if text == "" {
		return nil
	}
	rawLines := strings.Split(text, "\n")
	// A trailing "\n" produces a spurious empty final element; a file
	// without one genuinely ends mid-line and that line must be kept.
	if len(rawLines) > 0 && rawLines[len(rawLines)-1] == "" && strings.HasSuffix(text, "\n") {
		rawLines = rawLines[:len(rawLines)-1]
	}
	for i, l := range rawLines {
		rawLines[i] = strings.TrimSuffix(l, "\r")
	}
	return rawLines
}

package token

import (
	"strings"
	"unicode/utf8"

	"github.com/golang/glog"
)

// Lex tokenizes src in source order. It never returns an error: lexically
// malformed input degrades to Unknown tokens (spec §7, MalformedLexical).
func Lex(src []byte) []Token {
	lx := &lexer{src: src, line: 1, column: 1}
	var toks []Token
	for {
		tok, ok := lx.next()
		if !ok {
			break
		}
		toks = append(toks, tok)
	}
	return toks
}

type lexer struct {
	src    []byte
	pos    int
	line   int
	column int
}

func (l *lexer) eof() bool { return l.pos >= len(l.src) }

func (l *lexer) peekByte(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

// advance consumes one byte, tracking line/column. Tabs are not expanded
// here; column tracking is byte-granular, and visual indent (tab=4) is a
// concern of pkg/logicalline, not the tokenizer.
func (l *lexer) advance() byte {
	b := l.src[l.pos]
	l.pos++
	if b == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return b
}

func (l *lexer) skipWhitespace() {
	for !l.eof() {
		b := l.src[l.pos]
		if b == ' ' || b == '\t' || b == '\r' || b == '\n' || b == '\v' || b == '\f' {
			l.advance()
			continue
		}
		break
	}
}

func (l *lexer) next() (Token, bool) {
	l.skipWhitespace()
	if l.eof() {
		return Token{}, false
	}

	startLine, startCol := l.line, l.column
	b := l.src[l.pos]

	switch {
	case b == '/' && l.peekByte(1) == '/':
		return l.lexLineComment(startLine, startCol), true
	case b == '/' && l.peekByte(1) == '*':
		return l.lexBlockComment(startLine, startCol), true
	case isIdentStart(b):
		return l.lexIdentOrLiteralPrefix(startLine, startCol), true
	case isDigit(b):
		return l.lexNumber(startLine, startCol), true
	case b == '"':
		return l.lexString(startLine, startCol, ""), true
	case b == '\'':
		return l.lexChar(startLine, startCol), true
	default:
		return l.lexPunctOrUnknown(startLine, startCol), true
	}
}

func (l *lexer) lexLineComment(line, col int) Token {
	var b strings.Builder
	for !l.eof() && l.src[l.pos] != '\n' {
		b.WriteByte(l.advance())
	}
	return Token{Kind: Comment, Spelling: b.String(), Line: line, Column: col}
}

func (l *lexer) lexBlockComment(line, col int) Token {
	var b strings.Builder
	b.WriteByte(l.advance()) // '/'
	b.WriteByte(l.advance()) // '*'
	for !l.eof() {
		if l.src[l.pos] == '*' && l.peekByte(1) == '/' {
			b.WriteByte(l.advance())
			b.WriteByte(l.advance())
			break
		}
		b.WriteByte(l.advance())
	}
	return Token{Kind: Comment, Spelling: b.String(), Line: line, Column: col}
}

// lexIdentOrLiteralPrefix handles identifiers/keywords, and the raw-string
// prefix R"delim(...)delim" and L/u/U/u8 string/char prefixes, which all
// begin with an identifier-shaped lead.
func (l *lexer) lexIdentOrLiteralPrefix(line, col int) Token {
	start := l.pos
	for !l.eof() && isIdentCont(l.src[l.pos]) {
		l.advance()
	}
	ident := string(l.src[start:l.pos])

	if !l.eof() && (l.src[l.pos] == '"' || l.src[l.pos] == '\'') && isStringLiteralPrefix(ident) {
		if l.src[l.pos] == '\'' {
			return l.lexCharWithPrefix(line, col, ident)
		}
		if ident == "R" || strings.HasSuffix(ident, "R") {
			return l.lexRawString(line, col, ident)
		}
		return l.lexString(line, col, ident)
	}

	if IsKeyword(ident) {
		return Token{Kind: Keyword, Spelling: ident, Line: line, Column: col}
	}
	return Token{Kind: Identifier, Spelling: ident, Line: line, Column: col}
}

func isStringLiteralPrefix(s string) bool {
	switch s {
	case "L", "u", "U", "u8", "R", "LR", "uR", "UR", "u8R":
		return true
	}
	return false
}

func (l *lexer) lexString(line, col int, prefix string) Token {
	start := l.pos - len(prefix)
	l.advance() // opening quote
	for !l.eof() {
		c := l.src[l.pos]
		if c == '\\' && !l.eof() {
			l.advance()
			if !l.eof() {
				l.advance()
			}
			continue
		}
		if c == '"' {
			l.advance()
			break
		}
		if c == '\n' {
			// Unterminated string literal: stop at end of line rather than
			// swallowing the rest of the file.
			break
		}
		l.advance()
	}
	// Trailing user-defined-literal suffix, e.g. "..."_fmt
	for !l.eof() && isIdentCont(l.src[l.pos]) {
		l.advance()
	}
	return Token{Kind: Literal, Spelling: string(l.src[start:l.pos]), Line: line, Column: col}
}

// lexRawString handles R"delim(...)delim" forms, where delim is 0-16
// characters excluding parens, backslash, and whitespace.
func (l *lexer) lexRawString(line, col int, prefix string) Token {
	start := l.pos - len(prefix)
	l.advance() // consume '"'
	delimStart := l.pos
	for !l.eof() && l.src[l.pos] != '(' {
		l.advance()
	}
	delim := string(l.src[delimStart:l.pos])
	if !l.eof() {
		l.advance() // consume '('
	}
	closer := ")" + delim + "\""
	for !l.eof() {
		if strings.HasPrefix(string(l.src[l.pos:]), closer) {
			for range closer {
				l.advance()
			}
			break
		}
		l.advance()
	}
	for !l.eof() && isIdentCont(l.src[l.pos]) {
		l.advance()
	}
	return Token{Kind: Literal, Spelling: string(l.src[start:l.pos]), Line: line, Column: col}
}

func (l *lexer) lexChar(line, col int) Token {
	return l.lexCharWithPrefix(line, col, "")
}

func (l *lexer) lexCharWithPrefix(line, col int, prefix string) Token {
	start := l.pos - len(prefix)
	l.advance() // opening quote
	for !l.eof() {
		c := l.src[l.pos]
		if c == '\\' {
			l.advance()
			if !l.eof() {
				l.advance()
			}
			continue
		}
		if c == '\'' {
			l.advance()
			break
		}
		if c == '\n' {
			break
		}
		l.advance()
	}
	for !l.eof() && isIdentCont(l.src[l.pos]) {
		l.advance()
	}
	return Token{Kind: Literal, Spelling: string(l.src[start:l.pos]), Line: line, Column: col}
}

func (l *lexer) lexNumber(line, col int) Token {
	start := l.pos
	// Hex/binary prefix.
	if l.src[l.pos] == '0' && (l.peekByte(1) == 'x' || l.peekByte(1) == 'X' || l.peekByte(1) == 'b' || l.peekByte(1) == 'B') {
		l.advance()
		l.advance()
	}
loop:
	for !l.eof() {
		c := l.src[l.pos]
		switch {
		case isDigit(c):
			l.advance()
		case c == '\'': // digit separator, e.g. 1'000'000
			l.advance()
		case c == '.':
			l.advance()
		case (c == 'e' || c == 'E' || c == 'p' || c == 'P') &&
			(l.peekByte(1) == '+' || l.peekByte(1) == '-' || isDigit(l.peekByte(1))):
			l.advance()
			l.advance()
		case isIdentCont(c):
			l.advance() // hex digits a-f, suffixes u/l/f/ull, etc.
		default:
			break loop
		}
	}
	return Token{Kind: Literal, Spelling: string(l.src[start:l.pos]), Line: line, Column: col}
}

func (l *lexer) lexPunctOrUnknown(line, col int) Token {
	rest := l.src[l.pos:]
	for _, p := range punctuators3 {
		if strings.HasPrefix(string(rest), p) {
			for range p {
				l.advance()
			}
			return Token{Kind: Punctuation, Spelling: p, Line: line, Column: col}
		}
	}
	for _, p := range punctuators2 {
		if strings.HasPrefix(string(rest), p) {
			for range p {
				l.advance()
			}
			return Token{Kind: Punctuation, Spelling: p, Line: line, Column: col}
		}
	}
	if strings.IndexByte(punctuators1, rest[0]) >= 0 {
		b := l.advance()
		return Token{Kind: Punctuation, Spelling: string(b), Line: line, Column: col}
	}

	// Genuinely unrecognized byte (e.g. stray non-ASCII outside an
	// identifier context, or a control character): emit it as Unknown and
	// keep going rather than aborting translation (spec §7).
	glog.V(2).Infof("token: unknown byte %q at %d:%d", rest[0], line, col)
	r, size := utf8.DecodeRune(rest)
	if r == utf8.RuneError && size <= 1 {
		size = 1
	}
	spelling := string(l.src[l.pos : l.pos+size])
	for i := 0; i < size; i++ {
		l.advance()
	}
	return Token{Kind: Unknown, Spelling: spelling, Line: line, Column: col}
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b >= utf8.RuneSelf
}

func isIdentCont(b byte) bool {
	return isIdentStart(b) || isDigit(b)
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

package block

import (
	"strings"

	"github.com/braceless-cpp/blcc/pkg/logicalline"
	"github.com/braceless-cpp/blcc/pkg/token"
)

type pendingEntry struct {
	indent   int
	text     string
	expanded int
}

type translator struct {
	tabWidth         int
	frames           []frame
	pending          []pendingEntry
	output           []Line
	lastExpandedLine int
}

// Translate runs the block translator over an ordered sequence of logical
// lines, producing braced output plus the generated-to-expanded line map
// (spec §4.3, §4.5).
func Translate(lines []logicalline.LogicalLine, tabWidth int) (*Result, error) {
	tr := &translator{
		tabWidth: tabWidth,
		frames:   []frame{{indent: 0, typ: Normal, whitespace: ""}},
	}
	for i, l := range lines {
		if l.IsBlank() || l.IsCommentOnly() {
			tr.buffer(l)
			continue
		}
		indent := l.Indent(tabWidth)
		m := l.MeaningfulTokens
		cls := classify(l)

		if tr.dedent(l, indent, cls, m) {
			continue // do-while merge consumed the whole logical line
		}

		switch cls {
		case classAccessSpecifier, classCaseLabel, classClosingBrace:
			tr.flushAll()
			tr.emit(l, joinedText(l))
		case classBlockStarter:
			tr.handleBlockStarter(l, m, lines, i, indent)
		case classAuthorBraceOpener:
			tr.handleAuthorBraceOpener(l, m, lines, i, indent)
		case classStatement:
			tr.flushAll()
			tr.handleStatement(l, m)
		}
	}
	for len(tr.frames) > 1 {
		top := tr.pop()
		tr.flushAtOrAbove(top.indent)
		tr.emitClosingBrace(top)
	}
	tr.flushAll()
	return &Result{Lines: tr.output}, nil
}

func (tr *translator) pop() frame {
	top := tr.frames[len(tr.frames)-1]
	tr.frames = tr.frames[:len(tr.frames)-1]
	return top
}

// dedent pops frames per spec §4.3's dedent handling, with the access
// specifier and do-while exceptions. Returns true if this logical line was
// fully consumed as a do-while merge (`} while (cond);`).
func (tr *translator) dedent(l logicalline.LogicalLine, indent int, cls class, m []token.Token) bool {
	stop := func(f frame) bool { return f.indent > indent }
	if cls == classAccessSpecifier {
		stop = func(f frame) bool { return f.typ != Class && f.typ != Struct }
	}
	isWhileClose := cls != classAccessSpecifier && len(m) > 0 &&
		m[0].Spelling == "while" && m[len(m)-1].Spelling != ":"

	for len(tr.frames) > 1 && stop(tr.frames[len(tr.frames)-1]) {
		top := tr.frames[len(tr.frames)-1]
		if isWhileClose && top.typ == Do {
			tr.pop()
			tr.flushAtOrAbove(top.indent)
			tr.emitDoWhileClose(top, l, m)
			tr.lastExpandedLine = l.EndLine()
			tr.flushAll()
			return true
		}
		tr.pop()
		tr.flushAtOrAbove(top.indent)
		tr.emitClosingBrace(top)
	}
	return false
}

func (tr *translator) buffer(l logicalline.LogicalLine) {
	for i, raw := range l.RawLines {
		tr.pending = append(tr.pending, pendingEntry{
			indent:   logicalline.VisualIndent(raw, tr.tabWidth),
			text:     raw,
			expanded: l.StartLine + i,
		})
	}
}

// flushAtOrAbove emits every buffered blank/comment line at or above
// threshold now (they belong before the closing brace at that level),
// leaving the rest buffered for a shallower frame or end-of-dedent flush.
func (tr *translator) flushAtOrAbove(threshold int) {
	var keep []pendingEntry
	for _, e := range tr.pending {
		if e.indent >= threshold {
			tr.output = append(tr.output, Line{Text: e.text, Expanded: e.expanded})
			if e.expanded > tr.lastExpandedLine {
				tr.lastExpandedLine = e.expanded
			}
		} else {
			keep = append(keep, e)
		}
	}
	tr.pending = keep
}

// flushAll emits every remaining buffered line: the ones that belong at
// the dedent target, once it's been reached.
func (tr *translator) flushAll() {
	for _, e := range tr.pending {
		tr.output = append(tr.output, Line{Text: e.text, Expanded: e.expanded})
		if e.expanded > tr.lastExpandedLine {
			tr.lastExpandedLine = e.expanded
		}
	}
	tr.pending = nil
}

// emit appends text (possibly spanning several raw lines, e.g. a call
// whose arguments continue onto following physical lines) as output.
// Every resulting physical line is tagged with l's start line: a logical
// line is one mapping unit, so a multi-line statement's closing line
// (the one that gains the synthesized `;`) still maps back to where the
// statement began, not to the physical line it happens to print on
// (spec §8 scenario 6). Buffered blank/comment passthrough lines are the
// one exception to this and carry their own per-line origin, computed in
// buffer() instead. lastExpandedLine still advances to l's true end
// line, so a synthetic closing brace immediately following is positioned
// against the statement's last raw line rather than its first.
func (tr *translator) emit(l logicalline.LogicalLine, text string) {
	for _, part := range strings.Split(text, "\n") {
		tr.output = append(tr.output, Line{Text: part, Expanded: l.StartLine})
	}
	if end := l.EndLine(); end > tr.lastExpandedLine {
		tr.lastExpandedLine = end
	}
}

// emitClosingBrace synthesizes a closing brace for a popped frame. A
// RegularBrace frame's closing `}` was written by the author; it is
// emitted separately when that line itself is processed, not here.
func (tr *translator) emitClosingBrace(f frame) {
	if f.typ == RegularBrace {
		return
	}
	text := f.whitespace + "}"
	if f.typ.needsSemicolonOnClose() {
		text += ";"
	}
	tr.output = append(tr.output, Line{Text: text, Expanded: tr.lastExpandedLine})
}

func (tr *translator) emitDoWhileClose(f frame, l logicalline.LogicalLine, m []token.Token) {
	joined := joinedText(l)
	condStart := endOffsetOf(l, m[0]) // past "while"
	rest := strings.TrimSpace(joined[condStart:])
	rest = strings.TrimSuffix(rest, ";")
	rest = stripOuterParens(strings.TrimSpace(rest))
	text := f.whitespace + "} while (" + rest + ");"
	tr.output = append(tr.output, Line{Text: text, Expanded: l.StartLine})
}

func lookaheadIndent(lines []logicalline.LogicalLine, i, tabWidth, currentIndent int) int {
	for k := i + 1; k < len(lines); k++ {
		if lines[k].IsBlank() || lines[k].IsCommentOnly() {
			continue
		}
		if ni := lines[k].Indent(tabWidth); ni > currentIndent {
			return ni
		}
		break
	}
	return currentIndent + 4
}

func detectBlockType(m []token.Token) BlockType {
	if len(m) > 0 && m[0].Spelling == "do" {
		return Do
	}
	has := func(spelling string) bool {
		for _, t := range m {
			if t.Spelling == spelling {
				return true
			}
		}
		return false
	}
	switch {
	case has("enum"):
		return Enum
	case has("class"):
		return Class
	case has("struct"):
		return Struct
	case has("union"):
		return Union
	case has("switch"):
		return Switch
	case containsLambda(m):
		return Lambda
	default:
		return Normal
	}
}

// rewriteBlockStarterText strips the trailing `:`, wraps the condition in
// parens if the keyword requires it and it isn't already fully wrapped,
// and appends ` {`, preserving any inline trailing comment exactly.
func rewriteBlockStarterText(l logicalline.LogicalLine, m []token.Token) string {
	colonIdx := len(m) - 1
	kwCount, triggers := conditionKeywordCount(m)
	original := joinedText(l)
	colonTok := m[colonIdx]
	condEnd := offsetOf(l, colonTok)
	suffixLen := len(original) - condEnd

	base := original
	if triggers && colonIdx > kwCount {
		base = wrapHeader(l, m, kwCount, colonIdx)
	}
	newColonOffset := len(base) - suffixLen
	prefix := strings.TrimRight(base[:newColonOffset], " \t")
	afterColon := base[newColonOffset+1:]
	trailingComment := strings.TrimSpace(afterColon)

	result := prefix + " {"
	if trailingComment != "" {
		result += " " + trailingComment
	}
	return result
}

func (tr *translator) handleBlockStarter(l logicalline.LogicalLine, m []token.Token, lines []logicalline.LogicalLine, i, indent int) {
	blockType := detectBlockType(m)
	rewritten := rewriteBlockStarterText(l, m)
	ws := l.LeadingWhitespace()

	fused := false
	if m[0].Spelling == "else" || m[0].Spelling == "catch" {
		j := len(tr.output) - 1
		for j >= 0 && strings.TrimSpace(tr.output[j].Text) == "" {
			j--
		}
		if j >= 0 && strings.TrimSpace(tr.output[j].Text) == "}" {
			tr.output = append(tr.output[:j], tr.output[j+1:]...)
			clause := strings.TrimLeft(rewritten, " \t")
			tr.emit(l, ws+"} "+clause)
			fused = true
		}
	}
	if !fused {
		tr.flushAll()
		tr.emit(l, rewritten)
	} else {
		tr.flushAll()
	}

	tr.frames = append(tr.frames, frame{
		indent:     lookaheadIndent(lines, i, tr.tabWidth, indent),
		typ:        blockType,
		whitespace: ws,
	})
}

func (tr *translator) handleAuthorBraceOpener(l logicalline.LogicalLine, m []token.Token, lines []logicalline.LogicalLine, i, indent int) {
	braceIdx := len(m) - 1
	kwCount, triggers := conditionKeywordCount(m)
	text := joinedText(l)
	if triggers && braceIdx > kwCount {
		text = wrapHeader(l, m, kwCount, braceIdx)
	}
	tr.flushAll()
	tr.emit(l, text)
	tr.frames = append(tr.frames, frame{
		indent:     lookaheadIndent(lines, i, tr.tabWidth, indent),
		typ:        RegularBrace,
		whitespace: l.LeadingWhitespace(),
	})
}

func (tr *translator) handleStatement(l logicalline.LogicalLine, m []token.Token) {
	if len(m) == 1 && m[0].Kind == token.Identifier && m[0].Spelling == "pass" {
		return
	}
	if len(tr.frames) > 0 && tr.frames[len(tr.frames)-1].typ == Enum {
		tr.emit(l, joinedText(l))
		return
	}
	text := joinedText(l)
	if needsSemicolon(m) {
		text = insertSemicolon(l, m, text)
	}
	tr.emit(l, text)
}

func needsSemicolon(m []token.Token) bool {
	if len(m) == 0 {
		return false
	}
	last := m[len(m)-1]
	first := m[0]
	switch last.Spelling {
	case ";", "{", ":":
		return false
	}
	switch first.Spelling {
	case "#", ",", ")", "]":
		return false
	}
	if last.Spelling == "}" {
		return hasBraceInitializer(m) || isLambdaAssignmentOrReturn(m)
	}
	return true
}

func hasBraceInitializer(m []token.Token) bool {
	for i := 0; i+1 < len(m); i++ {
		if m[i].Spelling == "=" && m[i+1].Spelling == "{" {
			return true
		}
	}
	return false
}

func isLambdaAssignmentOrReturn(m []token.Token) bool {
	if !containsLambda(m) {
		return false
	}
	if len(m) > 0 && m[0].Spelling == "return" {
		return true
	}
	for _, t := range m {
		switch t.Spelling {
		case "=", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<=", ">>=":
			return true
		}
	}
	return false
}

func insertSemicolon(l logicalline.LogicalLine, m []token.Token, joined string) string {
	last := m[len(m)-1]
	at := endOffsetOf(l, last)
	return joined[:at] + ";" + joined[at:]
}

package block

import (
	"github.com/braceless-cpp/blcc/pkg/logicalline"
	"github.com/braceless-cpp/blcc/pkg/token"
)

// class is the first-match classification of spec §4.3.
type class int

const (
	classBlank class = iota
	classCommentOnly
	classAccessSpecifier
	classCaseLabel
	classBlockStarter
	classClosingBrace
	classAuthorBraceOpener
	classStatement
)

func classify(l logicalline.LogicalLine) class {
	if l.IsBlank() {
		return classBlank
	}
	if l.IsCommentOnly() {
		return classCommentOnly
	}
	m := l.MeaningfulTokens
	if len(m) == 2 && isAccessSpecifierKeyword(m[0]) && m[1].Spelling == ":" {
		return classAccessSpecifier
	}
	endsWithColon := len(m) > 0 && m[len(m)-1].Spelling == ":"
	if endsWithColon && len(m) > 0 && (m[0].Spelling == "case" || m[0].Spelling == "default") {
		return classCaseLabel
	}
	if endsWithColon {
		return classBlockStarter
	}
	if len(m) == 1 && m[0].Spelling == "}" {
		return classClosingBrace
	}
	if len(m) > 0 && m[len(m)-1].Spelling == "{" {
		return classAuthorBraceOpener
	}
	return classStatement
}

func isAccessSpecifierKeyword(t token.Token) bool {
	switch t.Spelling {
	case "public", "private", "protected":
		return t.Kind == token.Keyword
	}
	return false
}

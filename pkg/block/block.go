// Package block implements the indentation-driven block translator: the
// heart of the braceless-to-braced rewrite (spec §4.3). It consumes
// logical lines and emits braced C++ text, tracking three parallel stacks
// (content indent, block type, opener whitespace) so every synthetic
// closing brace lands at the right column with the right trailing
// punctuation.
package block

import "github.com/braceless-cpp/blcc/pkg/logicalline"

// BlockType tags what kind of braceless construct a stack frame closes.
type BlockType int

const (
	Normal BlockType = iota
	Class
	Struct
	Enum
	Union
	Switch
	Lambda
	Do
	// RegularBrace marks a block whose opening `{` was written by the
	// author: the translator tracks it for indentation bookkeeping only
	// and must never synthesize a matching closing brace for it.
	RegularBrace
)

func (t BlockType) String() string {
	switch t {
	case Class:
		return "Class"
	case Struct:
		return "Struct"
	case Enum:
		return "Enum"
	case Union:
		return "Union"
	case Switch:
		return "Switch"
	case Lambda:
		return "Lambda"
	case Do:
		return "Do"
	case RegularBrace:
		return "RegularBrace"
	default:
		return "Normal"
	}
}

// needsSemicolonOnClose reports whether a synthesized closing brace for
// this block type is followed by `;` (spec §4.3 dedent handling).
func (t BlockType) needsSemicolonOnClose() bool {
	switch t {
	case Class, Struct, Enum, Union, Lambda:
		return true
	default:
		return false
	}
}

// frame is one entry of the translator's three parallel stacks.
type frame struct {
	indent     int // content indent expected for the block's interior
	typ        BlockType
	whitespace string // leading whitespace of the line that opened the block
}

func (f frame) openerIndent(tabWidth int) int {
	return logicalline.VisualIndent(f.whitespace, tabWidth)
}

// Line is one line of translated output, tagged with the expanded-input
// line it corresponds to (spec §4.5's generated_line → expanded_line).
type Line struct {
	Text     string
	Expanded int
}

// Result is the translator's output: the emitted lines plus the
// generated-line-to-expanded-line map spec §4.5 requires (generated line
// numbers are 1-based, matching Lines' indices+1).
type Result struct {
	Lines []Line
}

// Text joins the result into a single buffer with a single trailing
// newline, per spec §6's output guarantee.
func (r *Result) Text() string {
	var out []byte
	for _, l := range r.Lines {
		out = append(out, l.Text...)
		out = append(out, '\n')
	}
	return string(out)
}

// GeneratedToExpanded builds the generated_line → expanded_line map.
func (r *Result) GeneratedToExpanded() map[int]int {
	m := make(map[int]int, len(r.Lines))
	for i, l := range r.Lines {
		m[i+1] = l.Expanded
	}
	return m
}

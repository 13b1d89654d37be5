package sourcemap

import (
	"encoding/base64"
	"encoding/json"
	"sort"
	"strings"

	gosourcemap "github.com/go-sourcemap/sourcemap"
)

// Generator incrementally builds a standard Source Map v3 document (the
// format editors and clangd-adjacent tooling already know how to read),
// as opposed to SourceMap above, which is this project's own simpler
// line-table format used internally by the Mapper.
type Generator struct {
	genFile string
	entries []genEntry
}

type genEntry struct {
	sourceFile               string
	sourceLine, sourceColumn int
	genLine, genColumn       int
	name                     string
}

// NewGenerator creates a generator for a generated file. Source files are
// collected from the mappings added via AddMapping/AddMappingWithName, so
// a translation unit that inlines several headers lists each of them.
func NewGenerator(genFile string) *Generator {
	return &Generator{genFile: genFile}
}

// NewGeneratorFromSourceMap builds a Generator from this project's own
// line-table SourceMap, for callers that want a standard V3 document
// instead of (or alongside) the internal format.
func NewGeneratorFromSourceMap(sm *SourceMap) *Generator {
	g := NewGenerator(sm.GeneratedFile)
	for _, m := range sm.Mappings {
		g.AddMapping(
			SourceLocation{File: m.OriginalFile, Line: m.OriginalLine, Column: m.OriginalColumn},
			SourceLocation{Line: m.GeneratedLine, Column: m.GeneratedColumn},
		)
	}
	return g
}

// AddMapping records a position mapping from source to generated code.
func (g *Generator) AddMapping(src, gen SourceLocation) {
	g.entries = append(g.entries, genEntry{
		sourceFile: src.File,
		sourceLine: src.Line, sourceColumn: src.Column,
		genLine: gen.Line, genColumn: gen.Column,
	})
}

// AddMappingWithName records a position mapping together with the
// identifier name at that position.
func (g *Generator) AddMappingWithName(src, gen SourceLocation, name string) {
	g.entries = append(g.entries, genEntry{
		sourceFile: src.File,
		sourceLine: src.Line, sourceColumn: src.Column,
		genLine: gen.Line, genColumn: gen.Column, name: name,
	})
}

// Generate produces a Source Map v3 JSON document, with "mappings"
// Base64-VLQ encoded per the spec (https://sourcemaps.info/spec.html).
func (g *Generator) Generate() ([]byte, error) {
	sm := struct {
		Version    int      `json:"version"`
		File       string   `json:"file"`
		SourceRoot string   `json:"sourceRoot"`
		Sources    []string `json:"sources"`
		Names      []string `json:"names"`
		Mappings   string   `json:"mappings"`
	}{
		Version:  3,
		File:     g.genFile,
		Sources:  g.collectSources(),
		Names:    g.collectNames(),
		Mappings: g.encodeMappings(),
	}
	return json.MarshalIndent(sm, "", "  ")
}

// GenerateInline returns Generate's output as a base64 inline comment.
func (g *Generator) GenerateInline() (string, error) {
	data, err := g.Generate()
	if err != nil {
		return "", err
	}
	return "//# sourceMappingURL=data:application/json;base64," + base64.StdEncoding.EncodeToString(data), nil
}

func (g *Generator) collectNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, e := range g.entries {
		if e.name != "" && !seen[e.name] {
			seen[e.name] = true
			names = append(names, e.name)
		}
	}
	return names
}

func (g *Generator) collectSources() []string {
	seen := make(map[string]bool)
	var sources []string
	for _, e := range g.entries {
		if e.sourceFile != "" && !seen[e.sourceFile] {
			seen[e.sourceFile] = true
			sources = append(sources, e.sourceFile)
		}
	}
	return sources
}

const vlqBase64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// encodeVLQ writes one value as a Base64-VLQ segment field: sign in the
// low bit, magnitude shifted up, continuation bit set on every byte but
// the last.
func encodeVLQ(value int) string {
	vlq := value << 1
	if value < 0 {
		vlq = (-value << 1) | 1
	}
	var out []byte
	for {
		digit := vlq & 0x1f
		vlq >>= 5
		if vlq > 0 {
			digit |= 0x20
		}
		out = append(out, vlqBase64Chars[digit])
		if vlq == 0 {
			break
		}
	}
	return string(out)
}

// encodeMappings builds the semicolon/comma-delimited "mappings" field.
// Per the v3 spec, the generated-column delta resets to zero at the start
// of each generated line; the source-index, source-line, source-column,
// and name-index deltas are running totals across the whole document.
func (g *Generator) encodeMappings() string {
	if len(g.entries) == 0 {
		return ""
	}

	sorted := make([]genEntry, len(g.entries))
	copy(sorted, g.entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].genLine != sorted[j].genLine {
			return sorted[i].genLine < sorted[j].genLine
		}
		return sorted[i].genColumn < sorted[j].genColumn
	})

	sourceIndex := make(map[string]int)
	for _, f := range g.collectSources() {
		sourceIndex[f] = len(sourceIndex)
	}
	nameIndex := make(map[string]int)
	for _, n := range g.collectNames() {
		nameIndex[n] = len(nameIndex)
	}

	var out strings.Builder
	prevGenLine := zeroIndex(sorted[0].genLine)
	prevGenCol := 0
	prevSourceIdx := 0
	prevSourceLine := 0
	prevSourceCol := 0
	prevNameIdx := 0
	firstOnLine := true

	for _, e := range sorted {
		genLine := zeroIndex(e.genLine)
		for prevGenLine < genLine {
			out.WriteByte(';')
			prevGenLine++
			prevGenCol = 0
			firstOnLine = true
		}
		if !firstOnLine {
			out.WriteByte(',')
		}
		firstOnLine = false

		out.WriteString(encodeVLQ(e.genColumn - prevGenCol))
		prevGenCol = e.genColumn

		srcIdx := sourceIndex[e.sourceFile]
		out.WriteString(encodeVLQ(srcIdx - prevSourceIdx))
		prevSourceIdx = srcIdx

		srcLine := zeroIndex(e.sourceLine)
		out.WriteString(encodeVLQ(srcLine - prevSourceLine))
		prevSourceLine = srcLine

		out.WriteString(encodeVLQ(e.sourceColumn - prevSourceCol))
		prevSourceCol = e.sourceColumn

		if e.name != "" {
			idx := nameIndex[e.name]
			out.WriteString(encodeVLQ(idx - prevNameIdx))
			prevNameIdx = idx
		}
	}
	return out.String()
}

// zeroIndex converts this project's 1-indexed line numbers to the v3
// spec's 0-indexed convention, clamping to 0 rather than going negative
// for the zero-value (untracked) case.
func zeroIndex(line int) int {
	if line <= 0 {
		return 0
	}
	return line - 1
}

// Consumer reads a standard Source Map v3 document produced by some other
// tool (or by Generator above) and answers source lookups against it.
type Consumer struct {
	sm *gosourcemap.Consumer
}

// NewConsumer parses raw Source Map v3 JSON.
func NewConsumer(data []byte) (*Consumer, error) {
	sm, err := gosourcemap.Parse("", data)
	if err != nil {
		return nil, err
	}
	return &Consumer{sm: sm}, nil
}

// Source looks up the original source position for a generated position.
func (c *Consumer) Source(line, column int) (SourceLocation, bool) {
	file, _, srcLine, srcCol, ok := c.sm.Source(line-1, column-1)
	if !ok {
		return SourceLocation{}, false
	}
	return SourceLocation{File: file, Line: srcLine + 1, Column: srcCol + 1}, true
}

// Lookup adapts Source to diagnostics.Patcher's origin-lookup interface,
// so a standard v3 map file can back diagnostic patching the same way a
// Mapper does, without needing to re-run translation.
func (c *Consumer) Lookup(generatedLine int) (string, int) {
	loc, ok := c.Source(generatedLine, 1)
	if !ok {
		return unknownOrigin, 0
	}
	return loc.File, loc.Line
}

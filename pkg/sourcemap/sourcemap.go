// Package sourcemap tracks, for every line of translated output, which
// line of which original source file it came from. Translation happens
// in two stages, header inlining (original file/line -> expanded
// file/line) then block translation (expanded line -> generated line),
// so the map is built by composing those two stages rather than by
// tracking positions through a single pass (spec §4.5).
package sourcemap

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/braceless-cpp/blcc/pkg/header"
)

// SourceLocation identifies a single line (and, where known, column) in a file.
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

func (p SourceLocation) String() string {
	if p.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// Mapping is one entry of a translation unit's source map: a generated
// line (and, when tracked, a column span within it) paired with the
// original position it was produced from.
type Mapping struct {
	GeneratedLine   int
	GeneratedColumn int
	OriginalFile    string
	OriginalLine    int
	OriginalColumn  int
	Length          int
}

// SourceMap is the serializable record of a whole translation unit's
// generated-to-original line mapping.
type SourceMap struct {
	Version       int       `json:"version"`
	GeneratedFile string    `json:"generated_file"`
	Mappings      []Mapping `json:"mappings"`
}

// ToJSON serializes the map.
func (sm *SourceMap) ToJSON() ([]byte, error) {
	return json.MarshalIndent(sm, "", "  ")
}

// FromJSON parses a map previously produced by ToJSON.
func FromJSON(data []byte) (*SourceMap, error) {
	var sm SourceMap
	if err := json.Unmarshal(data, &sm); err != nil {
		return nil, fmt.Errorf("sourcemap: parse: %w", err)
	}
	return &sm, nil
}

// MapToOriginal returns the original position recorded for a generated
// line, or ok=false if the line has no mapping (e.g. it is past the end
// of the generated file).
func (sm *SourceMap) MapToOriginal(generatedLine, generatedColumn int) (SourceLocation, bool) {
	for _, m := range sm.Mappings {
		if m.GeneratedLine == generatedLine {
			return SourceLocation{File: m.OriginalFile, Line: m.OriginalLine, Column: m.OriginalColumn}, true
		}
	}
	return SourceLocation{}, false
}

// MapToGenerated returns the first generated line recorded against the
// given original file/line, or ok=false if none was found.
func (sm *SourceMap) MapToGenerated(originalFile string, originalLine, originalColumn int) (int, int, bool) {
	for _, m := range sm.Mappings {
		if m.OriginalFile == originalFile && m.OriginalLine == originalLine {
			return m.GeneratedLine, m.GeneratedColumn, true
		}
	}
	return 0, 0, false
}

// Mapper is the two-stage composed mapper used during translation and
// diagnostics: generated line → expanded line (from the block
// translator) → original file/line (from the header inliner).
type Mapper struct {
	sourceMap *SourceMap
}

// Build composes the block translator's generated-to-expanded line table
// with the header inliner's expanded-line origins into one Mapper.
// expandedOrigins is 1-indexed by expanded line number (origins[i-1] is
// the origin of expanded line i); generatedToExpanded maps a generated
// line to the expanded line it was produced from. The resulting Mappings
// are ordered by generated line.
func Build(generatedFile string, expandedOrigins []header.Location, generatedToExpanded map[int]int) *Mapper {
	sm := &SourceMap{Version: 1, GeneratedFile: generatedFile}
	for genLine, expLine := range generatedToExpanded {
		if expLine < 1 || expLine > len(expandedOrigins) {
			continue
		}
		origin := expandedOrigins[expLine-1]
		sm.Mappings = append(sm.Mappings, Mapping{
			GeneratedLine: genLine,
			OriginalFile:  origin.File,
			OriginalLine:  origin.Line,
		})
	}
	sort.Slice(sm.Mappings, func(i, j int) bool {
		return sm.Mappings[i].GeneratedLine < sm.Mappings[j].GeneratedLine
	})
	return &Mapper{sourceMap: sm}
}

// NewMapper wraps an already-built SourceMap (e.g. loaded from disk via
// FromJSON) as a Mapper.
func NewMapper(sm *SourceMap) *Mapper {
	return &Mapper{sourceMap: sm}
}

// unknownOrigin is the sentinel file name returned when a generated line
// has no recorded origin (spec §6, translator API).
const unknownOrigin = "<unknown>"

// Lookup returns the origin file and line of a generated line, or
// ("<unknown>", 0) if the line was never recorded.
func (m *Mapper) Lookup(generatedLine int) (string, int) {
	loc, ok := m.sourceMap.MapToOriginal(generatedLine, 0)
	if !ok {
		return unknownOrigin, 0
	}
	return loc.File, loc.Line
}

// SourceMap exposes the underlying serializable map, e.g. for writing a
// `.map` file alongside the generated output.
func (m *Mapper) SourceMap() *SourceMap {
	return m.sourceMap
}

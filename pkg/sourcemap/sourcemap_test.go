package sourcemap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braceless-cpp/blcc/pkg/header"
	"github.com/braceless-cpp/blcc/pkg/sourcemap"
)

func TestBuildComposesHeaderAndBlockTables(t *testing.T) {
	// expanded line 1 came from util.blh:1, expanded line 2 from main.bl:2
	origins := []header.Location{
		{File: "util.blh", Line: 1},
		{File: "main.bl", Line: 2},
	}
	// generated line 1 and 2 both came from expanded line 1 (a block
	// opener plus its synthetic closer can both trace to the same
	// expanded content line); generated line 3 from expanded line 2.
	generatedToExpanded := map[int]int{1: 1, 2: 1, 3: 2}

	m := sourcemap.Build("main.generated", origins, generatedToExpanded)

	file, line := m.Lookup(1)
	assert.Equal(t, "util.blh", file)
	assert.Equal(t, 1, line)

	file, line = m.Lookup(3)
	assert.Equal(t, "main.bl", file)
	assert.Equal(t, 2, line)

	file, line = m.Lookup(99)
	assert.Equal(t, "<unknown>", file)
	assert.Equal(t, 0, line)
}

func TestBuildSkipsOutOfRangeExpandedLines(t *testing.T) {
	origins := []header.Location{{File: "a.bl", Line: 1}}
	m := sourcemap.Build("out", origins, map[int]int{1: 5})
	file, _ := m.Lookup(1)
	assert.Equal(t, "<unknown>", file)
}

func TestSourceMapJSONRoundTrip(t *testing.T) {
	sm := &sourcemap.SourceMap{
		Version:       1,
		GeneratedFile: "out.cpp",
		Mappings: []sourcemap.Mapping{
			{GeneratedLine: 1, OriginalFile: "a.bl", OriginalLine: 1},
			{GeneratedLine: 2, OriginalFile: "a.bl", OriginalLine: 3},
		},
	}
	data, err := sm.ToJSON()
	require.NoError(t, err)

	parsed, err := sourcemap.FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, sm, parsed)
}

func TestMapToGeneratedAndBack(t *testing.T) {
	sm := &sourcemap.SourceMap{
		Mappings: []sourcemap.Mapping{
			{GeneratedLine: 4, OriginalFile: "a.bl", OriginalLine: 2},
		},
	}
	genLine, genCol, ok := sm.MapToGenerated("a.bl", 2, 0)
	require.True(t, ok)
	assert.Equal(t, 4, genLine)
	assert.Equal(t, 0, genCol)

	pos, ok := sm.MapToOriginal(genLine, genCol)
	require.True(t, ok)
	assert.Equal(t, "a.bl", pos.File)
	assert.Equal(t, 2, pos.Line)
}

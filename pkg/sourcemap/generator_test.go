package sourcemap_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braceless-cpp/blcc/pkg/sourcemap"
)

func TestGeneratorRoundTripsThroughConsumer(t *testing.T) {
	g := sourcemap.NewGenerator("out.cpp")
	g.AddMapping(
		sourcemap.SourceLocation{File: "a.blcpp", Line: 1, Column: 0},
		sourcemap.SourceLocation{Line: 1, Column: 0},
	)
	g.AddMapping(
		sourcemap.SourceLocation{File: "a.blcpp", Line: 3, Column: 2},
		sourcemap.SourceLocation{Line: 2, Column: 4},
	)
	g.AddMapping(
		sourcemap.SourceLocation{File: "b.blh", Line: 1, Column: 0},
		sourcemap.SourceLocation{Line: 3, Column: 0},
	)

	data, err := g.Generate()
	require.NoError(t, err)

	consumer, err := sourcemap.NewConsumer(data)
	require.NoError(t, err)

	loc, ok := consumer.Source(1, 1)
	require.True(t, ok)
	assert.Equal(t, "a.blcpp", loc.File)
	assert.Equal(t, 1, loc.Line)

	loc, ok = consumer.Source(2, 5)
	require.True(t, ok)
	assert.Equal(t, "a.blcpp", loc.File)
	assert.Equal(t, 3, loc.Line)

	loc, ok = consumer.Source(3, 1)
	require.True(t, ok)
	assert.Equal(t, "b.blh", loc.File)
	assert.Equal(t, 1, loc.Line)
}

func TestGeneratorFromSourceMapProducesUsableDocument(t *testing.T) {
	sm := &sourcemap.SourceMap{
		Version:       1,
		GeneratedFile: "out.cpp",
		Mappings: []sourcemap.Mapping{
			{GeneratedLine: 1, OriginalFile: "a.blcpp", OriginalLine: 1},
			{GeneratedLine: 2, OriginalFile: "a.blcpp", OriginalLine: 5},
		},
	}
	g := sourcemap.NewGeneratorFromSourceMap(sm)

	inline, err := g.GenerateInline()
	require.NoError(t, err)
	assert.Contains(t, inline, "//# sourceMappingURL=data:application/json;base64,")

	data, err := g.Generate()
	require.NoError(t, err)

	consumer, err := sourcemap.NewConsumer(data)
	require.NoError(t, err)
	file, line := consumer.Lookup(2)
	assert.Equal(t, "a.blcpp", file)
	assert.Equal(t, 5, line)
}

func TestGeneratorEmptyProducesNoMappings(t *testing.T) {
	g := sourcemap.NewGenerator("out.cpp")
	data, err := g.Generate()
	require.NoError(t, err)

	var doc struct {
		Mappings string `json:"mappings"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Empty(t, doc.Mappings)
}

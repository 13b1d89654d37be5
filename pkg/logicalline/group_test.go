package logicalline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braceless-cpp/blcc/pkg/logicalline"
)

func TestGroupSimpleStatementsStayOnOwnLines(t *testing.T) {
	lines := logicalline.Group([]byte("int x = 1;\nint y = 2;\n"))
	require.Len(t, lines, 2)
	assert.Equal(t, 1, lines[0].StartLine)
	assert.Equal(t, 1, lines[0].EndLine())
	assert.Equal(t, 2, lines[1].StartLine)
}

func TestGroupFusesOpenParenAcrossLines(t *testing.T) {
	lines := logicalline.Group([]byte("foo(a,\n    b,\n    c);\n"))
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].StartLine)
	assert.Equal(t, 3, lines[0].EndLine())
	assert.Len(t, lines[0].RawLines, 3)
}

func TestGroupFusesTrailingBinaryOperator(t *testing.T) {
	lines := logicalline.Group([]byte("int total = a +\n    b;\n"))
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].EndLine())
}

func TestGroupFusesLeadingContinuationStarter(t *testing.T) {
	lines := logicalline.Group([]byte("auto v = foo()\n    .bar()\n    .baz();\n"))
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].EndLine())
}

func TestGroupDoesNotFuseUnrelatedStatements(t *testing.T) {
	lines := logicalline.Group([]byte("foo();\nbar();\n"))
	require.Len(t, lines, 2)
}

func TestGroupBracelessForHeaderEndingInColonIsNotFused(t *testing.T) {
	lines := logicalline.Group([]byte("for i in range:\n    body();\n"))
	require.Len(t, lines, 2)
	assert.Equal(t, 1, lines[0].EndLine())
	assert.Equal(t, []string{"for i in range:"}, lines[0].RawLines)
}

func TestGroupPreprocessorLineNeverFuses(t *testing.T) {
	lines := logicalline.Group([]byte("#define FOO(\n  1\n"))
	require.Len(t, lines, 2)
	assert.Equal(t, 1, lines[0].EndLine())
}

func TestGroupBlankAndCommentLinesStayIsolated(t *testing.T) {
	lines := logicalline.Group([]byte("int x;\n\n// a comment\nint y;\n"))
	require.Len(t, lines, 4)
	assert.True(t, lines[1].IsBlank())
	assert.True(t, lines[2].IsCommentOnly())
}

func TestGroupBlockCommentLinesPassThroughAsBlank(t *testing.T) {
	lines := logicalline.Group([]byte("int x;\n/* line one\n   line two */\nint y;\n"))
	require.Len(t, lines, 4)
	assert.True(t, lines[1].IsCommentOnly())
	assert.True(t, lines[2].IsBlank())
	assert.Equal(t, "   line two */", lines[2].RawLines[0])
}

func TestIndentCountsTabsAsFour(t *testing.T) {
	lines := logicalline.Group([]byte("\tint x;\n"))
	require.Len(t, lines, 1)
	assert.Equal(t, 4, lines[0].Indent(4))
}

func TestLeadingWhitespacePreservedVerbatim(t *testing.T) {
	lines := logicalline.Group([]byte("  \tint x;\n"))
	require.Len(t, lines, 1)
	assert.Equal(t, "  \t", lines[0].LeadingWhitespace())
}

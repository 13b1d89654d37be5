package translator_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braceless-cpp/blcc/pkg/translator"
)

func requireEqualOutput(t *testing.T, want, got string) {
	t.Helper()
	if want == got {
		return
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(want, got, false)
	t.Fatalf("translated output mismatch:\n%s", dmp.DiffPrettyText(diffs))
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTranslateSimpleIfElse(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "main.blcpp", "if x > 0:\n    foo()\nelse:\n    bar()\n")

	out, mapper, err := translator.Translate(src, translator.Options{})
	require.NoError(t, err)
	requireEqualOutput(t, "if (x > 0) {\n    foo();\n} else {\n    bar();\n}\n", out)

	file, line := mapper.Lookup(1)
	assert.Equal(t, src, file)
	assert.Equal(t, 1, line)
}

func TestTranslateInlinesHeaderAndTracksOrigin(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "util.blh", "int helper()\n")
	src := writeSource(t, dir, "main.blcpp", "#include \"util.blh\"\nint main():\n    pass\n")

	out, mapper, err := translator.Translate(src, translator.Options{})
	require.NoError(t, err)
	requireEqualOutput(t, "int helper();\nint main() {\n}\n", out)

	file, line := mapper.Lookup(1)
	assert.Equal(t, filepath.Join(dir, "util.blh"), file)
	assert.Equal(t, 1, line)

	file, line = mapper.Lookup(2)
	assert.Equal(t, src, file)
	assert.Equal(t, 2, line)
}

func TestTranslateUnknownOriginForOutOfRangeLookup(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "main.blcpp", "int x\n")

	_, mapper, err := translator.Translate(src, translator.Options{})
	require.NoError(t, err)

	file, line := mapper.Lookup(99)
	assert.Equal(t, "<unknown>", file)
	assert.Equal(t, 0, line)
}

func TestTranslateMultiLineStatementMapsToFirstLine(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "main.blcpp", "int r = f(a,\n          b,\n          c)\n")

	out, mapper, err := translator.Translate(src, translator.Options{})
	require.NoError(t, err)
	requireEqualOutput(t, "int r = f(a,\n          b,\n          c);\n", out)

	// Every physical line of the continuation, including the one that
	// gains the synthesized `;`, maps back to the statement's first line.
	for genLine := 1; genLine <= 3; genLine++ {
		file, line := mapper.Lookup(genLine)
		assert.Equal(t, src, file)
		assert.Equal(t, 1, line)
	}
}

func TestTranslateMissingSourceReturnsError(t *testing.T) {
	_, _, err := translator.Translate(filepath.Join(t.TempDir(), "nope.blcpp"), translator.Options{})
	assert.Error(t, err)
}

func TestTranslateHonorsSearchDirs(t *testing.T) {
	root := t.TempDir()
	libDir := filepath.Join(root, "lib")
	writeSource(t, libDir, "shared.blh", "int shared()\n")
	src := writeSource(t, root, "main.blcpp", "#include \"shared.blh\"\n")

	out, _, err := translator.Translate(src, translator.Options{SearchDirs: []string{libDir}})
	require.NoError(t, err)
	requireEqualOutput(t, "int shared();\n", out)
}

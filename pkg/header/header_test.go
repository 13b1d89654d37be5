package header_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braceless-cpp/blcc/pkg/header"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExpandInlinesHeaderBesideSource(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "util.blh", "int helper()\n")
	src := writeFile(t, dir, "main.bl", "#include \"util.blh\"\nint main()\n")

	in := header.New(".blh", nil)
	lines, origins, err := in.Expand(src)
	require.NoError(t, err)

	assert.Equal(t, []string{"int helper()", "int main()"}, lines)
	require.Len(t, origins, 2)
	assert.Equal(t, filepath.Join(dir, "util.blh"), origins[0].File)
	assert.Equal(t, 1, origins[0].Line)
	assert.Equal(t, src, origins[1].File)
	assert.Equal(t, 2, origins[1].Line)
}

func TestExpandSearchesDirectoriesInOrder(t *testing.T) {
	root := t.TempDir()
	first := filepath.Join(root, "first")
	second := filepath.Join(root, "second")
	writeFile(t, first, "shared.blh", "int fromFirst()\n")
	writeFile(t, second, "shared.blh", "int fromSecond()\n")
	src := writeFile(t, root, "main.bl", "#include \"shared.blh\"\n")

	in := header.New(".blh", []string{first, second})
	lines, _, err := in.Expand(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"int fromFirst()"}, lines)
}

func TestExpandIsPragmaOnceByDefault(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "util.blh", "int helper()\n")
	src := writeFile(t, dir, "main.bl",
		"#include \"util.blh\"\n#include \"util.blh\"\nint main()\n")

	in := header.New(".blh", nil)
	lines, _, err := in.Expand(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"int helper()", "int main()"}, lines)
}

func TestExpandHandlesIncludeCycles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.blh", "#include \"b.blh\"\nint a()\n")
	writeFile(t, dir, "b.blh", "#include \"a.blh\"\nint b()\n")
	src := writeFile(t, dir, "main.bl", "#include \"a.blh\"\n")

	in := header.New(".blh", nil)
	lines, _, err := in.Expand(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"int b()", "int a()"}, lines)
}

func TestExpandLeavesUnresolvedIncludeUnchanged(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "main.bl", "#include \"missing.blh\"\nint main()\n")

	in := header.New(".blh", nil)
	lines, origins, err := in.Expand(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"#include \"missing.blh\"", "int main()"}, lines)
	assert.Equal(t, src, origins[0].File)
	assert.Equal(t, 1, origins[0].Line)
}

func TestExpandIgnoresNonHeaderIncludes(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "main.bl", "#include <vector>\nint main()\n")

	in := header.New(".blh", nil)
	lines, _, err := in.Expand(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"#include <vector>", "int main()"}, lines)
}

func TestExpandExtensionMatchIsCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "util.BLH", "int helper()\n")
	src := writeFile(t, dir, "main.bl", "#include \"util.BLH\"\n")

	in := header.New(".blh", nil)
	lines, _, err := in.Expand(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"int helper()"}, lines)
}

package build

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCacheNeedsTranslateWithNoEntry(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "main.blcpp")
	writeTestFile(t, src, "int x\n")

	cache, err := NewCache(dir)
	require.NoError(t, err)

	needs, err := cache.NeedsTranslate(src)
	require.NoError(t, err)
	assert.True(t, needs)
}

func TestCacheSkipsUnchangedFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "main.blcpp")
	writeTestFile(t, src, "int x\n")
	writeTestFile(t, GetTranslatedPath(src), "int x;\n")

	cache, err := NewCache(dir)
	require.NoError(t, err)
	require.NoError(t, cache.MarkTranslated(src))

	needs, err := cache.NeedsTranslate(src)
	require.NoError(t, err)
	assert.False(t, needs)
}

func TestCacheDetectsContentChange(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "main.blcpp")
	writeTestFile(t, src, "int x\n")
	writeTestFile(t, GetTranslatedPath(src), "int x;\n")

	cache, err := NewCache(dir)
	require.NoError(t, err)
	require.NoError(t, cache.MarkTranslated(src))

	writeTestFile(t, src, "int y\n")
	// Backdate mtime so the change is caught by the hash check, not the mtime check.
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(src, past, past))

	needs, err := cache.NeedsTranslate(src)
	require.NoError(t, err)
	assert.True(t, needs)
}

func TestCacheDetectsMissingOutput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "main.blcpp")
	writeTestFile(t, src, "int x\n")
	writeTestFile(t, GetTranslatedPath(src), "int x;\n")

	cache, err := NewCache(dir)
	require.NoError(t, err)
	require.NoError(t, cache.MarkTranslated(src))

	require.NoError(t, os.Remove(GetTranslatedPath(src)))

	needs, err := cache.NeedsTranslate(src)
	require.NoError(t, err)
	assert.True(t, needs)
}

func TestCacheDetectsChangedDependency(t *testing.T) {
	dir := t.TempDir()
	hdr := filepath.Join(dir, "util.blh")
	src := filepath.Join(dir, "main.blcpp")
	writeTestFile(t, hdr, "int helper()\n")
	writeTestFile(t, src, "#include \"util.blh\"\nint x\n")
	writeTestFile(t, GetTranslatedPath(src), "int helper();\nint x;\n")

	cache, err := NewCache(dir)
	require.NoError(t, err)
	require.NoError(t, cache.MarkTranslated(src))

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(hdr, future, future))

	needs, err := cache.NeedsTranslate(src)
	require.NoError(t, err)
	assert.True(t, needs, "a newer header should force retranslation even though main.blcpp itself is unchanged")
}

func TestCachePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "main.blcpp")
	writeTestFile(t, src, "int x\n")
	writeTestFile(t, GetTranslatedPath(src), "int x;\n")

	cache, err := NewCache(dir)
	require.NoError(t, err)
	require.NoError(t, cache.MarkTranslated(src))

	reloaded, err := NewCache(dir)
	require.NoError(t, err)

	needs, err := reloaded.NeedsTranslate(src)
	require.NoError(t, err)
	assert.False(t, needs)
}

func TestCacheCleanRemovesStaleEntries(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "main.blcpp")
	writeTestFile(t, src, "int x\n")
	writeTestFile(t, GetTranslatedPath(src), "int x;\n")

	cache, err := NewCache(dir)
	require.NoError(t, err)
	require.NoError(t, cache.MarkTranslated(src))

	require.NoError(t, os.Remove(src))
	require.NoError(t, os.Remove(GetTranslatedPath(src)))

	require.NoError(t, cache.Clean())
	assert.Empty(t, cache.Entries)
}
